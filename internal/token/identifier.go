package token

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentifier is returned when route parameters cannot identify a token.
var ErrInvalidIdentifier = errors.New("invalid token identifier")

// Identifier addresses a single token on a single chain. It is immutable once built.
type Identifier struct {
	Chain        string // the chain route prefix, e.g., "ethereum"
	CollectionID string // the contract-qualified collection identifier, e.g., "0xabc" or "0xabc:1:100"
	TokenID      string // the token ID within the contract
}

// ParseIdentifier builds an Identifier from route parameters.
func ParseIdentifier(chain string, collectionID string, tokenID string) (Identifier, error) {
	collectionID = strings.TrimSpace(collectionID)
	tokenID = strings.TrimSpace(tokenID)

	contract, _, _ := strings.Cut(collectionID, ":")
	if contract == "" {
		return Identifier{}, fmt.Errorf("%w: collection '%s' has no contract", ErrInvalidIdentifier, collectionID)
	}

	if tokenID == "" {
		return Identifier{}, fmt.Errorf("%w: token ID is required", ErrInvalidIdentifier)
	}

	if strings.ContainsAny(tokenID, ":/?#") {
		return Identifier{}, fmt.Errorf("%w: token ID '%s' contains reserved characters", ErrInvalidIdentifier, tokenID)
	}

	return Identifier{
		Chain:        strings.TrimSpace(chain),
		CollectionID: collectionID,
		TokenID:      tokenID,
	}, nil
}

// Contract returns the contract address portion of the collection identifier.
func (i Identifier) Contract() string {
	contract, _, _ := strings.Cut(i.CollectionID, ":")

	return contract
}

// Ref returns the "<contract>:<id>" reference used by token queries.
func (i Identifier) Ref() string {
	return i.Contract() + ":" + i.TokenID
}

// Key returns a cache key unique to the identifier, including its chain.
func (i Identifier) Key() string {
	return i.Chain + "/" + i.CollectionID + "/" + i.TokenID
}

func (i Identifier) String() string {
	return i.Key()
}
