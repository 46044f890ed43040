package ownership

import (
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	tpbig "github.com/jrh3k5/tokenpage/internal/big"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/token"
)

// Holdings is a per-wallet holdings result, tagged with the account it was fetched for.
type Holdings struct {
	Account string
	Tokens  *reservoir.UserTokensResponse
}

// Fact is the derived ownership of a token by the connected account.
// It is only built by Resolve, so IsOwner always agrees with CountOwned.
type Fact struct {
	countOwned     int64
	effectiveOwner string
}

// CountOwned returns how many units the connected account holds.
func (f Fact) CountOwned() int64 {
	return f.countOwned
}

// IsOwner reports whether the connected account holds at least one unit.
func (f Fact) IsOwner() bool {
	return f.countOwned > 0
}

// EffectiveOwner returns the connected account when it owns the token, else the
// owner recorded on the token; "" when neither is known.
func (f Fact) EffectiveOwner() string {
	return f.effectiveOwner
}

// Resolve derives ownership from the token, the connected account ("" when no wallet is
// connected), and the account's holdings. It is pure and must be re-run on every change.
func Resolve(t *reservoir.Token, account string, holdings Holdings) Fact {
	var count int64
	if t.IsMultiUnit() {
		count = multiUnitCount(t, account, holdings)
	} else if SameAddress(token.RecordedOwner(t), account) {
		count = 1
	}

	fact := Fact{countOwned: count}
	if fact.IsOwner() {
		fact.effectiveOwner = account
	} else {
		fact.effectiveOwner = token.RecordedOwner(t)
	}

	return fact
}

func multiUnitCount(t *reservoir.Token, account string, holdings Holdings) int64 {
	if account == "" || holdings.Tokens == nil || !SameAddress(holdings.Account, account) {
		return 0
	}

	for _, held := range holdings.Tokens.Tokens {
		if held.Token != nil && !sameToken(held.Token, t) {
			continue
		}

		if held.Ownership == nil {
			return 0
		}

		count, err := tpbig.CountFromString(held.Ownership.TokenCount)
		if err != nil {
			slog.Debug("Ignoring unparseable holdings count", "count", held.Ownership.TokenCount, "error", err)

			return 0
		}

		return count
	}

	return 0
}

// sameToken matches a held token against the page's token. A field missing from either
// record is not compared.
func sameToken(a *reservoir.Token, b *reservoir.Token) bool {
	if a.Contract != "" && b.Contract != "" && !SameAddress(a.Contract, b.Contract) {
		return false
	}

	return a.TokenID == "" || b.TokenID == "" || a.TokenID == b.TokenID
}

// SameAddress compares two addresses case-insensitively. Blank addresses never match.
func SameAddress(a string, b string) bool {
	if a == "" || b == "" {
		return false
	}

	if common.IsHexAddress(a) && common.IsHexAddress(b) {
		return common.HexToAddress(a) == common.HexToAddress(b)
	}

	return strings.EqualFold(a, b)
}

// ShortAddress abbreviates an address as "0x1234...abcd", using the checksummed form
// when the input is a valid hex address.
func ShortAddress(address string) string {
	if common.IsHexAddress(address) {
		address = common.HexToAddress(address).Hex()
	}

	const head, tail = 6, 4
	if len(address) <= head+tail {
		return address
	}

	return address[:head] + "..." + address[len(address)-tail:]
}

// ProfilePath returns the storefront path of an owner's profile.
func ProfilePath(owner string) string {
	return "/profile/" + owner
}
