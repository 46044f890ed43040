package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jrh3k5/tokenpage/internal/opensea"
	"github.com/jrh3k5/tokenpage/internal/ownership"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/snapshot"
	"github.com/jrh3k5/tokenpage/internal/token"
	"golang.org/x/sync/errgroup"
)

type holdingsKey struct {
	Account  string
	TokenRef string
}

type banKey struct {
	CollectionID string
	TokenID      string
}

// Synchronizer keeps the data shown for a single token fresh. It starts from a snapshot
// and replaces each part only once a fetch for the current key has succeeded.
type Synchronizer struct {
	id   token.Identifier
	opts reservoir.QueryOptions

	collections *Query[string, *reservoir.CollectionsResponse]
	tokens      *Query[string, *reservoir.TokensResponse]
	attributes  *Query[string, *reservoir.AttributesResponse]
	holdings    *Query[holdingsKey, ownership.Holdings]
	bans        *Query[banKey, opensea.BanStatus]

	mu      sync.Mutex
	account string
}

// NewSynchronizer builds a synchronizer for id seeded with the given snapshot props.
// No fetch is issued until Start is called.
func NewSynchronizer(
	id token.Identifier,
	seed snapshot.Props,
	gateway reservoir.Gateway,
	bans opensea.Client,
	opts reservoir.QueryOptions,
) *Synchronizer {
	collectionSeed := seed.SSR.Collection
	tokensSeed := seed.SSR.Tokens

	s := &Synchronizer{
		id:   id,
		opts: opts,
	}

	s.collections = NewQuery(id.Contract(), &collectionSeed,
		func(ctx context.Context, contract string) (*reservoir.CollectionsResponse, error) {
			resp, err := gateway.GetCollections(ctx, reservoir.NewCollectionsQuery(contract, s.opts))
			if err != nil {
				return nil, fmt.Errorf("failed to fetch collection '%s': %w", contract, err)
			}
			if resp == nil {
				resp = &reservoir.CollectionsResponse{}
			}

			return resp, nil
		})

	s.tokens = NewQuery(id.Ref(), &tokensSeed,
		func(ctx context.Context, ref string) (*reservoir.TokensResponse, error) {
			resp, err := gateway.GetTokens(ctx, reservoir.NewTokensQuery(ref, s.opts))
			if err != nil {
				return nil, fmt.Errorf("failed to fetch token '%s': %w", ref, err)
			}
			if resp == nil {
				resp = &reservoir.TokensResponse{}
			}

			return resp, nil
		})

	s.attributes = NewQuery(id.CollectionID, (*reservoir.AttributesResponse)(nil),
		func(ctx context.Context, collectionID string) (*reservoir.AttributesResponse, error) {
			resp, err := gateway.GetAttributes(ctx, collectionID)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch attributes of collection '%s': %w", collectionID, err)
			}

			return resp, nil
		})

	s.holdings = NewQuery(holdingsKey{}, ownership.Holdings{},
		func(ctx context.Context, key holdingsKey) (ownership.Holdings, error) {
			resp, err := gateway.GetUserTokens(ctx, key.Account, reservoir.UserTokensQuery{Tokens: []string{key.TokenRef}})
			if err != nil {
				return ownership.Holdings{}, fmt.Errorf("failed to fetch holdings of '%s': %w", key.Account, err)
			}

			return ownership.Holdings{Account: key.Account, Tokens: resp}, nil
		})

	s.bans = NewQuery(banKey{CollectionID: id.CollectionID, TokenID: id.TokenID}, opensea.BanStatusUnknown,
		func(ctx context.Context, key banKey) (opensea.BanStatus, error) {
			if bans == nil {
				return opensea.BanStatusUnknown, nil
			}

			return bans.GetBanStatus(ctx, key.CollectionID, key.TokenID)
		})

	return s
}

// Start issues the initial fetch of every query and waits for all of them to settle.
// Failures are logged and leave the seeded values in place.
func (s *Synchronizer) Start(ctx context.Context) {
	var group errgroup.Group

	group.Go(func() error {
		s.absorb(ctx, "collection", s.collections.Revalidate(ctx))

		return nil
	})

	group.Go(func() error {
		s.absorb(ctx, "tokens", s.tokens.Revalidate(ctx))
		s.syncHoldings(ctx)

		return nil
	})

	group.Go(func() error {
		s.absorb(ctx, "attributes", s.attributes.Revalidate(ctx))

		return nil
	})

	group.Go(func() error {
		s.absorb(ctx, "ban status", s.bans.Revalidate(ctx))

		return nil
	})

	_ = group.Wait()
}

// Mutate re-fetches the token immediately and notifies subscribers. The holdings query
// follows if the token's kind changed. The error is returned for observation only; the
// previous token data stays visible when it fails.
func (s *Synchronizer) Mutate(ctx context.Context) error {
	err := s.tokens.Revalidate(ctx)
	s.absorb(ctx, "tokens", err)
	s.syncHoldings(ctx)

	return err
}

// SetAccount records the connected wallet account ("" when disconnected) and re-fetches
// the holdings when they depend on it.
func (s *Synchronizer) SetAccount(ctx context.Context, account string) {
	s.mu.Lock()
	s.account = account
	s.mu.Unlock()

	s.syncHoldings(ctx)
}

// Account returns the connected wallet account, or "" when none is connected.
func (s *Synchronizer) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.account
}

// syncHoldings moves the holdings query to the key implied by the current account and
// token, fetching when the key changed. Holdings are only tracked for multi-unit tokens.
func (s *Synchronizer) syncHoldings(ctx context.Context) {
	var key holdingsKey
	if account := s.Account(); account != "" && s.Token().IsMultiUnit() {
		key = holdingsKey{Account: account, TokenRef: s.id.Ref()}
	}

	if !s.holdings.SetKey(key) || !s.holdings.Enabled() {
		return
	}

	s.absorb(ctx, "holdings", s.holdings.Revalidate(ctx))
}

func (s *Synchronizer) absorb(ctx context.Context, part string, err error) {
	if err == nil {
		return
	}

	slog.WarnContext(ctx, "Failed to refresh token data; keeping last known value",
		"token", s.id.String(), "part", part, "error", err)
}

// Collections returns the collection payload. It is never nil.
func (s *Synchronizer) Collections() *reservoir.CollectionsResponse {
	if resp := s.collections.Get(); resp != nil {
		return resp
	}

	return &reservoir.CollectionsResponse{}
}

// Collection returns the collection record, or nil when none is known.
func (s *Synchronizer) Collection() *reservoir.Collection {
	return s.Collections().First()
}

// Tokens returns the token payload. It is never nil.
func (s *Synchronizer) Tokens() *reservoir.TokensResponse {
	if resp := s.tokens.Get(); resp != nil {
		return resp
	}

	return &reservoir.TokensResponse{}
}

// TokenDetails returns the first token entry, or nil when none is known.
func (s *Synchronizer) TokenDetails() *reservoir.TokenDetails {
	return s.Tokens().First()
}

// Token returns the token record, or nil when none is known.
func (s *Synchronizer) Token() *reservoir.Token {
	if details := s.TokenDetails(); details != nil {
		return details.Token
	}

	return nil
}

// Attributes returns the collection's attribute aggregates. It is never nil.
func (s *Synchronizer) Attributes() *reservoir.AttributesResponse {
	if resp := s.attributes.Get(); resp != nil {
		return resp
	}

	return &reservoir.AttributesResponse{}
}

// Holdings returns the connected account's holdings of this token. It is empty when no
// account is connected or the token is single-unit.
func (s *Synchronizer) Holdings() ownership.Holdings {
	return s.holdings.Get()
}

// BanStatus returns the ban status of the token, BanStatusUnknown until it has been resolved.
func (s *Synchronizer) BanStatus() opensea.BanStatus {
	return s.bans.Get()
}

// Ownership derives the connected account's ownership from the current values.
func (s *Synchronizer) Ownership() ownership.Fact {
	return ownership.Resolve(s.Token(), s.Account(), s.Holdings())
}

// OnChange registers fn to be called whenever any tracked value changes.
func (s *Synchronizer) OnChange(fn func()) {
	s.collections.Subscribe(func(*reservoir.CollectionsResponse) { fn() })
	s.tokens.Subscribe(func(*reservoir.TokensResponse) { fn() })
	s.attributes.Subscribe(func(*reservoir.AttributesResponse) { fn() })
	s.holdings.Subscribe(func(ownership.Holdings) { fn() })
	s.bans.Subscribe(func(opensea.BanStatus) { fn() })
}
