package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/jrh3k5/tokenpage/internal/chain"
	"github.com/jrh3k5/tokenpage/internal/metrics"
	"github.com/jrh3k5/tokenpage/internal/reservoir"
	"github.com/jrh3k5/tokenpage/internal/token"
	"golang.org/x/sync/errgroup"
)

// DefaultRevalidateSeconds is how long a snapshot is served before it is regenerated.
const DefaultRevalidateSeconds = 20

// Props is the render input handed from the snapshot to the page.
type Props struct {
	ID           string `json:"id"`
	CollectionID string `json:"collectionId"`
	SSR          SSR    `json:"ssr"`
}

// SSR holds the prerendered payloads. Both are always present, possibly empty.
type SSR struct {
	Collection reservoir.CollectionsResponse `json:"collection"`
	Tokens     reservoir.TokensResponse      `json:"tokens"`
}

// Result is a produced snapshot plus its revalidation window.
type Result struct {
	Props       Props
	Revalidate  int // seconds
	GeneratedAt time.Time
}

// RevalidateAfter returns the revalidation window as a duration.
func (r Result) RevalidateAfter() time.Duration {
	return time.Duration(r.Revalidate) * time.Second
}

// GatewayFactory returns the gateway to use for a chain.
type GatewayFactory func(c chain.Chain) reservoir.Gateway

// Producer fetches the initial collection and token snapshot for an identifier.
type Producer struct {
	registry   *chain.Registry
	gateways   GatewayFactory
	opts       reservoir.QueryOptions
	revalidate int
	now        func() time.Time
}

// NewProducer builds a producer. A non-positive revalidate uses DefaultRevalidateSeconds.
func NewProducer(
	registry *chain.Registry,
	gateways GatewayFactory,
	opts reservoir.QueryOptions,
	revalidate int,
) *Producer {
	if revalidate <= 0 {
		revalidate = DefaultRevalidateSeconds
	}

	return &Producer{
		registry:   registry,
		gateways:   gateways,
		opts:       opts,
		revalidate: revalidate,
		now:        time.Now,
	}
}

// Produce fetches the collection and token for id concurrently and waits for both to
// settle. A failed or empty fetch yields an empty record in its place; Produce never fails.
func (p *Producer) Produce(ctx context.Context, id token.Identifier) Result {
	gateway := p.gateways(p.registry.Find(id.Chain))

	var (
		collections *reservoir.CollectionsResponse
		tokens      *reservoir.TokensResponse
	)

	// errgroup.Group without a derived context: one failure must not cancel the other fetch.
	var g errgroup.Group
	g.Go(func() error {
		resp, err := gateway.GetCollections(ctx, reservoir.NewCollectionsQuery(id.Contract(), p.opts))
		if err != nil {
			slog.WarnContext(ctx, "Collection snapshot fetch failed; rendering without it", "token", id.Key(), "error", err)

			return nil
		}
		collections = resp

		return nil
	})
	g.Go(func() error {
		resp, err := gateway.GetTokens(ctx, reservoir.NewTokensQuery(id.Ref(), p.opts))
		if err != nil {
			slog.WarnContext(ctx, "Token snapshot fetch failed; rendering without it", "token", id.Key(), "error", err)

			return nil
		}
		tokens = resp

		return nil
	})
	_ = g.Wait()

	ssr := SSR{}
	if collections != nil {
		ssr.Collection = *collections
	} else {
		metrics.SnapshotPartialTotal.WithLabelValues("collection").Inc()
	}

	if tokens != nil {
		ssr.Tokens = *tokens
	} else {
		metrics.SnapshotPartialTotal.WithLabelValues("tokens").Inc()
	}

	return Result{
		Props: Props{
			ID:           id.TokenID,
			CollectionID: id.CollectionID,
			SSR:          ssr,
		},
		Revalidate:  p.revalidate,
		GeneratedAt: p.now(),
	}
}
