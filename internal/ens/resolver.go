package ens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	tphttp "github.com/jrh3k5/tokenpage/internal/http"
	tpio "github.com/jrh3k5/tokenpage/internal/io"
	"github.com/jrh3k5/tokenpage/internal/metrics"
)

// Resolution is the human-readable identity of an address.
type Resolution struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// Resolver resolves addresses to names.
type Resolver interface {
	// Resolve looks up the identity of address. A nil resolution with no error
	// means the address has no name.
	Resolve(ctx context.Context, address string) (*Resolution, error)
}

// HTTPResolver resolves names through an ENS resolution API.
type HTTPResolver struct {
	doer    tphttp.Doer
	baseURL string
}

var _ Resolver = (*HTTPResolver)(nil)

func NewHTTPResolver(doer tphttp.Doer, baseURL string) *HTTPResolver {
	return &HTTPResolver{doer: doer, baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *HTTPResolver) Resolve(ctx context.Context, address string) (*Resolution, error) {
	if r.doer == nil {
		return nil, errors.New("http client is nil")
	}

	if address == "" {
		return nil, nil
	}

	requestPath, err := url.JoinPath(r.baseURL, "ens", "resolve", url.PathEscape(strings.ToLower(address)))
	if err != nil {
		return nil, fmt.Errorf("failed to build request path for ENS resolution: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for ENS resolution: %w", err)
	}

	resp, err := r.doer.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("ens", "resolve", metrics.OutcomeFailure).Inc()

		return nil, fmt.Errorf("failed to execute request for ENS resolution: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues("ens", "resolve", metrics.OutcomeStatus).Inc()

		return nil, fmt.Errorf("ENS API returned status %d", resp.StatusCode)
	}

	var resolution Resolution
	if err := tpio.DecodeJSON(resp.Body, &resolution); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("ens", "resolve", metrics.OutcomeFailure).Inc()

		return nil, fmt.Errorf("failed to decode ENS resolution: %w", err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("ens", "resolve", metrics.OutcomeSuccess).Inc()

	if resolution.Name == "" {
		return nil, nil
	}

	return &resolution, nil
}

// CachingResolver memoizes resolutions, including the absence of a name, for a fixed TTL.
// Failed lookups are not cached.
type CachingResolver struct {
	next  Resolver
	cache *expirable.LRU[string, *Resolution]
}

var _ Resolver = (*CachingResolver)(nil)

func NewCachingResolver(next Resolver, size int, ttl time.Duration) *CachingResolver {
	return &CachingResolver{
		next:  next,
		cache: expirable.NewLRU[string, *Resolution](size, nil, ttl),
	}
}

func (r *CachingResolver) Resolve(ctx context.Context, address string) (*Resolution, error) {
	key := strings.ToLower(address)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	resolution, err := r.next.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Caching ENS resolution", "address", key, "resolved", resolution != nil)
	r.cache.Add(key, resolution)

	return resolution, nil
}
