package opensea

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	tphttp "github.com/jrh3k5/tokenpage/internal/http"
	tpio "github.com/jrh3k5/tokenpage/internal/io"
	"github.com/jrh3k5/tokenpage/internal/metrics"
)

// BanStatus describes whether a token can be traded on OpenSea.
// Only a resolved answer is meaningful; BanStatusUnknown must not be read as "not banned".
type BanStatus int

const (
	BanStatusUnknown BanStatus = iota
	BanStatusNotBanned
	BanStatusBanned
)

func (s BanStatus) String() string {
	switch s {
	case BanStatusBanned:
		return "banned"
	case BanStatusNotBanned:
		return "not_banned"
	default:
		return "unknown"
	}
}

// Flagged reports whether the token is known to be banned.
func (s BanStatus) Flagged() bool {
	return s == BanStatusBanned
}

// Resolved reports whether a definitive answer is known.
func (s BanStatus) Resolved() bool {
	return s != BanStatusUnknown
}

// Client defines the interface for looking up OpenSea trading bans.
type Client interface {
	// GetBanStatus resolves the ban status of a token. collectionID may carry a
	// ":"-qualified suffix; only the contract part is sent upstream.
	GetBanStatus(ctx context.Context, collectionID string, tokenID string) (BanStatus, error)
}

// HTTPClient implements Client against the OpenSea asset endpoint.
type HTTPClient struct {
	doer    tphttp.Doer
	baseURL string
	apiKey  string
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(doer tphttp.Doer, baseURL string, apiKey string) *HTTPClient {
	return &HTTPClient{doer: doer, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey}
}

func (c *HTTPClient) GetBanStatus(ctx context.Context, collectionID string, tokenID string) (BanStatus, error) {
	if c.doer == nil {
		return BanStatusUnknown, errors.New("http client is nil")
	}

	contract, _, _ := strings.Cut(collectionID, ":")
	if contract == "" || tokenID == "" {
		return BanStatusUnknown, nil
	}

	requestPath, err := url.JoinPath(c.baseURL, "api", "v1", "asset", url.PathEscape(contract), url.PathEscape(tokenID))
	if err != nil {
		return BanStatusUnknown, fmt.Errorf("failed to build request path for ban status: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestPath, nil)
	if err != nil {
		return BanStatusUnknown, fmt.Errorf("failed to create request for ban status: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("opensea", "asset", metrics.OutcomeFailure).Inc()

		return BanStatusUnknown, fmt.Errorf("failed to execute request for ban status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues("opensea", "asset", metrics.OutcomeStatus).Inc()

		return BanStatusUnknown, fmt.Errorf("opensea API returned status %d", resp.StatusCode)
	}

	var asset struct {
		SupportsWyvern *bool `json:"supports_wyvern"`
	}
	if err := tpio.DecodeJSON(resp.Body, &asset); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues("opensea", "asset", metrics.OutcomeFailure).Inc()

		return BanStatusUnknown, fmt.Errorf("failed to decode ban status response: %w", err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues("opensea", "asset", metrics.OutcomeSuccess).Inc()

	switch {
	case asset.SupportsWyvern == nil:
		return BanStatusUnknown, nil
	case *asset.SupportsWyvern:
		return BanStatusNotBanned, nil
	default:
		return BanStatusBanned, nil
	}
}
