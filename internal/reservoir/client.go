package reservoir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tphttp "github.com/jrh3k5/tokenpage/internal/http"
	tpio "github.com/jrh3k5/tokenpage/internal/io"
	"github.com/jrh3k5/tokenpage/internal/metrics"
)

const metricsService = "reservoir"

// ErrUnexpectedStatus is matched by every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status from marketplace API")

// StatusError reports a response whose status code was not the expected one.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("marketplace API returned status %d", e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Gateway defines the queries issued to the marketplace data API.
type Gateway interface {
	// GetCollections retrieves the collections matching the query.
	GetCollections(ctx context.Context, query CollectionsQuery) (*CollectionsResponse, error)
	// GetTokens retrieves the tokens matching the query.
	GetTokens(ctx context.Context, query TokensQuery) (*TokensResponse, error)
	// GetAttributes retrieves the attribute aggregates for a collection.
	GetAttributes(ctx context.Context, collectionID string) (*AttributesResponse, error)
	// GetUserTokens retrieves the holdings of the given account, filtered to the query's tokens.
	GetUserTokens(ctx context.Context, account string, query UserTokensQuery) (*UserTokensResponse, error)
	// RefreshToken asks the marketplace to refresh the metadata of a token ("<contract>:<id>").
	// Only an HTTP 200 counts as success.
	RefreshToken(ctx context.Context, tokenRef string) error
}

// Client implements Gateway over HTTP. An individual client instance is bound to a
// single base URL, which is either a chain's API or a proxy in front of it.
type Client struct {
	doer    tphttp.Doer
	baseURL string
	apiKey  string
}

var _ Gateway = (*Client)(nil)

// NewClient returns a client for the API rooted at baseURL. A blank apiKey omits the
// x-api-key header, which is how the storefront proxy is addressed.
func NewClient(doer tphttp.Doer, baseURL string, apiKey string) *Client {
	return &Client{
		doer:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *Client) get(
	ctx context.Context,
	endpoint string,
	pathElems []string,
	query url.Values,
	out any,
) error {
	requestPath, err := url.JoinPath(c.baseURL, pathElems...)
	if err != nil {
		return fmt.Errorf("failed to build request path for %s: %w", endpoint, err)
	}

	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(ctx, endpoint, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues(metricsService, endpoint, metrics.OutcomeStatus).Inc()

		return fmt.Errorf("failed to fetch %s: %w", endpoint, &StatusError{StatusCode: resp.StatusCode})
	}

	if err := tpio.DecodeJSON(resp.Body, out); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metricsService, endpoint, metrics.OutcomeFailure).Inc()

		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(metricsService, endpoint, metrics.OutcomeSuccess).Inc()

	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	if c.doer == nil {
		return nil, errors.New("http client is nil")
	}

	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	started := time.Now()
	resp, err := c.doer.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(metricsService, endpoint).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(metricsService, endpoint, metrics.OutcomeFailure).Inc()

		return nil, fmt.Errorf("failed to execute request for %s: %w", endpoint, err)
	}

	slog.DebugContext(ctx, "Marketplace API responded", "endpoint", endpoint, "status", resp.StatusCode)

	return resp, nil
}

// drain reads a bounded amount of an error body so it can be reported.
func drain(body io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(body, 512)) //nolint:mnd

	return strings.TrimSpace(string(b))
}

func boolString(b bool) string {
	return strconv.FormatBool(b)
}
