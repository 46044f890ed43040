package reservoir

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrh3k5/tokenpage/internal/metrics"
)

type refreshRequest struct {
	Token string `json:"token"`
}

// RefreshToken posts a metadata-refresh request for the given token reference.
func (c *Client) RefreshToken(ctx context.Context, tokenRef string) error {
	const endpoint = "tokens_refresh"

	requestPath, err := url.JoinPath(c.baseURL, "tokens", "refresh", "v1")
	if err != nil {
		return fmt.Errorf("failed to build request path for token refresh: %w", err)
	}

	b, err := json.Marshal(refreshRequest{Token: tokenRef})
	if err != nil {
		return fmt.Errorf("failed to marshal token refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestPath, strings.NewReader(string(b)))
	if err != nil {
		return fmt.Errorf("failed to create request for token refresh: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, endpoint, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.UpstreamRequestsTotal.WithLabelValues(metricsService, endpoint, metrics.OutcomeStatus).Inc()
		slog.DebugContext(ctx, "Token refresh rejected", "token", tokenRef, "status", resp.StatusCode, "body", drain(resp.Body))

		return fmt.Errorf("failed to refresh token '%s': %w", tokenRef, &StatusError{StatusCode: resp.StatusCode})
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(metricsService, endpoint, metrics.OutcomeSuccess).Inc()

	return nil
}
