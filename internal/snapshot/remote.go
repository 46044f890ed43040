package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tphttp "github.com/jrh3k5/tokenpage/internal/http"
	tpio "github.com/jrh3k5/tokenpage/internal/io"
	"github.com/jrh3k5/tokenpage/internal/token"
)

// RemoteSource reads snapshots from a running token page server, so a viewer starts from
// exactly the props the server rendered.
type RemoteSource struct {
	doer    tphttp.Doer
	baseURL string
}

var _ Source = (*RemoteSource)(nil)

func NewRemoteSource(doer tphttp.Doer, baseURL string) *RemoteSource {
	return &RemoteSource{doer: doer, baseURL: strings.TrimRight(baseURL, "/")}
}

// Produce fetches the props for id. Failures degrade to empty props, as a local
// Producer would.
func (r *RemoteSource) Produce(ctx context.Context, id token.Identifier) Result {
	result := Result{
		Props:       Props{ID: id.TokenID, CollectionID: id.CollectionID},
		Revalidate:  DefaultRevalidateSeconds,
		GeneratedAt: time.Now(),
	}

	props, err := r.fetch(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch snapshot from server; starting from empty props", "token", id.Key(), "error", err)

		return result
	}

	result.Props.SSR = props.SSR

	return result
}

func (r *RemoteSource) fetch(ctx context.Context, id token.Identifier) (*Props, error) {
	requestPath, err := url.JoinPath(
		r.baseURL,
		"api",
		"token",
		url.PathEscape(id.Chain),
		url.PathEscape(id.CollectionID),
		url.PathEscape(id.TokenID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build request path for snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for snapshot: %w", err)
	}

	resp, err := r.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request for snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token page server returned status %d", resp.StatusCode)
	}

	var props Props
	if err := tpio.DecodeJSON(resp.Body, &props); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &props, nil
}
