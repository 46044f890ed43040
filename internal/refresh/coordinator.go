package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jrh3k5/tokenpage/internal/metrics"
	"github.com/jrh3k5/tokenpage/internal/notify"
	"github.com/jrh3k5/tokenpage/internal/token"
)

var (
	// ErrInFlight is returned when a refresh is requested while another is outstanding.
	// No request is issued in that case.
	ErrInFlight = errors.New("a refresh is already in flight")
	// ErrRequestFailed wraps the cause of a refresh request that was not accepted.
	ErrRequestFailed = errors.New("refresh request failed")
)

var (
	AcceptedToast = notify.Toast{
		Title:       "Refresh token",
		Description: "Request to refresh this token was accepted.",
	}
	FailedToast = notify.Toast{
		Title:       "Refresh token failed",
		Description: "We have queued this item for an update, check back in a few.",
	}
)

const outcomeSuppressed = "suppressed"

// Refresher issues the metadata-refresh request for a token ("<contract>:<id>").
type Refresher interface {
	RefreshToken(ctx context.Context, tokenRef string) error
}

// Mutator re-fetches the live token data.
type Mutator interface {
	Mutate(ctx context.Context) error
}

type State int

const (
	StateIdle State = iota
	StateInFlight
)

func (s State) String() string {
	if s == StateInFlight {
		return "in-flight"
	}

	return "idle"
}

// ButtonState is how the refresh button is drawn for a given state.
type ButtonState struct {
	Disabled bool
	Cursor   string
	Spinning bool
}

// Coordinator drives the manual refresh of one token's metadata. At most one refresh
// is outstanding at a time.
type Coordinator struct {
	id        token.Identifier
	refresher Refresher
	mutator   Mutator
	sink      notify.Sink

	inFlight atomic.Bool
}

func NewCoordinator(id token.Identifier, refresher Refresher, mutator Mutator, sink notify.Sink) *Coordinator {
	if sink == nil {
		sink = notify.SlogSink{}
	}

	return &Coordinator{
		id:        id,
		refresher: refresher,
		mutator:   mutator,
		sink:      sink,
	}
}

// Refresh requests a metadata refresh of the token. A call made while another refresh is
// in flight returns ErrInFlight without issuing a request. Otherwise the coordinator
// returns to idle, notifies the outcome, and returns any failure wrapped in ErrRequestFailed.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		metrics.RefreshRequestsTotal.WithLabelValues(outcomeSuppressed).Inc()
		slog.DebugContext(ctx, "Ignoring refresh while another is in flight", "token", c.id.String())

		return ErrInFlight
	}

	err := c.refresher.RefreshToken(ctx, c.id.Ref())
	c.inFlight.Store(false)

	if err != nil {
		metrics.RefreshRequestsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		c.sink.Notify(ctx, FailedToast)

		return fmt.Errorf("%w for token '%s': %w", ErrRequestFailed, c.id.Ref(), err)
	}

	metrics.RefreshRequestsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	c.sink.Notify(ctx, AcceptedToast)

	return nil
}

// RefreshMedia re-fetches the token data for the media view and notifies acceptance.
// It is independent of Refresh, so both notifications may be sent.
func (c *Coordinator) RefreshMedia(ctx context.Context) error {
	var err error
	if c.mutator != nil {
		err = c.mutator.Mutate(ctx)
	}

	c.sink.Notify(ctx, AcceptedToast)

	if err != nil {
		return fmt.Errorf("failed to refresh media of token '%s': %w", c.id.Ref(), err)
	}

	return nil
}

// InFlight reports whether a refresh is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.inFlight.Load()
}

func (c *Coordinator) State() State {
	if c.InFlight() {
		return StateInFlight
	}

	return StateIdle
}

// Button returns how the refresh button should be drawn right now.
func (c *Coordinator) Button() ButtonState {
	return ButtonFor(c.State())
}

func ButtonFor(state State) ButtonState {
	if state == StateInFlight {
		return ButtonState{Disabled: true, Cursor: "not-allowed", Spinning: true}
	}

	return ButtonState{Cursor: "pointer"}
}
