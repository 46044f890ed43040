package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Toast is a user-facing notification.
type Toast struct {
	Title       string
	Description string
}

// Sink accepts notifications. Delivery is fire-and-forget.
type Sink interface {
	Notify(ctx context.Context, toast Toast)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, toast Toast)

func (f SinkFunc) Notify(ctx context.Context, toast Toast) {
	f(ctx, toast)
}

// SlogSink writes notifications to the default logger.
type SlogSink struct{}

func (SlogSink) Notify(ctx context.Context, toast Toast) {
	slog.InfoContext(ctx, toast.Title, "description", toast.Description)
}

// Recorder keeps every notification it receives, in order.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(_ context.Context, toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.toasts = append(r.toasts, toast)
}

// Toasts returns a copy of the recorded notifications.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Toast(nil), r.toasts...)
}

// Fanout delivers each notification to every sink.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, toast Toast) {
	for _, sink := range f {
		sink.Notify(ctx, toast)
	}
}
