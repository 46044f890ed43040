package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jrh3k5/tokenpage/internal/metrics"
	"github.com/jrh3k5/tokenpage/internal/token"
	"golang.org/x/sync/singleflight"
)

// Source produces snapshots.
type Source interface {
	Produce(ctx context.Context, id token.Identifier) Result
}

type entry struct {
	result Result
	stale  bool
}

// Store serves snapshots with stale-while-revalidate semantics. A never-seen identifier
// is generated before the caller gets a response; an expired one is served as-is while a
// single background regeneration replaces it.
type Store struct {
	source Source
	cache  *lru.Cache[string, *entry]
	group  singleflight.Group
	now    func() time.Time

	mu      sync.Mutex
	pending sync.WaitGroup
}

// NewStore builds a store holding at most size snapshots.
func NewStore(source Source, size int) (*Store, error) {
	cache, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	return &Store{source: source, cache: cache, now: time.Now}, nil
}

// Get returns the snapshot for id. The only error is ctx's, when the caller gives up
// waiting on a first generation; the generation itself still completes and is cached.
func (s *Store) Get(ctx context.Context, id token.Identifier) (Result, error) {
	key := id.Key()

	if e, ok := s.lookup(key); ok {
		if !e.stale && s.now().Sub(e.result.GeneratedAt) < e.result.RevalidateAfter() {
			metrics.SnapshotLookupsTotal.WithLabelValues("hit").Inc()

			return e.result, nil
		}

		metrics.SnapshotLookupsTotal.WithLabelValues("stale").Inc()
		s.regenerateInBackground(ctx, key, id)

		return e.result, nil
	}

	metrics.SnapshotLookupsTotal.WithLabelValues("miss").Inc()

	ch := s.group.DoChan(key, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), key, id, "blocking"), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Result), nil //nolint:forcetypeassert
	case <-ctx.Done():
		return Result{}, fmt.Errorf("failed to wait for snapshot of '%s': %w", key, ctx.Err())
	}
}

// MarkStale forces the next Get for id to serve the cached snapshot and regenerate it.
func (s *Store) MarkStale(id token.Identifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.cache.Peek(id.Key()); ok {
		s.cache.Add(id.Key(), &entry{result: e.result, stale: true})
	}
}

// Wait blocks until every background regeneration started so far has finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) lookup(key string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cache.Get(key)
}

func (s *Store) regenerateInBackground(ctx context.Context, key string, id token.Identifier) {
	s.pending.Add(1)
	started := false

	ch := s.group.DoChan(key, func() (any, error) {
		started = true
		defer s.pending.Done()

		return s.generate(context.WithoutCancel(ctx), key, id, "background"), nil
	})

	go func() {
		<-ch
		if !started {
			// joined a generation already in flight
			s.pending.Done()
		}
	}()
}

func (s *Store) generate(ctx context.Context, key string, id token.Identifier, mode string) Result {
	metrics.SnapshotGenerationsTotal.WithLabelValues(mode).Inc()

	result := s.source.Produce(ctx, id)

	s.mu.Lock()
	s.cache.Add(key, &entry{result: result})
	s.mu.Unlock()

	slog.DebugContext(ctx, "Snapshot generated", "token", key, "mode", mode, "revalidate", result.Revalidate)

	return result
}
