package live

import (
	"context"
	"sync"
)

// Fetcher loads the value for a key.
type Fetcher[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Query holds the best-known value for its current key. The zero key disables the query.
//
// A value is only ever applied for the key it was fetched for: a result that arrives after
// the key has moved on is dropped, as is a result from a fetch that started before the one
// whose value is already applied. A failed fetch keeps the last good value, and a seed is
// kept until the first successful fetch replaces it.
type Query[K comparable, T any] struct {
	fetch Fetcher[K, T]

	mu          sync.Mutex
	key         K
	valueKey    K
	value       T
	hasValue    bool
	started     uint64
	applied     uint64
	subscribers []func(T)
}

// NewQuery builds a query for key seeded with an initial value.
func NewQuery[K comparable, T any](key K, seed T, fetch Fetcher[K, T]) *Query[K, T] {
	return &Query[K, T]{
		fetch:    fetch,
		key:      key,
		valueKey: key,
		value:    seed,
		hasValue: true,
	}
}

// Get returns the value for the current key, or the zero value when none is known.
func (q *Query[K, T]) Get() T {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.current()
}

func (q *Query[K, T]) current() T {
	var zero T
	if !q.hasValue || q.valueKey != q.key {
		return zero
	}

	return q.value
}

// Key returns the current key.
func (q *Query[K, T]) Key() K {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.key
}

// Enabled reports whether the current key is non-zero.
func (q *Query[K, T]) Enabled() bool {
	var zero K

	return q.Key() != zero
}

// SetKey moves the query to key and reports whether it changed. The value held for the
// previous key is discarded immediately.
func (q *Query[K, T]) SetKey(key K) bool {
	q.mu.Lock()
	if q.key == key {
		q.mu.Unlock()

		return false
	}

	var zero T
	q.key = key
	q.value = zero
	q.hasValue = false
	q.applied = q.started
	subscribers := append([]func(T){}, q.subscribers...)
	q.mu.Unlock()

	for _, fn := range subscribers {
		fn(zero)
	}

	return true
}

// Revalidate fetches the value for the current key and applies it unless the key has
// moved on or a fetch started later has already been applied. A disabled query does nothing.
func (q *Query[K, T]) Revalidate(ctx context.Context) error {
	q.mu.Lock()
	key := q.key
	var zero K
	if key == zero {
		q.mu.Unlock()

		return nil
	}
	q.started++
	seq := q.started
	q.mu.Unlock()

	value, err := q.fetch(ctx, key)

	q.mu.Lock()
	if q.key != key || seq <= q.applied {
		q.mu.Unlock()

		return nil
	}
	if err != nil {
		q.mu.Unlock()

		return err
	}
	q.value = value
	q.valueKey = key
	q.hasValue = true
	q.applied = seq
	subscribers := append([]func(T){}, q.subscribers...)
	q.mu.Unlock()

	for _, fn := range subscribers {
		fn(value)
	}

	return nil
}

// Subscribe registers fn to be called with the visible value after every change.
func (q *Query[K, T]) Subscribe(fn func(T)) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.subscribers = append(q.subscribers, fn)
}
