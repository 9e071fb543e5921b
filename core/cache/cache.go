// Package cache provides a read-through cache over a pluggable byte store.
//
// Values are loaded on miss, JSON-encoded, and kept for a fixed TTL. The store
// is injected: a file directory for the CLI, redis for shared deployments,
// memory for tests.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"aws-cost/internal/logging"
)

// DefaultTTL is the lifetime of cached console paths and classifications
const DefaultTTL = 24 * time.Hour

// Store is a byte-oriented key/value store with per-entry expiry
type Store interface {
	// Get returns the value and true on hit, false on miss or expiry
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value for ttl
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ReadThrough loads values on miss and caches them in a Store
type ReadThrough[T any] struct {
	store Store
	ttl   time.Duration

	mu       sync.Mutex
	inflight map[string]*call[T]
}

type call[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// NewReadThrough creates a read-through cache. A zero ttl uses DefaultTTL.
func NewReadThrough[T any](store Store, ttl time.Duration) *ReadThrough[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReadThrough[T]{
		store:    store,
		ttl:      ttl,
		inflight: make(map[string]*call[T]),
	}
}

// Get returns the cached value for key, calling load on miss.
// Store failures degrade to calling load; load errors are returned and not cached.
// Concurrent misses for the same key share one load.
func (r *ReadThrough[T]) Get(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := r.lookup(ctx, key); ok {
		return v, nil
	}

	r.mu.Lock()
	if c, ok := r.inflight[key]; ok {
		r.mu.Unlock()
		select {
		case <-c.done:
			return c.value, c.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	c := &call[T]{done: make(chan struct{})}
	r.inflight[key] = c
	r.mu.Unlock()

	c.value, c.err = load(ctx)
	if c.err == nil {
		r.save(ctx, key, c.value)
	}

	r.mu.Lock()
	delete(r.inflight, key)
	r.mu.Unlock()
	close(c.done)

	return c.value, c.err
}

func (r *ReadThrough[T]) lookup(ctx context.Context, key string) (T, bool) {
	var v T
	if r.store == nil {
		return v, false
	}
	data, ok, err := r.store.Get(ctx, key)
	if err != nil {
		logging.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		return v, false
	}
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		logging.Debug("cache entry undecodable, reloading", zap.String("key", key), zap.Error(err))
		return v, false
	}
	return v, true
}

func (r *ReadThrough[T]) save(ctx context.Context, key string, v T) {
	if r.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		logging.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expires) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Store
func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expires: m.now().Add(ttl)}
	return nil
}
