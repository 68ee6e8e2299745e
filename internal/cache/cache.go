// Package cache memoizes remote query results. The result store is
// append-only, so entries never turn wrong, only stale; there is no
// invalidation beyond clearing and re-querying.
package cache

import (
	"strings"
	"sync"
)

// Key builds a cache key from parts, e.g. Key("history", path).
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Cache is a generic in-memory cache keyed by query key.
// It is safe for concurrent use.
type Cache[T any] struct {
	data map[string]T
	mu   sync.RWMutex
}

// New creates an empty cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		data: make(map[string]T),
	}
}

// Get retrieves a value from the cache.
// Returns the value and true if found, zero value and false otherwise.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, found := c.data[key]

	return val, found
}

// Set stores a value in the cache.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
}

// GetOrCompute retrieves a value from the cache, or computes and stores it if
// not found. The compute function runs without holding the lock, so
// concurrent calls for the same key may compute the value multiple times
// (but only one will be stored).
func (c *Cache[T]) GetOrCompute(key string, compute func() (T, error)) (T, error) {
	// Fast path: check if already cached.
	if val, found := c.Get(key); found {
		return val, nil
	}

	// Slow path: compute the value.
	val, err := compute()
	if err != nil {
		var zero T

		return zero, err
	}

	c.Set(key, val)

	return val, nil
}

// Len returns the number of items in the cache.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// Clear removes all items from the cache.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]T)
}

// Snapshot returns a copy of the cache contents, for persistence.
func (c *Cache[T]) Snapshot() map[string]T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]T, len(c.data))

	for key, val := range c.data {
		out[key] = val
	}

	return out
}

// Restore replaces the cache contents with a previously taken snapshot.
func (c *Cache[T]) Restore(snapshot map[string]T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]T, len(snapshot))

	for key, val := range snapshot {
		c.data[key] = val
	}
}
