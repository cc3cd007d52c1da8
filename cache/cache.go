// Package cache provides an explicit, bounded cache with per entry
// expiration.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache maps string keys to values of type V until they expire.
// It is safe for concurrent use.
type Cache[V any] struct {
	c          *ristretto.Cache[string, V]
	defaultTTL time.Duration
}

// New returns a cache holding at most capacity entries. Put with a zero
// TTL uses defaultTTL.
func New[V any](capacity int64, defaultTTL time.Duration) (*Cache[V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create cache: %w", err)
	}
	return &Cache[V]{c: c, defaultTTL: defaultTTL}, nil
}

// Get returns the value of key if it is present and not expired.
func (c *Cache[V]) Get(key string) (V, bool) { return c.c.Get(key) }

// Put stores value under key for ttl. It returns false if the cache
// refused the entry.
func (c *Cache[V]) Put(key string, value V, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	ok := c.c.SetWithTTL(key, value, 1, ttl)
	c.c.Wait()
	return ok
}

// Invalidate removes key.
func (c *Cache[V]) Invalidate(key string) { c.c.Del(key) }

// Clear removes every entry.
func (c *Cache[V]) Clear() { c.c.Clear() }

// Close releases the cache goroutines. The cache must not be used afterwards.
func (c *Cache[V]) Close() { c.c.Close() }
