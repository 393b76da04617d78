// Package cache holds computed result sets keyed by dataset version and
// parameter fingerprint. The cache is an owned object: callers create it,
// pass it where needed, and invalidate it explicitly.
package cache

import (
	"sync"
	"time"
)

// Key identifies one computation.
type Key struct {
	DatasetVersion    string
	ParamsFingerprint string
}

type entry[V any] struct {
	value  V
	stored time.Time
}

// Stats are cumulative counters since creation.
type Stats struct {
	Hits          int
	Misses        int
	Entries       int
	Invalidations int
}

// Cache is safe for concurrent use. A zero TTL keeps entries until
// invalidated.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]entry[V]
	stats   Stats
}

func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{ttl: ttl, now: time.Now, entries: make(map[Key]entry[V])}
}

// Get returns the cached value for k. Expired entries are dropped.
func (c *Cache[V]) Get(k Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if ok && c.ttl > 0 && c.now().Sub(e.stored) > c.ttl {
		delete(c.entries, k)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

func (c *Cache[V]) Put(k Key, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = entry[V]{value: v, stored: c.now()}
}

// Invalidate drops every entry and returns how many were dropped. There is no
// partial invalidation.
func (c *Cache[V]) Invalidate() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[Key]entry[V])
	c.stats.Invalidations++
	return n
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}
