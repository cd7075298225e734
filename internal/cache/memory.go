// Package cache provides a bounded in-memory cache for remote token
// counts, keyed by (model, text).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// CountCache stores token counts with a freshness TTL and a size bound.
// Once the bound is reached, the oldest insertion is evicted. Safe for
// concurrent use.
type CountCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]entry
	order   []string

	now func() time.Time
}

type entry struct {
	count    int
	storedAt time.Time
}

// NewCountCache creates a cache holding at most max entries, each fresh
// for ttl.
func NewCountCache(max int, ttl time.Duration) *CountCache {
	if max <= 0 {
		max = 1
	}
	return &CountCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]entry, max),
		now:     time.Now,
	}
}

// Key derives a cache key from a model name and the text being counted.
func Key(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached count if present and still fresh. Expired entries
// are removed on access.
func (c *CountCache) Get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.remove(key)
		return 0, false
	}
	return e.count, true
}

// Set stores a count, evicting the oldest insertion when the bound is
// exceeded.
func (c *CountCache) Set(key string, count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		if len(c.entries) >= c.max {
			c.remove(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry{count: count, storedAt: c.now()}
}

// Len returns the number of stored entries, expired or not.
func (c *CountCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CountCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
