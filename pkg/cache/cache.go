// Package cache provides a small bounded key/value cache with
// insertion-order eviction. It is shared state between fork-join branches,
// so all operations take a single mutex; these are not hot paths.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
)

// Bounded is a fixed-capacity map that evicts its oldest inserted entries
// in batches once the capacity is exceeded. Eviction is by insertion order,
// not access order.
type Bounded[V any] struct {
	mu        sync.Mutex
	entries   map[string]V
	order     []string
	capacity  int
	evictSize int
}

// NewBounded creates a cache holding at most capacity entries. When an
// insert pushes the size past capacity, the oldest evictSize entries are
// removed. evictSize values below 1 are treated as 1.
func NewBounded[V any](capacity, evictSize int) *Bounded[V] {
	if capacity < 1 {
		capacity = 1
	}
	if evictSize < 1 {
		evictSize = 1
	}
	return &Bounded[V]{
		entries:   make(map[string]V),
		capacity:  capacity,
		evictSize: evictSize,
	}
}

// Get returns the cached value for key, if present.
func (c *Bounded[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put stores value under key, evicting the oldest entries if the cache has
// grown past its capacity. Re-inserting an existing key updates the value
// without refreshing its insertion position.
func (c *Bounded[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	if len(c.entries) > c.capacity {
		n := c.evictSize
		if n > len(c.order) {
			n = len(c.order)
		}
		for _, old := range c.order[:n] {
			delete(c.entries, old)
		}
		c.order = c.order[n:]
	}
}

// Len returns the current number of cached entries.
func (c *Bounded[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Bounded[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]V)
	c.order = nil
}

// Key builds a cache key from the given parts: each part is lower-cased and
// trimmed, the parts are joined, and the result is content-hashed so keys
// stay bounded regardless of input size.
func Key(parts ...string) string {
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = strings.ToLower(strings.TrimSpace(p))
	}
	sum := md5.Sum([]byte(strings.Join(normalized, ":")))
	return hex.EncodeToString(sum[:])
}
