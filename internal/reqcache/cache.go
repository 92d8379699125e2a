// Package reqcache memoizes device memory-requirement queries.
//
// Requirements depend only on a resource description, and most frames
// declare the same descriptions as the frame before, so the frame graph
// keys them by description fingerprint and asks the device once per
// distinct description.
package reqcache

import "sync"

// DefaultSoftLimit is the number of fingerprints kept before eviction.
const DefaultSoftLimit = 512

// Cache is a thread-safe fingerprint-keyed cache with a soft limit.
// When the cache exceeds its soft limit, the least recently used quarter
// of the entries is evicted.
type Cache[V any] struct {
	mu        sync.Mutex
	entries   map[uint64]*entry[V]
	softLimit int
	tick      int64

	hits   uint64
	misses uint64
}

type entry[V any] struct {
	value V
	atime int64
}

// Stats reports cache usage.
type Stats struct {
	Len    int
	Hits   uint64
	Misses uint64
}

// New creates a cache. A softLimit <= 0 selects DefaultSoftLimit.
func New[V any](softLimit int) *Cache[V] {
	if softLimit <= 0 {
		softLimit = DefaultSoftLimit
	}
	return &Cache[V]{
		entries:   make(map[uint64]*entry[V]),
		softLimit: softLimit,
	}
}

// Get returns the value cached for fingerprint.
func (c *Cache[V]) Get(fingerprint uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fingerprint]
	if !ok {
		var zero V
		return zero, false
	}
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// GetOrQuery returns the cached value for fingerprint, calling query on a
// miss. query runs under the cache lock.
func (c *Cache[V]) GetOrQuery(fingerprint uint64, query func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if e, ok := c.entries[fingerprint]; ok {
		c.hits++
		e.atime = c.tick
		return e.value
	}

	c.misses++
	v := query()
	c.entries[fingerprint] = &entry[V]{value: v, atime: c.tick}
	if len(c.entries) > c.softLimit {
		c.evictOldestLocked()
	}
	return v
}

// Clear drops every entry and resets statistics.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*entry[V])
	c.tick = 0
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Len: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// evictOldestLocked trims the cache to three quarters of the soft limit.
// Caller must hold c.mu.
func (c *Cache[V]) evictOldestLocked() {
	target := c.softLimit * 3 / 4
	if target < 1 {
		target = 1
	}
	toEvict := len(c.entries) - target
	if toEvict <= 0 {
		return
	}

	type aged struct {
		key   uint64
		atime int64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{k, e.atime})
	}
	// Partial selection sort: only the first toEvict slots are needed.
	for i := 0; i < toEvict; i++ {
		minIdx := i
		for j := i + 1; j < len(all); j++ {
			if all[j].atime < all[minIdx].atime {
				minIdx = j
			}
		}
		all[i], all[minIdx] = all[minIdx], all[i]
		delete(c.entries, all[i].key)
	}
}
