// File: cache/cache.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package cache provides a concurrent TTL cache with a bounded entry count.
// When full, the oldest inserted entry is evicted; insertion order is kept in
// a FIFO of (key, sequence) records, and records made stale by a re-insert or
// removal are skipped lazily.

package cache

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

type entry[V any] struct {
	value   V
	expires time.Time // zero means never
	seq     uint64
}

type record[K comparable] struct {
	key K
	seq uint64
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache[K comparable, V any] struct {
	mu         sync.RWMutex
	items      map[K]*entry[V]
	order      *queue.Queue
	seq        uint64
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// New creates a cache. ttl <= 0 disables expiry, maxEntries <= 0 disables
// the size bound.
func New[K comparable, V any](ttl time.Duration, maxEntries int) *Cache[K, V] {
	return &Cache[K, V]{
		items:      make(map[K]*entry[V]),
		order:      queue.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Insert stores value under key with the cache's default TTL.
func (c *Cache[K, V]) Insert(key K, value V) {
	c.mu.RLock()
	ttl := c.ttl
	c.mu.RUnlock()
	c.InsertWithTTL(key, value, ttl)
}

// InsertWithTTL stores value under key; ttl <= 0 means no expiry.
func (c *Cache[K, V]) InsertWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}
	if _, exists := c.items[key]; !exists && c.maxEntries > 0 {
		for len(c.items) >= c.maxEntries && c.evictOldest() {
		}
	}
	c.seq++
	c.items[key] = &entry[V]{value: value, expires: expires, seq: c.seq}
	c.order.Add(record[K]{key: key, seq: c.seq})
	c.compact()
}

// Get returns the value for key. Expired entries are misses.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetOrCompute returns the cached value for key or stores and returns fn().
// Concurrent misses on the same key may each call fn.
func (c *Cache[K, V]) GetOrCompute(key K, fn func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	v := fn()
	c.Insert(key, v)
	return v
}

// Remove deletes key and returns its value if it was present and live.
func (c *Cache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(c.items, key)
	c.compact()
	if c.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]*entry[V])
	c.order = queue.New()
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// PurgeExpired removes expired entries and returns how many were removed.
func (c *Cache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.items {
		if c.expired(e) {
			delete(c.items, k)
			n++
		}
	}
	if n > 0 {
		c.compact()
	}
	return n
}

// SetTTL changes the default TTL for subsequent inserts.
func (c *Cache[K, V]) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	c.ttl = ttl
	c.mu.Unlock()
}

// TTL returns the default TTL.
func (c *Cache[K, V]) TTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

func (c *Cache[K, V]) expired(e *entry[V]) bool {
	return !e.expires.IsZero() && c.now().After(e.expires)
}

// evictOldest removes the oldest live entry. Caller holds mu.
func (c *Cache[K, V]) evictOldest() bool {
	for c.order.Length() > 0 {
		r := c.order.Remove().(record[K])
		if e, ok := c.items[r.key]; ok && e.seq == r.seq {
			delete(c.items, r.key)
			return true
		}
	}
	return false
}

// compact rebuilds the order queue once stale records dominate it.
// Caller holds mu.
func (c *Cache[K, V]) compact() {
	if c.order.Length() <= 2*len(c.items)+16 {
		return
	}
	fresh := queue.New()
	for c.order.Length() > 0 {
		r := c.order.Remove().(record[K])
		if e, ok := c.items[r.key]; ok && e.seq == r.seq {
			fresh.Add(r)
		}
	}
	c.order = fresh
}
