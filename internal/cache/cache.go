// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package cache provides the in-memory response cache for VaxSignal.
//
// The cache memoizes whole computed responses keyed by a stable content
// hash of the canonical request parameters (see StableHash). Entries carry
// a TTL; overflow past the configured maximum evicts entries nearest to
// expiry first. GetOrSet provides single-flight semantics: concurrent
// callers for the same key block on one computation, while distinct keys
// compute fully concurrently.
//
// The cache is an explicit, constructed-once service object (there is no
// package-level instance) so tests can create isolated caches and clear
// them freely.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openvigil/vaxsignal/internal/metrics"
)

// entry is a cached value with its expiry.
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits            int64 `json:"hits"`
	Misses          int64 `json:"misses"`
	Sets            int64 `json:"sets"`
	EvictedExpired  int64 `json:"evicted_expired"`
	EvictedOverflow int64 `json:"evicted_overflow"`
	Entries         int64 `json:"entries"`
}

// Options configures a Cache.
type Options struct {
	// DefaultTTL applies when Set is called through GetOrSet.
	DefaultTTL time.Duration
	// MaxEntries bounds the cache size; exceeding it evicts entries
	// nearest to expiry first. Must be >= 1.
	MaxEntries int
	// Disabled turns the cache into a pass-through: Get always misses and
	// Set is a no-op. GetOrSet still de-duplicates concurrent computes.
	Disabled bool
}

// Cache is a thread-safe TTL cache with single-flight memoization.
//
// Locking model: one coarse mutex guards the index and the expiry heap;
// singleflight provides the per-key serialization for GetOrSet. A slow
// compute therefore blocks only callers of the same key. There is no
// timeout on waiters, which is an accepted operational risk: a wedged
// store call wedges every request for that exact parameter set until it
// returns.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	heap    *expiryHeap
	stats   Stats

	defaultTTL time.Duration
	maxEntries int
	disabled   bool

	flight singleflight.Group
}

// New creates a Cache with the given options.
func New(opts Options) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 1
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 45 * time.Second
	}
	return &Cache{
		entries:    make(map[string]entry),
		heap:       newExpiryHeap(),
		defaultTTL: opts.DefaultTTL,
		maxEntries: opts.MaxEntries,
		disabled:   opts.Disabled,
	}
}

// Get returns the cached value for key, lazily evicting expired entries.
func (c *Cache) Get(key string) (interface{}, bool) {
	if c.disabled {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictExpiredLocked(time.Now())

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}
	c.stats.Hits++
	metrics.CacheHits.Inc()
	return ent.value, true
}

// Set stores value under key with the given TTL (the cache default when
// ttl <= 0). Inserting past MaxEntries evicts nearest-expiry entries.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if c.disabled {
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.evictExpiredLocked(now)

	expiresAt := now.Add(ttl)
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
	c.heap.push(key, expiresAt)
	c.stats.Sets++

	for len(c.entries) > c.maxEntries {
		victim := c.heap.pop()
		if victim == nil {
			break
		}
		delete(c.entries, victim.key)
		c.stats.EvictedOverflow++
		metrics.CacheEvictions.WithLabelValues("overflow").Inc()
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// GetOrSet returns the cached value for key, or runs compute and caches
// its result with the given TTL.
//
// Single-flight: for a given key only one concurrent caller executes
// compute; the others block and share its result. Distinct keys do not
// serialize. An error from compute propagates to every waiter and leaves
// no cache entry behind.
func (c *Cache) GetOrSet(key string, compute func() (interface{}, error), ttl time.Duration) (interface{}, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err, shared := c.flight.Do(key, func() (interface{}, error) {
		// Re-check after winning the flight: a concurrent caller may have
		// populated the entry between our miss and this execution.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, shared, nil
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.heap.remove(key)
		metrics.CacheEvictions.WithLabelValues("manual").Inc()
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}

// Clear removes all entries. Intended for test isolation and operational
// cache invalidation.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.heap.clear()
	metrics.CacheEntries.Set(0)
}

// Prune evicts expired entries now. The supervisor runs this on a timer so
// idle caches do not hold expired values until the next Get.
func (c *Cache) Prune() {
	if c.disabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpiredLocked(time.Now())
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = int64(len(c.entries))
	return s
}

// evictExpiredLocked removes every expired entry. The expiry heap keeps
// this O(expired * log n) rather than a full map scan.
func (c *Cache) evictExpiredLocked(now time.Time) {
	for {
		head := c.heap.peek()
		if head == nil || head.expiresAt.After(now) {
			break
		}
		c.heap.pop()
		delete(c.entries, head.key)
		c.stats.EvictedExpired++
		metrics.CacheEvictions.WithLabelValues("expired").Inc()
	}
	metrics.CacheEntries.Set(float64(len(c.entries)))
}
