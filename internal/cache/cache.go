// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package cache provides the process-wide TTL key-value cache every
// read-heavy component builds on: the response cache keys into it, the
// external fetch cache stores successful upstream results in it, and
// mutating endpoints invalidate it by key prefix.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/Maphari/the-news-sub000/internal/metrics"
)

// MinTTL is the defensive lower bound applied to every TTL. Callers passing
// a zero or negative TTL get this instead of an instantly-expired entry.
const MinTTL = time.Second

// Entry represents a cached value with an absolute expiry instant.
// An entry is visible to readers iff now < ExpiresAt.
type Entry struct {
	Value     interface{}
	ExpiresAt time.Time
}

// Cache is a thread-safe in-memory key-value store with per-entry TTL and
// prefix invalidation. Instances are named so their hit/miss/eviction
// counters can be told apart in Prometheus.
type Cache struct {
	name       string
	defaultTTL time.Duration

	mu      sync.RWMutex
	entries map[string]Entry

	stats   Stats
	statsMu sync.Mutex
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
	LastSweep time.Time
}

// New creates a named cache with the given default TTL. The cache performs
// lazy expiry on read; pair it with a Janitor service for periodic sweeps.
func New(name string, defaultTTL time.Duration) *Cache {
	if defaultTTL < MinTTL {
		defaultTTL = MinTTL
	}
	return &Cache{
		name:       name,
		defaultTTL: defaultTTL,
		entries:    make(map[string]Entry),
	}
}

// Get retrieves a value by key. Expired entries read as absent and are
// removed on the spot.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry between the read unlock and here.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.ExpiresAt) {
			delete(c.entries, key)
			c.recordEviction(1)
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Value, true
}

// Set stores a value with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with a custom TTL, unconditionally overwriting
// any existing entry and its expiry. TTLs below MinTTL are clamped.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if ttl < MinTTL {
		ttl = MinTTL
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheKeys.WithLabelValues(c.name).Set(float64(size))
}

// Delete removes a single entry. No-op for absent keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.recordEviction(1)
	}
}

// DeleteMatching removes every entry whose key starts with any of the given
// prefixes and returns the number of entries removed. This is the
// invalidation primitive: a write that changes a user's data drops all
// cached pages scoped to that user in one call.
func (c *Cache) DeleteMatching(prefixes []string) int {
	if len(prefixes) == 0 {
		return 0
	}

	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.recordEviction(int64(removed))
		metrics.CacheKeys.WithLabelValues(c.name).Set(float64(size))
	}
	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.recordEviction(int64(evicted))
	metrics.CacheKeys.WithLabelValues(c.name).Set(0)
}

// Len returns the current number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes all expired entries and returns the number removed.
// Called periodically by the Janitor service.
func (c *Cache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.LastSweep = now
	c.statsMu.Unlock()

	if removed > 0 {
		c.recordEviction(int64(removed))
	}
	metrics.CacheKeys.WithLabelValues(c.name).Set(float64(size))
	return removed
}

// GetStats returns a snapshot of the cache counters.
func (c *Cache) GetStats() Stats {
	c.statsMu.Lock()
	snapshot := c.stats
	c.statsMu.Unlock()

	snapshot.Keys = c.Len()
	return snapshot
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.stats.Hits++
	c.statsMu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.stats.Misses++
	c.statsMu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordEviction(n int64) {
	c.statsMu.Lock()
	c.stats.Evictions += n
	c.statsMu.Unlock()
	metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(n))
}
