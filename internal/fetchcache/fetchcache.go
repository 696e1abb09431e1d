// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package fetchcache wraps slow, rate-limited upstream lookups with three
// layers of protection: TTL caching of successful results, singleflight
// deduplication of concurrent identical requests, and a cooldown window
// after a failed or empty fetch so a flaky upstream is not hammered with
// retries.
package fetchcache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/Maphari/the-news-sub000/internal/cache"
	"github.com/Maphari/the-news-sub000/internal/metrics"
)

// Cache is a singleflight external-fetch cache for upstream calls returning
// a slice of T. The zero value is not usable; construct with New.
//
// Fetch order per key: TTL hit → cooldown check → attach to in-flight call
// → issue upstream call. All concurrent callers for one key observe a
// single upstream call and the same eventual result.
type Cache[T any] struct {
	name     string
	ttl      time.Duration
	cooldown time.Duration

	store *cache.Cache
	group singleflight.Group

	mu        sync.Mutex
	cooldowns map[string]time.Time

	logger zerolog.Logger
}

// New creates a fetch cache. Successful non-empty results are cached for
// ttl; failed or empty fetches suppress retries for cooldown.
//
//nolint:gocritic // logger passed by value is the zerolog convention
func New[T any](name string, ttl, cooldown time.Duration, logger zerolog.Logger) *Cache[T] {
	return &Cache[T]{
		name:      name,
		ttl:       ttl,
		cooldown:  cooldown,
		store:     cache.New("fetch-"+name, ttl),
		cooldowns: make(map[string]time.Time),
		logger:    logger.With().Str("component", "fetchcache").Str("fetch", name).Logger(),
	}
}

// Fetch returns the cached result for key, or executes fn at most once
// across all concurrent callers to produce it. Upstream failures and empty
// results are converted to "no result" (nil) and start the cooldown window;
// they are never surfaced as errors.
//
// A caller whose context expires while waiting detaches and gets "no
// result"; the upstream call it was attached to completes in the background
// and its result still lands in the cache for later callers.
func (c *Cache[T]) Fetch(ctx context.Context, key string, fn func(context.Context) ([]T, error)) []T {
	if value, ok := c.store.Get(key); ok {
		if results, ok := value.([]T); ok {
			return results
		}
	}

	if c.inCooldown(key) {
		metrics.FetchCooldownSkips.WithLabelValues(c.name).Inc()
		return nil
	}

	// The singleflight group is the critical section: concurrent callers
	// racing past the checks above all land on the same in-flight call.
	// The upstream call runs detached from any single caller's lifetime so
	// one canceled request cannot fail the shared result.
	upstreamCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		return c.callUpstream(upstreamCtx, key, fn)
	})

	select {
	case <-ctx.Done():
		c.logger.Debug().Str("key", key).Msg("caller detached from in-flight fetch")
		return nil
	case res := <-ch:
		if res.Shared {
			metrics.FetchSharedResults.WithLabelValues(c.name).Inc()
		}
		if res.Err != nil {
			return nil
		}
		results, _ := res.Val.([]T)
		return results
	}
}

// callUpstream issues the upstream call and settles cache and cooldown
// state based on the outcome.
func (c *Cache[T]) callUpstream(ctx context.Context, key string, fn func(context.Context) ([]T, error)) (interface{}, error) {
	results, err := fn(ctx)
	if err != nil {
		// Canceled and timed-out calls land here too; for cooldown
		// purposes they are indistinguishable from upstream errors.
		metrics.FetchUpstreamCalls.WithLabelValues(c.name, "error").Inc()
		c.startCooldown(key)
		c.logger.Warn().Err(err).Str("key", key).Msg("upstream fetch failed, cooldown started")
		return nil, err
	}

	if len(results) == 0 {
		metrics.FetchUpstreamCalls.WithLabelValues(c.name, "empty").Inc()
		c.startCooldown(key)
		return []T(nil), nil
	}

	metrics.FetchUpstreamCalls.WithLabelValues(c.name, "success").Inc()
	c.store.SetWithTTL(key, results, c.ttl)
	c.clearCooldown(key)
	return results, nil
}

// inCooldown reports whether key has an active cooldown window, pruning
// expired windows as a side effect.
func (c *Cache[T]) inCooldown(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	until, ok := c.cooldowns[key]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.cooldowns, key)
		return false
	}
	return true
}

// startCooldown starts or extends the cooldown window for key.
func (c *Cache[T]) startCooldown(key string) {
	c.mu.Lock()
	c.cooldowns[key] = time.Now().Add(c.cooldown)
	c.mu.Unlock()
}

// clearCooldown removes any cooldown window for key.
func (c *Cache[T]) clearCooldown(key string) {
	c.mu.Lock()
	delete(c.cooldowns, key)
	c.mu.Unlock()
}

// Invalidate drops the cached result for key, forcing the next Fetch to go
// upstream. Cooldown state is left untouched.
func (c *Cache[T]) Invalidate(key string) {
	c.store.Delete(key)
}
