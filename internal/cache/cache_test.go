// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	_, exists = c.Get("key2")
	if exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New("test", time.Minute)

	c.SetWithTTL("key1", "value1", MinTTL)

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist immediately after set")
	}

	time.Sleep(MinTTL + 100*time.Millisecond)

	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to be expired")
	}

	// An expired entry must not come back on a second read either.
	_, exists = c.Get("key1")
	if exists {
		t.Error("Expected key1 to stay absent after expiry")
	}
}

func TestCacheSetOverwritesExpiry(t *testing.T) {
	c := New("test", time.Minute)

	c.SetWithTTL("key1", "old", MinTTL)
	c.SetWithTTL("key1", "new", time.Hour)

	time.Sleep(MinTTL + 100*time.Millisecond)

	value, exists := c.Get("key1")
	if !exists {
		t.Fatal("Expected key1 to survive: Set must overwrite the expiry")
	}
	if value != "new" {
		t.Errorf("Expected new, got %v", value)
	}
}

func TestCacheTTLClamp(t *testing.T) {
	c := New("test", time.Minute)

	// Negative TTL is a contract violation; it is clamped, not honored.
	c.SetWithTTL("key1", "value1", -5*time.Second)

	_, exists := c.Get("key1")
	if !exists {
		t.Error("Expected negative TTL to be clamped to MinTTL, not expired")
	}
}

func TestCacheDeleteMatching(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("feed:uid:alice:/home", 1)
	c.Set("feed:uid:alice:/explore", 2)
	c.Set("feed:uid:bob:/home", 3)
	c.Set("search:uid:alice:/search", 4)

	removed := c.DeleteMatching([]string{"feed:uid:alice:"})
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	if _, exists := c.Get("feed:uid:alice:/home"); exists {
		t.Error("Expected alice feed entries to be gone")
	}
	if _, exists := c.Get("feed:uid:bob:/home"); !exists {
		t.Error("Expected bob's entry to survive")
	}
	if _, exists := c.Get("search:uid:alice:/search"); !exists {
		t.Error("Expected other namespace to survive")
	}
}

func TestCacheDeleteMatchingMultiplePrefixes(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("a:1", 1)
	c.Set("b:1", 2)
	c.Set("c:1", 3)

	removed := c.DeleteMatching([]string{"a:", "c:"})
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}
	if _, exists := c.Get("b:1"); !exists {
		t.Error("Expected b:1 to survive")
	}
}

func TestCacheSweep(t *testing.T) {
	c := New("test", time.Minute)

	c.SetWithTTL("short", "v", MinTTL)
	c.SetWithTTL("long", "v", time.Hour)

	time.Sleep(MinTTL + 100*time.Millisecond)

	removed := c.Sweep()
	if removed != 1 {
		t.Errorf("Expected 1 swept, got %d", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", c.Len())
	}
}

func TestCacheStats(t *testing.T) {
	c := New("test", time.Minute)

	c.Set("key1", "v")
	c.Get("key1")
	c.Get("missing")
	c.Delete("key1")

	stats := c.GetStats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New("test", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j)
				c.Set(key, j)
				c.Get(key)
				if j%10 == 0 {
					c.DeleteMatching([]string{fmt.Sprintf("key-%d-", n)})
				}
			}
		}(i)
	}
	wg.Wait()
}
