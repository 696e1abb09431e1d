// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package fetchcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCachesSuccess(t *testing.T) {
	c := New[string]("test", time.Minute, time.Minute, zerolog.Nop())

	var calls atomic.Int64
	fn := func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"a", "b"}, nil
	}

	first := c.Fetch(context.Background(), "k", fn)
	second := c.Fetch(context.Background(), "k", fn)

	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), calls.Load(), "second fetch must be a TTL hit")
}

func TestFetchSingleflightDeduplicates(t *testing.T) {
	c := New[int]("test", time.Minute, time.Minute, zerolog.Nop())

	var calls atomic.Int64
	release := make(chan struct{})
	fn := func(context.Context) ([]int, error) {
		calls.Add(1)
		<-release
		return []int{42}, nil
	}

	const n = 16
	results := make([][]int, n)
	var started, done sync.WaitGroup
	started.Add(n)
	done.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer done.Done()
			started.Done()
			results[idx] = c.Fetch(context.Background(), "k", fn)
		}(i)
	}

	started.Wait()
	// Give every goroutine time to reach the in-flight attach point while
	// the upstream is still blocked.
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int64(1), calls.Load(), "N concurrent fetches must issue exactly one upstream call")
	for i := 0; i < n; i++ {
		assert.Equal(t, []int{42}, results[i], "all callers observe the same result")
	}
}

func TestFetchCooldownSuppressesRetries(t *testing.T) {
	c := New[string]("test", time.Minute, time.Minute, zerolog.Nop())

	var calls atomic.Int64
	failing := func(context.Context) ([]string, error) {
		calls.Add(1)
		return nil, errors.New("upstream 503")
	}

	result := c.Fetch(context.Background(), "k", failing)
	assert.Nil(t, result, "error converts to no result")
	require.Equal(t, int64(1), calls.Load())

	// Within the cooldown window the upstream must not be called at all.
	result = c.Fetch(context.Background(), "k", failing)
	assert.Nil(t, result)
	assert.Equal(t, int64(1), calls.Load(), "cooldown must make zero upstream calls")
}

func TestFetchEmptyResultStartsCooldown(t *testing.T) {
	c := New[string]("test", time.Minute, time.Minute, zerolog.Nop())

	var calls atomic.Int64
	empty := func(context.Context) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}

	c.Fetch(context.Background(), "k", empty)
	c.Fetch(context.Background(), "k", empty)
	assert.Equal(t, int64(1), calls.Load(), "empty result must start the cooldown window")
}

func TestFetchSuccessClearsCooldown(t *testing.T) {
	c := New[string]("test", time.Minute, 50*time.Millisecond, zerolog.Nop())

	c.Fetch(context.Background(), "k", func(context.Context) ([]string, error) {
		return nil, errors.New("boom")
	})

	// Wait out the short cooldown, then succeed.
	time.Sleep(80 * time.Millisecond)

	result := c.Fetch(context.Background(), "k", func(context.Context) ([]string, error) {
		return []string{"ok"}, nil
	})
	require.Equal(t, []string{"ok"}, result)

	assert.False(t, c.inCooldown("k"), "success must clear the cooldown window")
}

func TestFetchCooldownIsPerKey(t *testing.T) {
	c := New[string]("test", time.Minute, time.Minute, zerolog.Nop())

	c.Fetch(context.Background(), "bad", func(context.Context) ([]string, error) {
		return nil, errors.New("boom")
	})

	var calls atomic.Int64
	result := c.Fetch(context.Background(), "good", func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"x"}, nil
	})
	assert.Equal(t, []string{"x"}, result, "cooldown on one key must not affect another")
	assert.Equal(t, int64(1), calls.Load())
}

func TestFetchDetachedCallerStillPopulatesCache(t *testing.T) {
	c := New[string]("test", time.Minute, time.Minute, zerolog.Nop())

	release := make(chan struct{})
	fn := func(context.Context) ([]string, error) {
		<-release
		return []string{"late"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := c.Fetch(ctx, "k", fn)
	assert.Nil(t, result, "canceled caller gets no result")

	close(release)
	// The detached upstream call completes in the background and its
	// result becomes visible to later callers without another dispatch.
	assert.Eventually(t, func() bool {
		got := c.Fetch(context.Background(), "k", func(context.Context) ([]string, error) {
			t.Error("upstream must not be called again")
			return nil, nil
		})
		return len(got) == 1 && got[0] == "late"
	}, time.Second, 10*time.Millisecond)
}
