// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Janitor periodically sweeps expired entries from a set of caches.
// It implements suture.Service and is run under the application's
// supervisor tree.
type Janitor struct {
	caches   []*Cache
	interval time.Duration
	logger   zerolog.Logger
}

// NewJanitor creates a janitor sweeping the given caches every interval.
//
//nolint:gocritic // logger passed by value is the zerolog convention
func NewJanitor(interval time.Duration, logger zerolog.Logger, caches ...*Cache) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Janitor{
		caches:   caches,
		interval: interval,
		logger:   logger.With().Str("component", "cache-janitor").Logger(),
	}
}

// Serve runs the sweep loop until the context is canceled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			total := 0
			for _, c := range j.caches {
				total += c.Sweep()
			}
			if total > 0 {
				j.logger.Debug().Int("evicted", total).Msg("sweep complete")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (j *Janitor) String() string {
	return "cache-janitor"
}
