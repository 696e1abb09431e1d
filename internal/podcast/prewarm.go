// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package podcast

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Prewarmer keeps the trending cache populated so the first request after
// a TTL expiry never pays the provider round trip. Runs as a service under
// the supervision tree.
type Prewarmer struct {
	discovery *Discovery
	interval  time.Duration
	limit     int
	logger    zerolog.Logger
}

// NewPrewarmer creates the trending pre-warmer.
func NewPrewarmer(discovery *Discovery, interval time.Duration, limit int, logger zerolog.Logger) *Prewarmer {
	return &Prewarmer{
		discovery: discovery,
		interval:  interval,
		limit:     limit,
		logger:    logger.With().Str("component", "trending-prewarmer").Logger(),
	}
}

// Serve warms the trending cache immediately and then on every tick until
// the context is canceled. Warm failures are logged and retried next tick;
// the fetch cache's cooldown already throttles a failing provider.
func (p *Prewarmer) Serve(ctx context.Context) error {
	p.warm(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.warm(ctx)
		}
	}
}

func (p *Prewarmer) warm(ctx context.Context) {
	items, err := p.discovery.Trending(ctx, p.limit)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Trending pre-warm failed")
		return
	}
	p.logger.Debug().Int("count", len(items)).Msg("Trending cache warmed")
}

// String implements fmt.Stringer for supervisor logging.
func (p *Prewarmer) String() string {
	return "trending-prewarmer"
}
