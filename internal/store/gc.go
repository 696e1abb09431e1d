// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// gcDiscardRatio is the value log rewrite threshold passed to BadgerDB.
const gcDiscardRatio = 0.5

// GC periodically reclaims BadgerDB value log space. It runs as a service
// under the supervision tree and stops when its context is canceled.
type GC struct {
	db       *badger.DB
	interval time.Duration
	logger   zerolog.Logger
}

// NewGC creates a value log garbage collector for a database.
func NewGC(db *badger.DB, interval time.Duration, logger zerolog.Logger) *GC {
	return &GC{
		db:       db,
		interval: interval,
		logger:   logger.With().Str("component", "store-gc").Logger(),
	}
}

// Serve runs value log GC on each tick until the context is canceled.
// Each tick rewrites value log files until BadgerDB reports nothing left
// to reclaim.
func (g *GC) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	g.logger.Info().Dur("interval", g.interval).Msg("Store GC started")

	for {
		select {
		case <-ctx.Done():
			g.logger.Info().Msg("Store GC stopped")
			return ctx.Err()
		case <-ticker.C:
			rewrites := 0
			for {
				err := g.db.RunValueLogGC(gcDiscardRatio)
				if errors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					g.logger.Debug().Err(err).Msg("Value log GC not applicable")
					break
				}
				rewrites++
			}
			if rewrites > 0 {
				g.logger.Debug().Int("rewrites", rewrites).Msg("Value log GC completed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (g *GC) String() string {
	return "store-gc"
}
