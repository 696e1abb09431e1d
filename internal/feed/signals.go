// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package feed

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Maphari/the-news-sub000/internal/models"
	"github.com/Maphari/the-news-sub000/internal/ranking"
)

// collectSignals fans out the store lookups that feed personalization:
// interaction history, followed sources and the dislike/read exclusion
// sets. The whole fan-out shares one deadline; exceeding it returns an
// error and the caller degrades to the recency fallback. On any failure
// the partially built signals are returned alongside the error so
// fallbacks can still honor collected exclusions.
func (a *Assembler) collectSignals(ctx context.Context, userID string) (*models.UserSignals, error) {
	if userID == "" {
		return models.NewUserSignals(""), nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.SignalTimeout)
	defer cancel()

	var (
		interactions []models.Interaction
		followed     map[string]struct{}
		disliked     map[string]struct{}
		read         map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		interactions, err = a.store.Interactions(gctx, userID, a.opts.InteractionLimit)
		return err
	})
	g.Go(func() error {
		var err error
		followed, err = a.store.FollowedSources(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		disliked, err = a.store.DislikedItemIDs(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		read, err = a.store.ReadItemIDs(gctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		signals := models.NewUserSignals(userID)
		mergeExclusions(signals, disliked, read)
		return signals, err
	}

	itemsByID, err := a.store.ItemsByIDs(ctx, interactedItemIDs(interactions))
	if err != nil {
		signals := models.NewUserSignals(userID)
		mergeExclusions(signals, disliked, read)
		return signals, err
	}

	signals := ranking.BuildSignals(userID, interactions, itemsByID, followed, a.opts.Params.Signals)
	mergeExclusions(signals, disliked, read)
	return signals, nil
}

// exclusionsOnly fetches only the dislike set, for surfaces that honor
// dislikes without personalizing. Lookup failures yield empty exclusions;
// these surfaces serve unfiltered rather than fail.
func (a *Assembler) exclusionsOnly(ctx context.Context, userID string) *models.UserSignals {
	signals := models.NewUserSignals(userID)
	if userID == "" {
		return signals
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.SignalTimeout)
	defer cancel()

	disliked, err := a.store.DislikedItemIDs(ctx, userID)
	if err != nil {
		a.logger.Warn().Err(err).Str("user_id", userID).Msg("Dislike lookup failed, serving unfiltered")
		return signals
	}
	mergeExclusions(signals, disliked, nil)
	return signals
}

func mergeExclusions(signals *models.UserSignals, disliked, read map[string]struct{}) {
	for id := range disliked {
		signals.Disliked[id] = struct{}{}
	}
	for id := range read {
		signals.Read[id] = struct{}{}
	}
}

// interactedItemIDs returns the deduplicated item ids of an interaction
// history, preserving first-seen order.
func interactedItemIDs(interactions []models.Interaction) []string {
	seen := make(map[string]struct{}, len(interactions))
	ids := make([]string, 0, len(interactions))
	for _, in := range interactions {
		if _, ok := seen[in.ItemID]; ok {
			continue
		}
		seen[in.ItemID] = struct{}{}
		ids = append(ids, in.ItemID)
	}
	return ids
}
