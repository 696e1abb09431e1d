// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maphari/the-news-sub000/internal/models"
)

func poolItem(id, source, category string, age time.Duration) models.CandidateItem {
	return models.CandidateItem{
		ID:          id,
		Title:       "headline " + id,
		SourceName:  source,
		Categories:  []string{category},
		PublishedAt: time.Now().Add(-age),
	}
}

func TestBuildSignalsAccumulatesWeights(t *testing.T) {
	w := DefaultParams().Signals
	items := map[string]models.CandidateItem{
		"a": poolItem("a", "wire", "Tech", time.Hour),
		"b": poolItem("b", "wire", "tech", time.Hour),
	}
	interactions := []models.Interaction{
		{UserID: "u1", ItemID: "a", Type: models.InteractionLiked},
		{UserID: "u1", ItemID: "b", Type: models.InteractionSaved},
	}

	signals := BuildSignals("u1", interactions, items, nil, w)

	assert.InDelta(t, w.Liked+w.Saved, signals.CategoryWeights["tech"], 1e-9,
		"category weights accumulate case-insensitively")
	assert.InDelta(t, w.Liked+w.Saved, signals.SourceWeights["wire"], 1e-9)
}

func TestBuildSignalsInteractionOrdering(t *testing.T) {
	w := DefaultParams().Signals
	assert.Less(t, w.weightFor("read"), w.weightFor("saved"))
	assert.Less(t, w.weightFor("saved"), w.weightFor("shared"))
	assert.Equal(t, w.weightFor("shared"), w.weightFor("commented"))
	assert.Less(t, w.weightFor("shared"), w.weightFor("liked"))
	assert.Equal(t, w.Floor, w.weightFor("unknown"), "unknown types fall back to the floor")
}

func TestBuildSignalsDislikeRegistersExclusionOnly(t *testing.T) {
	w := DefaultParams().Signals
	items := map[string]models.CandidateItem{
		"a": poolItem("a", "wire", "tech", time.Hour),
	}
	interactions := []models.Interaction{
		{UserID: "u1", ItemID: "a", Type: models.InteractionDisliked},
	}

	signals := BuildSignals("u1", interactions, items, nil, w)

	assert.True(t, signals.IsDisliked("a"))
	assert.Empty(t, signals.CategoryWeights, "a dislike must not feed the affinity maps")
	assert.Empty(t, signals.SourceWeights)
}

func TestBuildSignalsMissingItemStillExcludes(t *testing.T) {
	w := DefaultParams().Signals
	interactions := []models.Interaction{
		{UserID: "u1", ItemID: "gone", Type: models.InteractionRead},
	}

	signals := BuildSignals("u1", interactions, map[string]models.CandidateItem{}, nil, w)

	assert.True(t, signals.IsRead("gone"),
		"read exclusion holds even when the item left the store")
	assert.Empty(t, signals.CategoryWeights)
}

func TestBuildSignalsFollowedSources(t *testing.T) {
	w := DefaultParams().Signals
	followed := map[string]struct{}{"wire": {}}

	signals := BuildSignals("u1", nil, nil, followed, w)

	_, ok := signals.FollowedSources["wire"]
	assert.True(t, ok)
	assert.InDelta(t, w.FollowBonus, signals.SourceWeights["wire"], 1e-9)
}

func TestScorePersonalNilSignalsIsTopStories(t *testing.T) {
	now := time.Now()
	p := DefaultParams().Personal

	popular := poolItem("a", "wire", "tech", time.Hour)
	popular.Likes = 100
	quiet := poolItem("b", "wire", "tech", time.Hour)

	assert.Greater(t, ScorePersonal(&popular, nil, now, p), ScorePersonal(&quiet, nil, now, p),
		"with no signals popularity decides between equally fresh items")

	fresh := poolItem("c", "wire", "tech", time.Hour)
	stale := poolItem("d", "wire", "tech", 90*24*time.Hour)
	assert.Greater(t, ScorePersonal(&fresh, nil, now, p), ScorePersonal(&stale, nil, now, p))
}

func TestScorePersonalAffinityCaps(t *testing.T) {
	now := time.Now()
	p := DefaultParams().Personal

	signals := models.NewUserSignals("u1")
	signals.CategoryWeights["tech"] = 1000

	capped := poolItem("a", "wire", "tech", time.Hour)
	neutral := poolItem("b", "wire", "sports", time.Hour)

	diff := ScorePersonal(&capped, signals, now, p) - ScorePersonal(&neutral, signals, now, p)
	assert.InDelta(t, p.CategoryAffinityCap, diff, 1e-9,
		"a runaway category weight contributes at most the cap")
}

func TestRankPersonalizedExcludesDislikedAndRead(t *testing.T) {
	now := time.Now()
	pool := []models.CandidateItem{
		poolItem("disliked", "wire", "tech", time.Hour),
		poolItem("read", "wire", "tech", time.Hour),
		poolItem("fresh", "wire", "tech", time.Hour),
	}

	signals := models.NewUserSignals("u1")
	signals.Disliked["disliked"] = struct{}{}
	signals.Read["read"] = struct{}{}

	ranked := RankPersonalized(pool, signals, now, DefaultParams().Personal)
	require.Len(t, ranked, 1)
	assert.Equal(t, "fresh", ranked[0].Item.ID)
}

func TestRankPersonalizedAffinityOrdersPool(t *testing.T) {
	now := time.Now()
	pool := []models.CandidateItem{
		poolItem("other", "blog", "sports", time.Hour),
		poolItem("loved", "wire", "tech", time.Hour),
	}

	signals := models.NewUserSignals("u1")
	signals.CategoryWeights["tech"] = 3
	signals.SourceWeights["wire"] = 2

	ranked := RankPersonalized(pool, signals, now, DefaultParams().Personal)
	require.Len(t, ranked, 2)
	assert.Equal(t, "loved", ranked[0].Item.ID)
}

func TestRankRecentFirstFallback(t *testing.T) {
	pool := []models.CandidateItem{
		poolItem("old", "wire", "tech", 48*time.Hour),
		poolItem("read", "wire", "tech", time.Minute),
		poolItem("new", "wire", "tech", time.Hour),
	}

	signals := models.NewUserSignals("u1")
	signals.Read["read"] = struct{}{}

	out := RankRecentFirst(pool, signals)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].ID)
	assert.Equal(t, "old", out[1].ID)
}
