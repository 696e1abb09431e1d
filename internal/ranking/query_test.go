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

func testItem(id, title string) models.CandidateItem {
	return models.CandidateItem{
		ID:          id,
		Title:       title,
		SourceName:  "wire",
		PublishedAt: time.Now().Add(-2 * time.Hour),
	}
}

func TestScoreQueryMatchSpecificityOrdering(t *testing.T) {
	now := time.Now()
	p := DefaultParams().Query

	exact := testItem("1", "bitcoin")
	contains := testItem("2", "the week in bitcoin markets")
	keywordOnly := testItem("3", "crypto weekly digest")
	keywordOnly.Keywords = []string{"bitcoin"}

	exactScore := ScoreQuery(&exact, "bitcoin", now, p)
	containsScore := ScoreQuery(&contains, "bitcoin", now, p)
	keywordScore := ScoreQuery(&keywordOnly, "bitcoin", now, p)

	assert.Greater(t, exactScore, containsScore,
		"exact title match must outscore a title that merely contains the query")
	assert.Greater(t, containsScore, keywordScore,
		"title substring match must outscore a keyword-field-only match")
	assert.Greater(t, keywordScore, 0.0)
}

func TestScoreQueryNonMatchExcluded(t *testing.T) {
	now := time.Now()
	p := DefaultParams().Query

	item := testItem("1", "central bank rates")
	score := ScoreQuery(&item, "bitcoin", now, p)
	assert.Zero(t, score, "non-matching item must score 0, recency boost does not apply")
}

func TestScoreQueryEmptyQuery(t *testing.T) {
	item := testItem("1", "anything")
	assert.Zero(t, ScoreQuery(&item, "   ", time.Now(), DefaultParams().Query))
}

func TestScoreQueryRecencyBoost(t *testing.T) {
	now := time.Now()
	p := DefaultParams().Query

	fresh := testItem("1", "bitcoin rally continues")
	stale := testItem("2", "bitcoin rally continues")
	stale.PublishedAt = now.Add(-30 * 24 * time.Hour)

	assert.Greater(t, ScoreQuery(&fresh, "bitcoin", now, p), ScoreQuery(&stale, "bitcoin", now, p),
		"identical match quality must rank the fresher item higher")
}

func TestRankByQueryExcludesDisliked(t *testing.T) {
	now := time.Now()
	pool := []models.CandidateItem{
		testItem("best", "bitcoin"),
		testItem("other", "bitcoin outlook"),
	}

	signals := models.NewUserSignals("u1")
	signals.Disliked["best"] = struct{}{}

	ranked := RankByQuery(pool, "bitcoin", signals, now, DefaultParams().Query)
	require.Len(t, ranked, 1)
	assert.Equal(t, "other", ranked[0].Item.ID,
		"a disliked item never appears even when it scores highest")
}

func TestRankByQueryIdempotent(t *testing.T) {
	now := time.Now()
	pool := []models.CandidateItem{
		testItem("1", "bitcoin hits new high"),
		testItem("2", "bitcoin miners expand"),
		testItem("3", "ethereum upgrade ships"),
		testItem("4", "bitcoin etf inflows"),
	}
	signals := models.NewUserSignals("u1")

	first := RankByQuery(pool, "bitcoin", signals, now, DefaultParams().Query)
	second := RankByQuery(pool, "bitcoin", signals, now, DefaultParams().Query)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Item.ID, second[i].Item.ID, "ranking must be deterministic")
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestRankByQueryTiesKeepInputOrder(t *testing.T) {
	now := time.Now()
	published := now.Add(-1 * time.Hour)

	pool := make([]models.CandidateItem, 0, 4)
	for _, id := range []string{"a", "b", "c", "d"} {
		item := testItem(id, "bitcoin daily briefing")
		item.PublishedAt = published
		pool = append(pool, item)
	}

	ranked := RankByQuery(pool, "bitcoin", models.NewUserSignals("u1"), now, DefaultParams().Query)
	require.Len(t, ranked, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, ranked[i].Item.ID, "equal scores keep stable input order")
	}
}
