// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package ranking

import (
	"math"
	"strings"
	"time"

	"github.com/Maphari/the-news-sub000/internal/models"
)

// BuildSignals folds a user's interaction history into the per-request
// signal aggregate. Interacted items must be supplied by id so their
// categories, source and tokens can be attributed; interactions whose item
// is no longer in the store contribute nothing to the affinity maps but
// still register exclusions.
func BuildSignals(
	userID string,
	interactions []models.Interaction,
	itemsByID map[string]models.CandidateItem,
	followedSources map[string]struct{},
	w SignalWeights,
) *models.UserSignals {
	signals := models.NewUserSignals(userID)

	for source := range followedSources {
		signals.FollowedSources[source] = struct{}{}
		signals.SourceWeights[source] += w.FollowBonus
	}

	for _, in := range interactions {
		switch in.Type {
		case models.InteractionDisliked:
			signals.Disliked[in.ItemID] = struct{}{}
			continue
		case models.InteractionRead:
			signals.Read[in.ItemID] = struct{}{}
		}

		item, ok := itemsByID[in.ItemID]
		if !ok {
			continue
		}

		weight := w.weightFor(string(in.Type))
		for _, category := range item.Categories {
			signals.CategoryWeights[strings.ToLower(category)] += weight
		}
		signals.SourceWeights[item.SourceName] += weight
		for _, tok := range ItemTokens(&item) {
			signals.KeywordWeights[tok] += weight
		}
	}

	return signals
}

// ScorePersonal computes the personalization score of one item for one
// user. Pure and deterministic. With empty signals it degrades to a
// recency-plus-popularity score, which is exactly the top-stories formula.
func ScorePersonal(item *models.CandidateItem, signals *models.UserSignals, now time.Time, p PersonalParams) float64 {
	score := math.Exp(-item.AgeHours(now)/p.RecencyTauHours) * p.RecencyWeight

	engagement := float64(item.Likes) + 2*float64(item.Shares) + 1.5*float64(item.Comments)
	score += math.Log(1+engagement) * p.PopularityWeight

	if signals == nil {
		return score
	}

	category := 0.0
	for _, c := range item.Categories {
		category += signals.CategoryWeights[strings.ToLower(c)]
	}
	if category > p.CategoryAffinityCap {
		category = p.CategoryAffinityCap
	}
	score += category

	score += signals.SourceWeights[item.SourceName]
	if _, followed := signals.FollowedSources[item.SourceName]; followed {
		score += p.SourceFollowBonus
	}

	keyword := 0.0
	for _, tok := range ItemTokens(item) {
		keyword += signals.KeywordWeights[tok]
	}
	if keyword > p.KeywordAffinityCap {
		keyword = p.KeywordAffinityCap
	}
	score += keyword

	return score
}

// RankPersonalized scores a candidate pool for a user and returns it in
// descending score order. Disliked and already-read items are excluded
// before scoring, not merely down-ranked.
func RankPersonalized(pool []models.CandidateItem, signals *models.UserSignals, now time.Time, p PersonalParams) []ScoredItem {
	ranked := make([]ScoredItem, 0, len(pool))
	for i := range pool {
		item := &pool[i]
		if signals.IsDisliked(item.ID) || signals.IsRead(item.ID) {
			continue
		}
		ranked = append(ranked, ScoredItem{
			Item:  *item,
			Score: ScorePersonal(item, signals, now, p),
		})
	}
	SortByScore(ranked)
	return ranked
}

// RankRecentFirst orders a pool most-recent-first, excluding disliked and
// read items. This is the fallback path for users without signals and for
// degraded signal collection.
func RankRecentFirst(pool []models.CandidateItem, signals *models.UserSignals) []models.CandidateItem {
	out := make([]models.CandidateItem, 0, len(pool))
	for i := range pool {
		if signals.IsDisliked(pool[i].ID) || signals.IsRead(pool[i].ID) {
			continue
		}
		out = append(out, pool[i])
	}
	SortRecentFirst(out)
	return out
}
