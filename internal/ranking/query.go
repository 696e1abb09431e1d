// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Maphari/the-news-sub000/internal/models"
)

// ScoredItem pairs a candidate with its computed relevance score for one
// ranking pass. Transient: produced and consumed within a single request.
type ScoredItem struct {
	Item  models.CandidateItem `json:"item"`
	Score float64              `json:"score"`
}

// SortByScore stable-sorts scored items by descending score. Stability is
// load-bearing: ties keep their original relative order so identical inputs
// always rank identically.
func SortByScore(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// ScoreQuery computes the query relevance score of one item. Pure and
// deterministic. Returns 0 for items that do not match; the recency boost
// never lifts a non-matching item above the exclusion threshold.
func ScoreQuery(item *models.CandidateItem, query string, now time.Time, p QueryParams) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	title := strings.ToLower(item.Title)
	description := strings.ToLower(item.Description)
	source := strings.ToLower(item.SourceName)
	keywords := strings.ToLower(strings.Join(item.Keywords, " "))

	score := 0.0

	// Full-query match against the title, cumulative by specificity.
	if title == q {
		score += p.ExactMatchWeight
	}
	if strings.HasPrefix(title, q) {
		score += p.PrefixMatchWeight
	}
	if strings.Contains(title, q) {
		score += p.SubstringMatchWeight
	}

	// Per-token substring matches across fields, decreasing weight by field.
	for _, tok := range Tokenize(query) {
		if strings.Contains(title, tok) {
			score += p.TitleTokenWeight
		}
		if strings.Contains(description, tok) {
			score += p.DescriptionTokenWeight
		}
		if strings.Contains(source, tok) {
			score += p.SourceTokenWeight
		}
		if strings.Contains(keywords, tok) {
			score += p.KeywordTokenWeight
		}
	}

	if score <= 0 {
		return 0
	}

	return score + math.Exp(-item.AgeHours(now)/p.RecencyTauHours)*p.RecencyBoostWeight
}

// RankByQuery scores a candidate pool against a query and returns the
// matching items in descending score order. Items scoring <= 0 are
// excluded. Items the user disliked are excluded before scoring.
func RankByQuery(pool []models.CandidateItem, query string, signals *models.UserSignals, now time.Time, p QueryParams) []ScoredItem {
	ranked := make([]ScoredItem, 0, len(pool))
	for i := range pool {
		item := &pool[i]
		if signals.IsDisliked(item.ID) {
			continue
		}
		if score := ScoreQuery(item, query, now, p); score > 0 {
			ranked = append(ranked, ScoredItem{Item: *item, Score: score})
		}
	}
	SortByScore(ranked)
	return ranked
}
