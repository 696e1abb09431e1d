// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package ranking

import (
	"sort"
	"strings"

	"github.com/Maphari/the-news-sub000/internal/models"
)

// SelectDiverse greedily walks a score-descending list and accepts an item
// only while the result is below target size, the item's source has been
// accepted fewer than perSourceCap times, and none of its categories has
// reached perCategoryCap. Rejected items are skipped, not deferred.
//
// The input must already be sorted (see SortByScore); the walk preserves
// its order, so ties keep their stable input order.
func SelectDiverse(ranked []ScoredItem, target int, p SelectorParams) []models.CandidateItem {
	if target <= 0 {
		return nil
	}

	selected := make([]models.CandidateItem, 0, target)
	sourceCounts := make(map[string]int)
	categoryCounts := make(map[string]int)

	for i := range ranked {
		if len(selected) >= target {
			break
		}
		item := &ranked[i].Item

		if sourceCounts[item.SourceName] >= p.PerSourceCap {
			continue
		}

		capped := false
		for _, c := range item.Categories {
			if categoryCounts[strings.ToLower(c)] >= p.PerCategoryCap {
				capped = true
				break
			}
		}
		if capped {
			continue
		}

		selected = append(selected, *item)
		sourceCounts[item.SourceName]++
		for _, c := range item.Categories {
			categoryCounts[strings.ToLower(c)]++
		}
	}

	return selected
}

// Backfill tops a short selection up to target with the most recent unused
// pool items, ignoring diversity caps. Result size is best effort at
// target: a capped-out greedy pass never silently returns a short list
// while candidates remain.
func Backfill(selected []models.CandidateItem, pool []models.CandidateItem, target int) []models.CandidateItem {
	if len(selected) >= target {
		return selected
	}

	used := make(map[string]struct{}, len(selected))
	for i := range selected {
		used[selected[i].ID] = struct{}{}
	}

	rest := make([]models.CandidateItem, 0, len(pool))
	for i := range pool {
		if _, ok := used[pool[i].ID]; ok {
			continue
		}
		rest = append(rest, pool[i])
	}
	SortRecentFirst(rest)

	for i := range rest {
		if len(selected) >= target {
			break
		}
		selected = append(selected, rest[i])
	}
	return selected
}

// SortRecentFirst stable-sorts items by descending publication time.
func SortRecentFirst(items []models.CandidateItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
}
