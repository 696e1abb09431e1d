// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package models defines the shared domain types: candidate items, user
// interactions and the per-request signal aggregates the ranking engine
// consumes. Types here carry no behavior beyond small accessors so that
// every other package can depend on them without import cycles.
package models

import "time"

// ItemKind distinguishes the content types held in the shared item pool.
type ItemKind string

const (
	// KindArticle is a regular news article.
	KindArticle ItemKind = "article"
	// KindPodcast is a podcast show entry.
	KindPodcast ItemKind = "podcast"
	// KindEpisode is a single podcast episode.
	KindEpisode ItemKind = "episode"
)

// CandidateItem is one entry of the candidate pool a ranking pass operates
// on. It is treated as immutable for the duration of a pass.
type CandidateItem struct {
	// ID is unique within the pool.
	ID string `json:"id"`

	// Kind classifies the item (article, podcast, episode).
	Kind ItemKind `json:"kind"`

	// Title, Description and Keywords are the free-text fields used for
	// tokenization and query matching.
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`

	// SourceName identifies the publisher or podcast author.
	SourceName string `json:"source_name"`

	// Categories is the set of topic labels attached to the item.
	Categories []string `json:"categories,omitempty"`

	// URL points at the canonical content location.
	URL string `json:"url,omitempty"`

	// ImageURL points at preview artwork, when available.
	ImageURL string `json:"image_url,omitempty"`

	// PublishedAt is the publication instant used for recency scoring.
	PublishedAt time.Time `json:"published_at"`

	// Engagement counters. Always non-negative.
	Likes    int64 `json:"likes"`
	Shares   int64 `json:"shares"`
	Comments int64 `json:"comments"`

	// ParentID links an episode to its podcast. Empty for other kinds.
	ParentID string `json:"parent_id,omitempty"`
}

// AgeHours returns the item age relative to now, in hours, floored at zero
// so that items with a future publication date get no artificial boost.
func (i *CandidateItem) AgeHours(now time.Time) float64 {
	age := now.Sub(i.PublishedAt).Hours()
	if age < 0 {
		return 0
	}
	return age
}
