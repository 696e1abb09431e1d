// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package models

// UserSignals is the per-user aggregate derived from interaction history.
// It is rebuilt fresh for every ranking request and never persisted; the
// document store owns the raw interaction events it is derived from.
type UserSignals struct {
	UserID string

	// Disliked items are excluded from every surface before scoring.
	Disliked map[string]struct{}

	// Read items are excluded from home and recommendation surfaces.
	Read map[string]struct{}

	// FollowedSources are sources the user explicitly follows.
	FollowedSources map[string]struct{}

	// Affinity weights accumulated from weighted interaction types.
	// All values are non-negative.
	CategoryWeights map[string]float64
	SourceWeights   map[string]float64
	KeywordWeights  map[string]float64
}

// NewUserSignals returns an empty signal set for the given user.
func NewUserSignals(userID string) *UserSignals {
	return &UserSignals{
		UserID:          userID,
		Disliked:        make(map[string]struct{}),
		Read:            make(map[string]struct{}),
		FollowedSources: make(map[string]struct{}),
		CategoryWeights: make(map[string]float64),
		SourceWeights:   make(map[string]float64),
		KeywordWeights:  make(map[string]float64),
	}
}

// HasBehavior reports whether the user produced any signal that
// personalization could act on. Users without behavior short-circuit to the
// recency-only fallback instead of being scored against empty weight maps.
func (s *UserSignals) HasBehavior() bool {
	if s == nil {
		return false
	}
	return len(s.CategoryWeights) > 0 ||
		len(s.SourceWeights) > 0 ||
		len(s.KeywordWeights) > 0 ||
		len(s.FollowedSources) > 0
}

// IsDisliked reports whether the user disliked the given item.
func (s *UserSignals) IsDisliked(itemID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Disliked[itemID]
	return ok
}

// IsRead reports whether the user already read the given item.
func (s *UserSignals) IsRead(itemID string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Read[itemID]
	return ok
}
