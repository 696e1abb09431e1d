// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package store provides the document store for candidate items, user
// interactions and source follows, backed by BadgerDB. All reads go
// through small interfaces so the feed assembler and handlers never touch
// the key layout.
package store

import (
	"context"

	"github.com/Maphari/the-news-sub000/internal/models"
)

const (
	// maxIDChunk bounds how many item ids one lookup transaction touches.
	maxIDChunk = 10

	// maxWriteBatch bounds how many items one write transaction carries.
	maxWriteBatch = 500
)

// ItemStore is the read/write surface for candidate items.
type ItemStore interface {
	// RecentItems returns up to limit items, most recent first.
	RecentItems(ctx context.Context, limit int) ([]models.CandidateItem, error)

	// ItemsByIDs resolves items by id. Missing ids are silently absent
	// from the result, never an error.
	ItemsByIDs(ctx context.Context, ids []string) (map[string]models.CandidateItem, error)

	// ItemsBySource returns up to limit items from one source, most
	// recent first. Source comparison is case-insensitive.
	ItemsBySource(ctx context.Context, source string, limit int) ([]models.CandidateItem, error)

	// ItemsByCategory returns up to limit items carrying one category,
	// most recent first. Category comparison is case-insensitive.
	ItemsByCategory(ctx context.Context, category string, limit int) ([]models.CandidateItem, error)

	// PutItems upserts items, including their time and field indexes.
	PutItems(ctx context.Context, items []models.CandidateItem) error
}

// InteractionStore is the read/write surface for user behavior.
type InteractionStore interface {
	// Interactions returns up to limit of the user's interactions, most
	// recent first.
	Interactions(ctx context.Context, userID string, limit int) ([]models.Interaction, error)

	// DislikedItemIDs returns the set of item ids the user disliked.
	DislikedItemIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// ReadItemIDs returns the set of item ids the user read.
	ReadItemIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// FollowedSources returns the set of sources the user follows.
	FollowedSources(ctx context.Context, userID string) (map[string]struct{}, error)

	// RecordInteraction appends one interaction event.
	RecordInteraction(ctx context.Context, in models.Interaction) error

	// SetFollow records or removes a source follow.
	SetFollow(ctx context.Context, userID, source string, followed bool) error
}

// Store is the full document store surface.
type Store interface {
	ItemStore
	InteractionStore
}
