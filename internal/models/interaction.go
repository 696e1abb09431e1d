// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package models

import (
	"fmt"
	"time"
)

// InteractionType classifies a behavioral signal a user left on an item.
type InteractionType string

const (
	// InteractionRead means the user opened the item.
	InteractionRead InteractionType = "read"
	// InteractionSaved means the user bookmarked the item.
	InteractionSaved InteractionType = "saved"
	// InteractionLiked means the user explicitly liked the item.
	InteractionLiked InteractionType = "liked"
	// InteractionShared means the user shared the item.
	InteractionShared InteractionType = "shared"
	// InteractionCommented means the user commented on the item.
	InteractionCommented InteractionType = "commented"
	// InteractionDisliked means the user asked to never see the item again.
	InteractionDisliked InteractionType = "disliked"
)

// ParseInteractionType validates a wire-format interaction type.
func ParseInteractionType(s string) (InteractionType, error) {
	switch InteractionType(s) {
	case InteractionRead, InteractionSaved, InteractionLiked,
		InteractionShared, InteractionCommented, InteractionDisliked:
		return InteractionType(s), nil
	default:
		return "", fmt.Errorf("unknown interaction type %q", s)
	}
}

// Interaction is a single user-item interaction event.
type Interaction struct {
	UserID     string          `json:"user_id"`
	ItemID     string          `json:"item_id"`
	Type       InteractionType `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
}
