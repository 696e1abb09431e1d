// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Maphari/the-news-sub000/internal/models"
)

// interactionRequest is the POST body for recording an interaction.
type interactionRequest struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

// HandleRecordInteraction serves POST /api/v1/items/{itemID}/interactions.
// Recording succeeds first, then the user's cached ranked pages are
// invalidated so the next read reflects the new signal.
func (h *Handlers) HandleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		rw.BadRequest("item id is required")
		return
	}

	var req interactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid request body")
		return
	}
	if req.UserID == "" {
		rw.BadRequest("user_id is required")
		return
	}

	interactionType, err := models.ParseInteractionType(req.Type)
	if err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	interaction := models.Interaction{
		UserID:     req.UserID,
		ItemID:     itemID,
		Type:       interactionType,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.interactions.RecordInteraction(r.Context(), interaction); err != nil {
		h.logger.Error().Err(err).Str("item_id", itemID).Msg("Failed to record interaction")
		rw.InternalError("failed to record interaction")
		return
	}

	dropped := h.respCache.InvalidateUsers(rankedNamespaces, req.UserID)
	h.logger.Debug().
		Str("user_id", req.UserID).
		Str("type", string(interactionType)).
		Int("invalidated", dropped).
		Msg("Interaction recorded")

	rw.Success(map[string]interface{}{
		"item_id": itemID,
		"type":    string(interactionType),
	})
}

// HandleFollowSource serves POST /api/v1/sources/{source}/follow and
// DELETE /api/v1/sources/{source}/follow.
func (h *Handlers) HandleFollowSource(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	source := chi.URLParam(r, "source")
	if source == "" {
		rw.BadRequest("source is required")
		return
	}
	uid := userID(r)
	if uid == "" {
		rw.BadRequest("user_id parameter is required")
		return
	}

	followed := r.Method == http.MethodPost
	if err := h.interactions.SetFollow(r.Context(), uid, source, followed); err != nil {
		h.logger.Error().Err(err).Str("source", source).Msg("Failed to update follow")
		rw.InternalError("failed to update follow")
		return
	}

	h.respCache.InvalidateUsers(rankedNamespaces, uid)

	rw.Success(map[string]interface{}{
		"source":   source,
		"followed": followed,
	})
}
