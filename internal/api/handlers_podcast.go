// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HandlePodcastSearch serves GET /api/v1/podcasts/search.
func (h *Handlers) HandlePodcastSearch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.BadRequest("q parameter is required")
		return
	}

	limit := pageLimit(r)
	items, err := h.discovery.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Podcast search failed")
		rw.ServiceUnavailable("podcast search is unavailable")
		return
	}
	rw.SuccessWithPagination(items, &PaginationMeta{Count: len(items), Limit: limit})
}

// HandlePodcastTrending serves GET /api/v1/podcasts/trending.
func (h *Handlers) HandlePodcastTrending(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := pageLimit(r)
	items, err := h.discovery.Trending(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Podcast trending lookup failed")
		rw.ServiceUnavailable("trending podcasts are unavailable")
		return
	}
	rw.SuccessWithPagination(items, &PaginationMeta{Count: len(items), Limit: limit})
}

// HandlePodcastEpisodes serves GET /api/v1/podcasts/{podcastID}/episodes.
func (h *Handlers) HandlePodcastEpisodes(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	podcastID := chi.URLParam(r, "podcastID")
	if podcastID == "" {
		rw.BadRequest("podcast id is required")
		return
	}

	limit := pageLimit(r)
	items, err := h.discovery.Episodes(r.Context(), podcastID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("podcast_id", podcastID).Msg("Episode lookup failed")
		rw.ServiceUnavailable("podcast episodes are unavailable")
		return
	}
	rw.SuccessWithPagination(items, &PaginationMeta{Count: len(items), Limit: limit})
}
