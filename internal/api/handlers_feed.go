// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package api

import (
	"net/http"

	"github.com/Maphari/the-news-sub000/internal/feed"
)

// HandleHomeFeed serves GET /api/v1/feed/home.
func (h *Handlers) HandleHomeFeed(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	result, err := h.assembler.HomeFeed(r.Context(), userID(r), pageLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Home feed assembly failed")
		rw.InternalError("failed to assemble home feed")
		return
	}
	h.writeSurface(rw, r, result)
}

// HandleTopStories serves GET /api/v1/feed/top-stories.
func (h *Handlers) HandleTopStories(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	result, err := h.assembler.TopStories(r.Context(), userID(r), pageLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Top stories assembly failed")
		rw.InternalError("failed to assemble top stories")
		return
	}
	h.writeSurface(rw, r, result)
}

// HandleExplore serves GET /api/v1/feed/explore.
func (h *Handlers) HandleExplore(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	section := r.URL.Query().Get("section")
	if section == "" {
		rw.BadRequest("section parameter is required")
		return
	}

	result, err := h.assembler.Explore(r.Context(), section, userID(r), pageLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Str("section", section).Msg("Explore assembly failed")
		rw.InternalError("failed to assemble explore section")
		return
	}
	h.writeSurface(rw, r, result)
}

// HandleSearch serves GET /api/v1/search.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.BadRequest("q parameter is required")
		return
	}

	result, err := h.assembler.Search(r.Context(), query, userID(r), pageLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Search assembly failed")
		rw.InternalError("failed to run search")
		return
	}
	h.writeSurface(rw, r, result)
}

// HandleRecommendations serves GET /api/v1/recommendations.
func (h *Handlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	result, err := h.assembler.Recommendations(r.Context(), userID(r), pageLimit(r))
	if err != nil {
		h.logger.Error().Err(err).Msg("Recommendations assembly failed")
		rw.InternalError("failed to assemble recommendations")
		return
	}
	h.writeSurface(rw, r, result)
}

func (h *Handlers) writeSurface(rw *ResponseWriter, r *http.Request, result feed.Result) {
	rw.SuccessWithPagination(result, &PaginationMeta{
		Total: result.Total,
		Count: len(result.Items),
		Limit: pageLimit(r),
	})
}
