// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Maphari/the-news-sub000/internal/feed"
	"github.com/Maphari/the-news-sub000/internal/httpcache"
	"github.com/Maphari/the-news-sub000/internal/podcast"
	"github.com/Maphari/the-news-sub000/internal/store"
)

// Cache namespaces, one per endpoint family. Interactions invalidate the
// acting user's entries across all ranked namespaces.
const (
	NamespaceFeed            = "feed"
	NamespaceStories         = "stories"
	NamespaceExplore         = "explore"
	NamespaceSearch          = "search"
	NamespaceRecommendations = "recs"
	NamespacePodcasts        = "podcasts"
)

// rankedNamespaces are the namespaces whose cached pages depend on the
// acting user's behavior.
var rankedNamespaces = []string{
	NamespaceFeed,
	NamespaceStories,
	NamespaceExplore,
	NamespaceSearch,
	NamespaceRecommendations,
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Handlers bundles the services the API serves.
type Handlers struct {
	assembler    *feed.Assembler
	discovery    *podcast.Discovery
	interactions store.InteractionStore
	respCache    *httpcache.ResponseCache
	logger       zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	assembler *feed.Assembler,
	discovery *podcast.Discovery,
	interactions store.InteractionStore,
	respCache *httpcache.ResponseCache,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		assembler:    assembler,
		discovery:    discovery,
		interactions: interactions,
		respCache:    respCache,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// pageLimit parses the limit query parameter, clamped to [1, maxPageLimit].
func pageLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultPageLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

func userID(r *http.Request) string {
	return r.URL.Query().Get("user_id")
}
