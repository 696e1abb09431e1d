// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Maphari/the-news-sub000/internal/httpcache"
	"github.com/Maphari/the-news-sub000/internal/middleware"
)

// RouterOptions tune the HTTP surface.
type RouterOptions struct {
	// FeedTTL is how long ranked pages stay cached.
	FeedTTL time.Duration

	// PodcastTTL is how long podcast pages stay cached.
	PodcastTTL time.Duration

	// RateLimit is the per-IP request budget per RateWindow.
	RateLimit int

	// RateWindow is the rate limiting window.
	RateWindow time.Duration

	// AllowedOrigins configures CORS. Empty means same-origin only.
	AllowedOrigins []string
}

// DefaultRouterOptions returns the production defaults.
func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		FeedTTL:    30 * time.Second,
		PodcastTTL: 5 * time.Minute,
		RateLimit:  100,
		RateWindow: time.Minute,
	}
}

// sharedScope ignores user identity; podcast pages are the same for
// everyone.
func sharedScope(*http.Request) string {
	return ""
}

// NewRouter assembles the chi router: middleware stack, cached read
// routes, mutating routes and the operational endpoints.
func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Prometheus)
	r.Use(chimiddleware.Recoverer)
	r.Use(httprate.LimitByIP(opts.RateLimit, opts.RateWindow))

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	userScope := httpcache.QueryScope("user_id")

	r.Route("/api/v1", func(r chi.Router) {
		r.With(h.respCache.Middleware(NamespaceFeed, opts.FeedTTL, userScope)).
			Get("/feed/home", h.HandleHomeFeed)
		r.With(h.respCache.Middleware(NamespaceStories, opts.FeedTTL, userScope)).
			Get("/feed/top-stories", h.HandleTopStories)
		r.With(h.respCache.Middleware(NamespaceExplore, opts.FeedTTL, userScope)).
			Get("/feed/explore", h.HandleExplore)
		r.With(h.respCache.Middleware(NamespaceSearch, opts.FeedTTL, userScope)).
			Get("/search", h.HandleSearch)
		r.With(h.respCache.Middleware(NamespaceRecommendations, opts.FeedTTL, userScope)).
			Get("/recommendations", h.HandleRecommendations)

		r.With(h.respCache.Middleware(NamespacePodcasts, opts.PodcastTTL, sharedScope)).
			Get("/podcasts/search", h.HandlePodcastSearch)
		r.With(h.respCache.Middleware(NamespacePodcasts, opts.PodcastTTL, sharedScope)).
			Get("/podcasts/trending", h.HandlePodcastTrending)
		r.With(h.respCache.Middleware(NamespacePodcasts, opts.PodcastTTL, sharedScope)).
			Get("/podcasts/{podcastID}/episodes", h.HandlePodcastEpisodes)

		r.Post("/items/{itemID}/interactions", h.HandleRecordInteraction)
		r.Post("/sources/{source}/follow", h.HandleFollowSource)
		r.Delete("/sources/{source}/follow", h.HandleFollowSource)

		r.Get("/health", h.HandleHealth)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
