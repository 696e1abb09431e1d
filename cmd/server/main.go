// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package main is the entry point for the feed ranking server.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file and NEWS_* environment
//     variables (Koanf v2)
//  2. Store: BadgerDB document store holding items and interactions
//  3. Caches: process-local TTL cache backing the HTTP response cache
//  4. Feed assembler and podcast discovery services
//  5. HTTP API: chi router with per-user response caching
//  6. Supervisor tree: maintenance services and the HTTP listener
//
// Graceful shutdown is handled on SIGINT and SIGTERM: the listener
// stops accepting connections, in-flight requests get the configured
// shutdown window, and the store is closed last.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Maphari/the-news-sub000/internal/api"
	"github.com/Maphari/the-news-sub000/internal/cache"
	"github.com/Maphari/the-news-sub000/internal/config"
	"github.com/Maphari/the-news-sub000/internal/feed"
	"github.com/Maphari/the-news-sub000/internal/httpcache"
	"github.com/Maphari/the-news-sub000/internal/logging"
	"github.com/Maphari/the-news-sub000/internal/podcast"
	"github.com/Maphari/the-news-sub000/internal/store"
	"github.com/Maphari/the-news-sub000/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})
	logger := logging.Logger()

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store_path", cfg.Store.Path).
		Msg("Starting the-news-sub")

	db, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing store")
		}
	}()
	st := store.NewBadgerStore(db, logger)

	responseCache := cache.New("responses", cfg.Cache.ResponseTTL)
	respCache := httpcache.New(responseCache, logger)

	assembler := feed.NewAssembler(st, feed.Options{
		SignalTimeout:    cfg.Feed.SignalTimeout,
		PoolSize:         cfg.Feed.PoolSize,
		InteractionLimit: cfg.Feed.InteractionLimit,
		Params:           cfg.Feed.Ranking,
	}, logger)

	provider := podcast.NewHTTPProvider(cfg.Podcast.BaseURL, cfg.Podcast.APIKey, cfg.Podcast.Timeout, logger)
	resilient := podcast.NewResilientProvider(provider, cfg.Podcast.RatePerSecond, cfg.Podcast.Burst, logger)
	discovery := podcast.NewDiscovery(resilient, st, podcast.Options{
		TTL:      cfg.Podcast.TTL,
		Cooldown: cfg.Podcast.Cooldown,
		PoolSize: cfg.Feed.PoolSize,
		Params:   cfg.Feed.Ranking,
	}, logger)

	handlers := api.NewHandlers(assembler, discovery, st, respCache, logger)
	router := api.NewRouter(handlers, api.RouterOptions{
		FeedTTL:        cfg.Cache.ResponseTTL,
		PodcastTTL:     cfg.Cache.PodcastTTL,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())

	tree.AddMaintenanceService(cache.NewJanitor(cfg.Cache.JanitorInterval, logger, responseCache))
	tree.AddMaintenanceService(store.NewGC(db, cfg.Store.GCInterval, logger))
	tree.AddMaintenanceService(podcast.NewPrewarmer(discovery, cfg.Podcast.PrewarmInterval, cfg.Podcast.PrewarmLimit, logger))

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPServer(httpServer, cfg.Server.ShutdownTimeout, logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !isShutdown(ctx) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("Shutdown complete")
}

// isShutdown reports whether the context ended because a shutdown
// signal was received, as opposed to a supervisor failure.
func isShutdown(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
