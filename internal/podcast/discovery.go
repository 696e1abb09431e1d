// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package podcast

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Maphari/the-news-sub000/internal/fetchcache"
	"github.com/Maphari/the-news-sub000/internal/models"
	"github.com/Maphari/the-news-sub000/internal/ranking"
	"github.com/Maphari/the-news-sub000/internal/store"
)

// Options tune the discovery service.
type Options struct {
	// TTL is how long provider results stay served from cache.
	TTL time.Duration

	// Cooldown is how long a failed or empty provider lookup suppresses
	// retries for the same key.
	Cooldown time.Duration

	// PoolSize bounds the store read backing the fallback paths.
	PoolSize int

	// Params are the ranking constants used by the fallback ordering.
	Params ranking.Params
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		TTL:      15 * time.Minute,
		Cooldown: 2 * time.Minute,
		PoolSize: 500,
		Params:   ranking.DefaultParams(),
	}
}

// Discovery serves podcast search, trending and episode lookups. Provider
// results flow through per-operation fetch caches; whenever the provider
// yields nothing (cooldown, open breaker, empty result, timeout) the
// document store's podcast items serve as the fallback.
type Discovery struct {
	provider Provider
	store    store.ItemStore
	opts     Options
	logger   zerolog.Logger

	searchCache   *fetchcache.Cache[models.CandidateItem]
	trendingCache *fetchcache.Cache[models.CandidateItem]
	episodeCache  *fetchcache.Cache[models.CandidateItem]
}

// NewDiscovery creates the discovery service.
func NewDiscovery(provider Provider, st store.ItemStore, opts Options, logger zerolog.Logger) *Discovery {
	log := logger.With().Str("component", "podcast-discovery").Logger()
	return &Discovery{
		provider:      provider,
		store:         st,
		opts:          opts,
		logger:        log,
		searchCache:   fetchcache.New[models.CandidateItem]("podcast-search", opts.TTL, opts.Cooldown, log),
		trendingCache: fetchcache.New[models.CandidateItem]("podcast-trending", opts.TTL, opts.Cooldown, log),
		episodeCache:  fetchcache.New[models.CandidateItem]("podcast-episodes", opts.TTL, opts.Cooldown, log),
	}
}

// Search finds podcasts for a query, provider-first with store fallback.
func (d *Discovery) Search(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	key := "q:" + strings.ToLower(strings.TrimSpace(query))

	items := d.searchCache.Fetch(ctx, key, func(ctx context.Context) ([]models.CandidateItem, error) {
		found, err := d.provider.SearchPodcasts(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		d.persist(ctx, found)
		return found, nil
	})
	if len(items) > 0 {
		return capLen(items, limit), nil
	}

	return d.searchFallback(ctx, query, limit)
}

// Trending returns the trending list, provider-first with store fallback.
func (d *Discovery) Trending(ctx context.Context, limit int) ([]models.CandidateItem, error) {
	items := d.trendingCache.Fetch(ctx, "trending", func(ctx context.Context) ([]models.CandidateItem, error) {
		found, err := d.provider.TrendingPodcasts(ctx, limit)
		if err != nil {
			return nil, err
		}
		d.persist(ctx, found)
		return found, nil
	})
	if len(items) > 0 {
		return capLen(items, limit), nil
	}

	return d.trendingFallback(ctx, limit)
}

// Episodes returns recent episodes of a podcast, provider-first with store
// fallback.
func (d *Discovery) Episodes(ctx context.Context, podcastID string, limit int) ([]models.CandidateItem, error) {
	items := d.episodeCache.Fetch(ctx, "p:"+podcastID, func(ctx context.Context) ([]models.CandidateItem, error) {
		found, err := d.provider.PodcastEpisodes(ctx, podcastID, limit)
		if err != nil {
			return nil, err
		}
		d.persist(ctx, found)
		return found, nil
	})
	if len(items) > 0 {
		return capLen(items, limit), nil
	}

	return d.episodesFallback(ctx, podcastID, limit)
}

// persist writes provider results into the document store so later
// fallbacks have material. Best effort.
func (d *Discovery) persist(ctx context.Context, items []models.CandidateItem) {
	if len(items) == 0 {
		return
	}
	if err := d.store.PutItems(ctx, items); err != nil {
		d.logger.Warn().Err(err).Int("count", len(items)).Msg("Failed to persist provider results")
	}
}

// podcastPool reads the store's recent items and keeps podcast content.
func (d *Discovery) podcastPool(ctx context.Context) ([]models.CandidateItem, error) {
	pool, err := d.store.RecentItems(ctx, d.opts.PoolSize)
	if err != nil {
		return nil, err
	}

	out := make([]models.CandidateItem, 0, len(pool))
	for _, item := range pool {
		if item.Kind == models.KindPodcast || item.Kind == models.KindEpisode {
			out = append(out, item)
		}
	}
	return out, nil
}

func (d *Discovery) searchFallback(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	pool, err := d.podcastPool(ctx)
	if err != nil {
		return nil, err
	}

	ranked := ranking.RankByQuery(pool, query, nil, time.Now(), d.opts.Params.Query)
	items := make([]models.CandidateItem, 0, limit)
	for i := range ranked {
		if len(items) >= limit {
			break
		}
		items = append(items, ranked[i].Item)
	}
	d.logger.Debug().Str("query", query).Int("count", len(items)).Msg("Served podcast search from store fallback")
	return items, nil
}

func (d *Discovery) trendingFallback(ctx context.Context, limit int) ([]models.CandidateItem, error) {
	pool, err := d.podcastPool(ctx)
	if err != nil {
		return nil, err
	}

	shows := make([]models.CandidateItem, 0, len(pool))
	for _, item := range pool {
		if item.Kind == models.KindPodcast {
			shows = append(shows, item)
		}
	}

	// Recency plus popularity, the same ordering top stories uses.
	ranked := ranking.RankPersonalized(shows, nil, time.Now(), d.opts.Params.Personal)
	items := make([]models.CandidateItem, 0, limit)
	for i := range ranked {
		if len(items) >= limit {
			break
		}
		items = append(items, ranked[i].Item)
	}
	return items, nil
}

func (d *Discovery) episodesFallback(ctx context.Context, podcastID string, limit int) ([]models.CandidateItem, error) {
	pool, err := d.podcastPool(ctx)
	if err != nil {
		return nil, err
	}

	episodes := make([]models.CandidateItem, 0, limit)
	for _, item := range pool {
		if item.Kind == models.KindEpisode && item.ParentID == podcastID {
			episodes = append(episodes, item)
		}
	}
	ranking.SortRecentFirst(episodes)
	return capLen(episodes, limit), nil
}

func capLen(items []models.CandidateItem, limit int) []models.CandidateItem {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
