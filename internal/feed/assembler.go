// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package feed assembles ranked surfaces from the candidate pool. Every
// surface follows the same request pipeline: collect the user's signals,
// score the pool, select a diverse page, respond. When signal collection
// degrades the pipeline falls back to a recency ordering instead of
// failing the request.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Maphari/the-news-sub000/internal/metrics"
	"github.com/Maphari/the-news-sub000/internal/models"
	"github.com/Maphari/the-news-sub000/internal/ranking"
	"github.com/Maphari/the-news-sub000/internal/store"
)

// Surface names, used for routing, metrics labels and cache namespaces.
const (
	SurfaceHome            = "home"
	SurfaceTopStories      = "top_stories"
	SurfaceExplore         = "explore"
	SurfaceSearch          = "search"
	SurfaceRecommendations = "recommendations"
)

// Fallback reasons recorded on the fallback metric.
const (
	reasonNoSignals     = "no_signals"
	reasonSignalTimeout = "signal_timeout"
	reasonSignalError   = "signal_error"
)

// Recency decay constants per surface, in hours. Home presses harder on
// freshness than recommendations.
const (
	homeTauHours           = 24.0
	recommendationTauHours = 36.0
)

// Options tune the assembler.
type Options struct {
	// SignalTimeout bounds the signal collection fan-out per request.
	SignalTimeout time.Duration

	// PoolSize is how many candidates each surface pulls from the store.
	PoolSize int

	// InteractionLimit caps how much history feeds signal building.
	InteractionLimit int

	// Params are the ranking engine constants.
	Params ranking.Params
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		SignalTimeout:    7 * time.Second,
		PoolSize:         500,
		InteractionLimit: 200,
		Params:           ranking.DefaultParams(),
	}
}

// Result is one assembled surface page.
type Result struct {
	Surface string                 `json:"surface"`
	Items   []models.CandidateItem `json:"items"`

	// Total counts the eligible candidates before page truncation.
	Total int `json:"total"`

	// Personalized reports whether behavioral scoring was applied.
	Personalized bool `json:"personalized"`

	// Fallback reports that the recency ordering served this page.
	Fallback bool `json:"fallback"`
}

// Assembler builds every ranked surface on top of the document store and
// the ranking engine. Stateless apart from configuration; safe for
// concurrent use.
type Assembler struct {
	store  store.Store
	opts   Options
	logger zerolog.Logger
}

// NewAssembler creates a feed assembler.
func NewAssembler(st store.Store, opts Options, logger zerolog.Logger) *Assembler {
	if opts.SignalTimeout <= 0 {
		opts.SignalTimeout = DefaultOptions().SignalTimeout
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultOptions().PoolSize
	}
	if opts.InteractionLimit <= 0 {
		opts.InteractionLimit = DefaultOptions().InteractionLimit
	}
	return &Assembler{
		store:  st,
		opts:   opts,
		logger: logger.With().Str("component", "feed").Logger(),
	}
}

// HomeFeed assembles the personalized home surface. Users without behavior
// and degraded signal collection get the recency fallback; only a failed
// candidate pool read is an error.
func (a *Assembler) HomeFeed(ctx context.Context, userID string, limit int) (Result, error) {
	return a.personalizedSurface(ctx, SurfaceHome, userID, limit, homeTauHours)
}

// Recommendations assembles the recommendation surface. Identical pipeline
// to home with a slower recency decay.
func (a *Assembler) Recommendations(ctx context.Context, userID string, limit int) (Result, error) {
	return a.personalizedSurface(ctx, SurfaceRecommendations, userID, limit, recommendationTauHours)
}

func (a *Assembler) personalizedSurface(ctx context.Context, surface, userID string, limit int, tauHours float64) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues(surface).Observe(time.Since(start).Seconds())
	}()

	pool, err := a.store.RecentItems(ctx, a.opts.PoolSize)
	if err != nil {
		return Result{}, err
	}
	metrics.RankingCandidates.WithLabelValues(surface).Observe(float64(len(pool)))

	signals, sigErr := a.collectSignals(ctx, userID)
	if sigErr != nil {
		return a.fallback(surface, fallbackReason(sigErr), pool, signals, limit), nil
	}
	if !signals.HasBehavior() {
		return a.fallback(surface, reasonNoSignals, pool, signals, limit), nil
	}

	ranked := ranking.RankPersonalized(pool, signals, time.Now(), a.opts.Params.Personal.WithTau(tauHours))
	items := a.selectPage(ranked, limit)
	return Result{
		Surface:      surface,
		Items:        items,
		Total:        len(ranked),
		Personalized: true,
	}, nil
}

// TopStories assembles the popularity-plus-recency surface. It is not
// personalized, but the user's dislikes are still honored.
func (a *Assembler) TopStories(ctx context.Context, userID string, limit int) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues(SurfaceTopStories).Observe(time.Since(start).Seconds())
	}()

	pool, err := a.store.RecentItems(ctx, a.opts.PoolSize)
	if err != nil {
		return Result{}, err
	}
	metrics.RankingCandidates.WithLabelValues(SurfaceTopStories).Observe(float64(len(pool)))

	signals := a.exclusionsOnly(ctx, userID)

	ranked := ranking.RankPersonalized(pool, signals, time.Now(), a.opts.Params.Personal)
	items := a.selectPage(ranked, limit)
	return Result{
		Surface: SurfaceTopStories,
		Items:   items,
		Total:   len(ranked),
	}, nil
}

// Explore assembles one per-category section. Personalized when the user
// has behavior; read items stay eligible so sections remain browsable.
func (a *Assembler) Explore(ctx context.Context, section, userID string, limit int) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues(SurfaceExplore).Observe(time.Since(start).Seconds())
	}()

	pool, err := a.store.ItemsByCategory(ctx, section, a.opts.PoolSize)
	if err != nil {
		return Result{}, err
	}
	metrics.RankingCandidates.WithLabelValues(SurfaceExplore).Observe(float64(len(pool)))

	signals, sigErr := a.collectSignals(ctx, userID)
	if sigErr != nil {
		return a.fallback(SurfaceExplore, fallbackReason(sigErr), pool, signals, limit), nil
	}

	// Explore does not hide already-read items, only disliked ones.
	signals.Read = make(map[string]struct{})

	if !signals.HasBehavior() {
		return a.fallback(SurfaceExplore, reasonNoSignals, pool, signals, limit), nil
	}

	ranked := ranking.RankPersonalized(pool, signals, time.Now(), a.opts.Params.Personal)
	items := a.selectPage(ranked, limit)
	return Result{
		Surface:      SurfaceExplore,
		Items:        items,
		Total:        len(ranked),
		Personalized: true,
	}, nil
}

// Search assembles the query relevance surface. Non-matching items never
// appear, so the diversity backfill draws only from matched candidates.
func (a *Assembler) Search(ctx context.Context, query, userID string, limit int) (Result, error) {
	start := time.Now()
	defer func() {
		metrics.RankingDuration.WithLabelValues(SurfaceSearch).Observe(time.Since(start).Seconds())
	}()

	pool, err := a.store.RecentItems(ctx, a.opts.PoolSize)
	if err != nil {
		return Result{}, err
	}
	metrics.RankingCandidates.WithLabelValues(SurfaceSearch).Observe(float64(len(pool)))

	signals := a.exclusionsOnly(ctx, userID)

	ranked := ranking.RankByQuery(pool, query, signals, time.Now(), a.opts.Params.Query)
	items := a.selectPage(ranked, limit)
	return Result{
		Surface: SurfaceSearch,
		Items:   items,
		Total:   len(ranked),
	}, nil
}

// selectPage runs the diversity selector over a ranked list and backfills
// a short page from the remaining ranked candidates, most recent first.
func (a *Assembler) selectPage(ranked []ranking.ScoredItem, limit int) []models.CandidateItem {
	selected := ranking.SelectDiverse(ranked, limit, a.opts.Params.Selector)
	if len(selected) >= limit {
		return selected
	}

	pool := make([]models.CandidateItem, 0, len(ranked))
	for i := range ranked {
		pool = append(pool, ranked[i].Item)
	}
	return ranking.Backfill(selected, pool, limit)
}

// fallback serves the recency ordering, still honoring whatever exclusions
// were collected before degradation.
func (a *Assembler) fallback(surface, reason string, pool []models.CandidateItem, signals *models.UserSignals, limit int) Result {
	metrics.RankingFallbacks.WithLabelValues(surface, reason).Inc()
	a.logger.Debug().Str("surface", surface).Str("reason", reason).Msg("Serving recency fallback")

	items := ranking.RankRecentFirst(pool, signals)
	total := len(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return Result{
		Surface:  surface,
		Items:    items,
		Total:    total,
		Fallback: true,
	}
}

func fallbackReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return reasonSignalTimeout
	}
	return reasonSignalError
}
