// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package podcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Maphari/the-news-sub000/internal/metrics"
	"github.com/Maphari/the-news-sub000/internal/models"
)

const breakerName = "podcast-provider"

// ResilientProvider wraps a Provider with a rate limiter and a circuit
// breaker. The breaker opens after a 60% failure rate over at least 10
// requests; while open every call fails fast without touching the
// provider.
//
// The breaker uses real time for its recovery windows. Tests exercise the
// wrapped provider directly or inject failures; they do not mock the
// breaker clock.
type ResilientProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker[[]models.CandidateItem]
	limiter  *rate.Limiter
	logger   zerolog.Logger
}

// NewResilientProvider wraps a provider. ratePerSecond bounds sustained
// provider traffic; burst allows short spikes.
func NewResilientProvider(provider Provider, ratePerSecond float64, burst int, logger zerolog.Logger) *ResilientProvider {
	log := logger.With().Str("component", "podcast-breaker").Logger()

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.CandidateItem](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &ResilientProvider{
		provider: provider,
		cb:       cb,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		logger:   log,
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

func (r *ResilientProvider) execute(ctx context.Context, operation string, fn func() ([]models.CandidateItem, error)) ([]models.CandidateItem, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		metrics.ProviderRequests.WithLabelValues(operation, "rate_limited").Inc()
		return nil, fmt.Errorf("provider rate limit wait: %w", err)
	}

	items, err := r.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ProviderRequests.WithLabelValues(operation, "rejected").Inc()
		} else {
			metrics.ProviderRequests.WithLabelValues(operation, "error").Inc()
		}
		return nil, err
	}
	metrics.ProviderRequests.WithLabelValues(operation, "success").Inc()
	return items, nil
}

// SearchPodcasts delegates through the limiter and breaker.
func (r *ResilientProvider) SearchPodcasts(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	return r.execute(ctx, "search", func() ([]models.CandidateItem, error) {
		return r.provider.SearchPodcasts(ctx, query, limit)
	})
}

// TrendingPodcasts delegates through the limiter and breaker.
func (r *ResilientProvider) TrendingPodcasts(ctx context.Context, limit int) ([]models.CandidateItem, error) {
	return r.execute(ctx, "trending", func() ([]models.CandidateItem, error) {
		return r.provider.TrendingPodcasts(ctx, limit)
	})
}

// PodcastEpisodes delegates through the limiter and breaker.
func (r *ResilientProvider) PodcastEpisodes(ctx context.Context, podcastID string, limit int) ([]models.CandidateItem, error) {
	return r.execute(ctx, "episodes", func() ([]models.CandidateItem, error) {
		return r.provider.PodcastEpisodes(ctx, podcastID, limit)
	})
}
