// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package metrics defines the Prometheus collectors for the feed service:
// cache efficiency, upstream fetch behavior, ranking latency and HTTP
// endpoint throughput. Collectors are registered via promauto at package
// load and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TTL cache metrics, labeled by cache instance name.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_hits_total",
			Help: "Total number of TTL cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_misses_total",
			Help: "Total number of TTL cache misses",
		},
		[]string{"cache"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_evictions_total",
			Help: "Total number of TTL cache evictions (expiry and invalidation)",
		},
		[]string{"cache"},
	)

	CacheKeys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_cache_entries",
			Help: "Current number of entries per TTL cache",
		},
		[]string{"cache"},
	)

	// Response cache metrics, labeled by namespace.
	ResponseCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"namespace"},
	)

	ResponseCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
		[]string{"namespace"},
	)

	ResponseCacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_response_cache_invalidations_total",
			Help: "Total number of response cache entries dropped by invalidation",
		},
		[]string{"namespace"},
	)

	// External fetch cache metrics, labeled by fetch cache name.
	FetchUpstreamCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_upstream_calls_total",
			Help: "Total number of upstream calls issued by the fetch cache",
		},
		[]string{"fetch", "outcome"}, // outcome: success, empty, error
	)

	FetchCooldownSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_cooldown_skips_total",
			Help: "Total number of fetches short-circuited by an active cooldown window",
		},
		[]string{"fetch"},
	)

	FetchSharedResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetch_shared_results_total",
			Help: "Total number of callers that attached to an in-flight upstream call",
		},
		[]string{"fetch"},
	)

	// Ranking metrics, labeled by surface (home, explore, search, ...).
	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_ranking_duration_seconds",
			Help:    "Duration of a full ranking pass per surface",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"surface"},
	)

	RankingFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_ranking_fallbacks_total",
			Help: "Total number of requests served by the recency fallback",
		},
		[]string{"surface", "reason"}, // reason: no_signals, signal_timeout, signal_error
	)

	RankingCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_ranking_candidates",
			Help:    "Candidate pool size observed per ranking pass",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"surface"},
	)

	// Store metrics.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_store_query_duration_seconds",
			Help:    "Duration of document store round trips",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_store_query_errors_total",
			Help: "Total number of document store errors",
		},
		[]string{"operation"},
	)

	// Podcast provider metrics.
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_provider_requests_total",
			Help: "Total number of podcast provider requests by outcome",
		},
		[]string{"operation", "outcome"}, // outcome: success, failure, rejected
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	// HTTP API metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
