// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package config holds the layered service configuration: struct defaults,
// an optional YAML file, then NEWS_-prefixed environment variables, with
// later layers winning.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Maphari/the-news-sub000/internal/ranking"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Cache     CacheConfig     `koanf:"cache"`
	Store     StoreConfig     `koanf:"store"`
	Feed      FeedConfig      `koanf:"feed"`
	Podcast   PodcastConfig   `koanf:"podcast"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"required,min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// AllowedOrigins configures CORS. Empty disables cross-origin access.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// CacheConfig configures the TTL caches and the response cache.
type CacheConfig struct {
	ResponseTTL     time.Duration `koanf:"response_ttl" validate:"required"`
	PodcastTTL      time.Duration `koanf:"podcast_ttl" validate:"required"`
	JanitorInterval time.Duration `koanf:"janitor_interval" validate:"required"`
}

// StoreConfig configures the document store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty runs in memory.
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval" validate:"required"`
}

// FeedConfig configures the assembler and the ranking engine.
type FeedConfig struct {
	SignalTimeout    time.Duration  `koanf:"signal_timeout" validate:"required"`
	PoolSize         int            `koanf:"pool_size" validate:"min=10"`
	InteractionLimit int            `koanf:"interaction_limit" validate:"min=1"`
	Ranking          ranking.Params `koanf:"ranking"`
}

// PodcastConfig configures the provider client and discovery service.
type PodcastConfig struct {
	BaseURL         string        `koanf:"base_url" validate:"required,url"`
	APIKey          string        `koanf:"api_key"`
	Timeout         time.Duration `koanf:"timeout" validate:"required"`
	TTL             time.Duration `koanf:"ttl" validate:"required"`
	Cooldown        time.Duration `koanf:"cooldown" validate:"required"`
	RatePerSecond   float64       `koanf:"rate_per_second" validate:"gt=0"`
	Burst           int           `koanf:"burst" validate:"min=1"`
	PrewarmInterval time.Duration `koanf:"prewarm_interval" validate:"required"`
	PrewarmLimit    int           `koanf:"prewarm_limit" validate:"min=1"`
}

// RateLimitConfig configures per-IP API rate limiting.
type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=1"`
	Window   time.Duration `koanf:"window" validate:"required"`
}

// defaultConfig returns the struct-level defaults, the lowest layer.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			ResponseTTL:     30 * time.Second,
			PodcastTTL:      5 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Store: StoreConfig{
			Path:       "./data/store",
			GCInterval: 10 * time.Minute,
		},
		Feed: FeedConfig{
			SignalTimeout:    7 * time.Second,
			PoolSize:         500,
			InteractionLimit: 200,
			Ranking:          ranking.DefaultParams(),
		},
		Podcast: PodcastConfig{
			BaseURL:         "https://api.podcastindex.example",
			Timeout:         10 * time.Second,
			TTL:             15 * time.Minute,
			Cooldown:        2 * time.Minute,
			RatePerSecond:   5,
			Burst:           10,
			PrewarmInterval: 10 * time.Minute,
			PrewarmLimit:    50,
		},
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
	}
}

// Validate checks the configuration for contract violations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Feed.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking params: %w", err)
	}
	return nil
}
