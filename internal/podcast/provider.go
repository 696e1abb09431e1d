// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package podcast provides podcast discovery on top of an external
// metadata provider. The provider is treated as unreliable: every call
// goes through a rate limiter and a circuit breaker, results flow through
// the singleflight fetch cache, and when nothing comes back the discovery
// service serves podcast items from the document store instead.
package podcast

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Maphari/the-news-sub000/internal/models"
)

// Provider is the external podcast metadata API surface.
type Provider interface {
	// SearchPodcasts finds podcasts matching a free-text query.
	SearchPodcasts(ctx context.Context, query string, limit int) ([]models.CandidateItem, error)

	// TrendingPodcasts returns the provider's current trending list.
	TrendingPodcasts(ctx context.Context, limit int) ([]models.CandidateItem, error)

	// PodcastEpisodes returns recent episodes of one podcast.
	PodcastEpisodes(ctx context.Context, podcastID string, limit int) ([]models.CandidateItem, error)
}

// providerPodcast is the provider's wire representation of a show or
// episode.
type providerPodcast struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Publisher   string    `json:"publisher"`
	Categories  []string  `json:"categories"`
	Keywords    []string  `json:"keywords"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"image_url"`
	PublishedAt time.Time `json:"published_at"`
	PodcastID   string    `json:"podcast_id,omitempty"`
}

type providerResponse struct {
	Results []providerPodcast `json:"results"`
}

// HTTPProvider talks to the podcast metadata API over HTTP.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewHTTPProvider creates a provider client. Timeout bounds each request
// end to end, including body read.
func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "podcast-provider").Logger(),
	}
}

// SearchPodcasts finds podcasts matching a free-text query.
func (p *HTTPProvider) SearchPodcasts(ctx context.Context, query string, limit int) ([]models.CandidateItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	return p.get(ctx, "/v1/search", params, models.KindPodcast)
}

// TrendingPodcasts returns the provider's current trending list.
func (p *HTTPProvider) TrendingPodcasts(ctx context.Context, limit int) ([]models.CandidateItem, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return p.get(ctx, "/v1/trending", params, models.KindPodcast)
}

// PodcastEpisodes returns recent episodes of one podcast.
func (p *HTTPProvider) PodcastEpisodes(ctx context.Context, podcastID string, limit int) ([]models.CandidateItem, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return p.get(ctx, "/v1/podcasts/"+url.PathEscape(podcastID)+"/episodes", params, models.KindEpisode)
}

func (p *HTTPProvider) get(ctx context.Context, path string, params url.Values, kind models.ItemKind) ([]models.CandidateItem, error) {
	reqURL := p.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d for %s", resp.StatusCode, path)
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	items := make([]models.CandidateItem, 0, len(payload.Results))
	for _, raw := range payload.Results {
		items = append(items, raw.toCandidate(kind))
	}
	return items, nil
}

func (raw providerPodcast) toCandidate(kind models.ItemKind) models.CandidateItem {
	return models.CandidateItem{
		ID:          raw.ID,
		Kind:        kind,
		Title:       raw.Title,
		Description: raw.Description,
		Keywords:    raw.Keywords,
		SourceName:  raw.Publisher,
		Categories:  raw.Categories,
		URL:         raw.URL,
		ImageURL:    raw.ImageURL,
		PublishedAt: raw.PublishedAt,
		ParentID:    raw.PodcastID,
	}
}
