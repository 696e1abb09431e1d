// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maphari/the-news-sub000/internal/logging"
	"github.com/Maphari/the-news-sub000/internal/models"
)

// stubStore is an in-memory store.Store with injectable failures and
// latency for exercising the degradation paths.
type stubStore struct {
	items        []models.CandidateItem
	interactions map[string][]models.Interaction
	followed     map[string]map[string]struct{}

	recentErr   error
	signalErr   error
	signalDelay time.Duration
}

func newStubStore(items ...models.CandidateItem) *stubStore {
	return &stubStore{
		items:        items,
		interactions: make(map[string][]models.Interaction),
		followed:     make(map[string]map[string]struct{}),
	}
}

func (s *stubStore) wait(ctx context.Context) error {
	if s.signalErr != nil {
		return s.signalErr
	}
	if s.signalDelay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.signalDelay):
		return nil
	}
}

func (s *stubStore) RecentItems(ctx context.Context, limit int) ([]models.CandidateItem, error) {
	if s.recentErr != nil {
		return nil, s.recentErr
	}
	if len(s.items) > limit {
		return s.items[:limit], nil
	}
	return s.items, nil
}

func (s *stubStore) ItemsByIDs(ctx context.Context, ids []string) (map[string]models.CandidateItem, error) {
	out := make(map[string]models.CandidateItem)
	for _, item := range s.items {
		out[item.ID] = item
	}
	for id := range out {
		found := false
		for _, want := range ids {
			if want == id {
				found = true
				break
			}
		}
		if !found {
			delete(out, id)
		}
	}
	return out, nil
}

func (s *stubStore) ItemsBySource(ctx context.Context, source string, limit int) ([]models.CandidateItem, error) {
	var out []models.CandidateItem
	for _, item := range s.items {
		if strings.EqualFold(item.SourceName, source) && len(out) < limit {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubStore) ItemsByCategory(ctx context.Context, category string, limit int) ([]models.CandidateItem, error) {
	var out []models.CandidateItem
	for _, item := range s.items {
		for _, c := range item.Categories {
			if strings.EqualFold(c, category) && len(out) < limit {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

func (s *stubStore) PutItems(ctx context.Context, items []models.CandidateItem) error {
	s.items = append(s.items, items...)
	return nil
}

func (s *stubStore) Interactions(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.interactions[userID], nil
}

func (s *stubStore) byType(userID string, t models.InteractionType) map[string]struct{} {
	out := make(map[string]struct{})
	for _, in := range s.interactions[userID] {
		if in.Type == t {
			out[in.ItemID] = struct{}{}
		}
	}
	return out
}

func (s *stubStore) DislikedItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.byType(userID, models.InteractionDisliked), nil
}

func (s *stubStore) ReadItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.byType(userID, models.InteractionRead), nil
}

func (s *stubStore) FollowedSources(ctx context.Context, userID string) (map[string]struct{}, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]struct{})
	for src := range s.followed[userID] {
		out[src] = struct{}{}
	}
	return out, nil
}

func (s *stubStore) RecordInteraction(ctx context.Context, in models.Interaction) error {
	s.interactions[in.UserID] = append(s.interactions[in.UserID], in)
	return nil
}

func (s *stubStore) SetFollow(ctx context.Context, userID, source string, followed bool) error {
	if s.followed[userID] == nil {
		s.followed[userID] = make(map[string]struct{})
	}
	if followed {
		s.followed[userID][source] = struct{}{}
	} else {
		delete(s.followed[userID], source)
	}
	return nil
}

func feedItem(id, source, category string, age time.Duration) models.CandidateItem {
	return models.CandidateItem{
		ID:          id,
		Kind:        models.KindArticle,
		Title:       "story " + id,
		SourceName:  source,
		Categories:  []string{category},
		PublishedAt: time.Now().Add(-age),
	}
}

func newTestAssembler(s *stubStore) *Assembler {
	return NewAssembler(s, DefaultOptions(), logging.NewTestLogger(io.Discard))
}

func TestHomeFeedZeroSignalsFallsBack(t *testing.T) {
	s := newStubStore(
		feedItem("old", "wire", "tech", 10*time.Hour),
		feedItem("new", "wire", "tech", time.Hour),
	)
	a := newTestAssembler(s)

	result, err := a.HomeFeed(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.True(t, result.Fallback)
	assert.False(t, result.Personalized)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "new", result.Items[0].ID, "fallback is most recent first")
}

func TestHomeFeedPersonalized(t *testing.T) {
	s := newStubStore(
		feedItem("tech-story", "wire", "tech", 2*time.Hour),
		feedItem("sports-story", "espn", "sports", time.Hour),
	)
	s.interactions["u1"] = []models.Interaction{
		{UserID: "u1", ItemID: "tech-story", Type: models.InteractionLiked, OccurredAt: time.Now()},
	}
	a := newTestAssembler(s)

	// The liked item itself stays eligible (liking does not hide it), and
	// its category affinity lifts it above the fresher sports story.
	result, err := a.HomeFeed(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.True(t, result.Personalized)
	assert.False(t, result.Fallback)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "tech-story", result.Items[0].ID)
}

func TestHomeFeedExcludesDislikedAndRead(t *testing.T) {
	s := newStubStore(
		feedItem("disliked", "wire", "tech", time.Hour),
		feedItem("read", "wire", "tech", time.Hour),
		feedItem("fresh", "wire", "tech", time.Hour),
	)
	s.interactions["u1"] = []models.Interaction{
		{UserID: "u1", ItemID: "disliked", Type: models.InteractionDisliked, OccurredAt: time.Now()},
		{UserID: "u1", ItemID: "read", Type: models.InteractionRead, OccurredAt: time.Now()},
	}
	a := newTestAssembler(s)

	result, err := a.HomeFeed(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "fresh", result.Items[0].ID)
}

func TestHomeFeedSignalTimeoutFallsBack(t *testing.T) {
	s := newStubStore(feedItem("a", "wire", "tech", time.Hour))
	s.signalDelay = 200 * time.Millisecond

	opts := DefaultOptions()
	opts.SignalTimeout = 10 * time.Millisecond
	a := NewAssembler(s, opts, logging.NewTestLogger(io.Discard))

	result, err := a.HomeFeed(context.Background(), "u1", 10)
	require.NoError(t, err, "signal timeout degrades, it does not fail the request")
	assert.True(t, result.Fallback)
	assert.Len(t, result.Items, 1)
}

func TestHomeFeedSignalErrorFallsBack(t *testing.T) {
	s := newStubStore(feedItem("a", "wire", "tech", time.Hour))
	s.signalErr = errors.New("store unavailable")
	a := newTestAssembler(s)

	result, err := a.HomeFeed(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.True(t, result.Fallback)
}

func TestHomeFeedPoolReadFailureIsError(t *testing.T) {
	s := newStubStore()
	s.recentErr = errors.New("disk gone")
	a := newTestAssembler(s)

	_, err := a.HomeFeed(context.Background(), "u1", 10)
	assert.Error(t, err, "without any candidate pool there is nothing to fall back to")
}

func TestHomeFeedIdempotent(t *testing.T) {
	s := newStubStore(
		feedItem("a", "wire", "tech", time.Hour),
		feedItem("b", "blog", "sports", 2*time.Hour),
		feedItem("c", "espn", "sports", 3*time.Hour),
	)
	s.interactions["u1"] = []models.Interaction{
		{UserID: "u1", ItemID: "b", Type: models.InteractionLiked, OccurredAt: time.Now()},
	}
	a := newTestAssembler(s)

	first, err := a.HomeFeed(context.Background(), "u1", 10)
	require.NoError(t, err)
	second, err := a.HomeFeed(context.Background(), "u1", 10)
	require.NoError(t, err)

	require.Equal(t, len(first.Items), len(second.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].ID, second.Items[i].ID)
	}
}

func TestTopStoriesPopularityWins(t *testing.T) {
	popular := feedItem("popular", "wire", "tech", time.Hour)
	popular.Likes = 500
	popular.Shares = 100
	quiet := feedItem("quiet", "blog", "sports", time.Hour)

	a := newTestAssembler(newStubStore(quiet, popular))

	result, err := a.TopStories(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "popular", result.Items[0].ID)
	assert.False(t, result.Personalized)
}

func TestTopStoriesHonorsDislikes(t *testing.T) {
	s := newStubStore(
		feedItem("bad", "wire", "tech", time.Hour),
		feedItem("fine", "blog", "sports", time.Hour),
	)
	s.interactions["u1"] = []models.Interaction{
		{UserID: "u1", ItemID: "bad", Type: models.InteractionDisliked, OccurredAt: time.Now()},
	}
	a := newTestAssembler(s)

	result, err := a.TopStories(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "fine", result.Items[0].ID)
}

func TestExploreUsesCategoryPool(t *testing.T) {
	s := newStubStore(
		feedItem("t1", "wire", "tech", time.Hour),
		feedItem("s1", "espn", "sports", time.Hour),
		feedItem("t2", "blog", "tech", 2*time.Hour),
	)
	a := newTestAssembler(s)

	result, err := a.Explore(context.Background(), "tech", "", 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.Contains(t, item.Categories, "tech")
	}
}

func TestExploreKeepsReadItems(t *testing.T) {
	s := newStubStore(
		feedItem("read-one", "wire", "tech", time.Hour),
		feedItem("other", "blog", "tech", 2*time.Hour),
	)
	s.interactions["u1"] = []models.Interaction{
		{UserID: "u1", ItemID: "read-one", Type: models.InteractionRead, OccurredAt: time.Now()},
	}
	a := newTestAssembler(s)

	result, err := a.Explore(context.Background(), "tech", "u1", 10)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2, "explore keeps read items visible")
}

func TestSearchRanksByRelevance(t *testing.T) {
	exact := feedItem("exact", "wire", "crypto", time.Hour)
	exact.Title = "bitcoin"
	partial := feedItem("partial", "blog", "crypto", time.Hour)
	partial.Title = "weekly bitcoin roundup"
	unrelated := feedItem("unrelated", "espn", "sports", time.Hour)
	unrelated.Title = "match report"

	a := newTestAssembler(newStubStore(unrelated, partial, exact))

	result, err := a.Search(context.Background(), "bitcoin", "", 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 2, "non-matching items never appear")
	assert.Equal(t, "exact", result.Items[0].ID)
	assert.Equal(t, "partial", result.Items[1].ID)
}

func TestSelectPageBackfillsPastCaps(t *testing.T) {
	items := make([]models.CandidateItem, 0, 6)
	for i := 0; i < 6; i++ {
		item := feedItem(fmt.Sprintf("w%d", i), "wire", fmt.Sprintf("c%d", i), time.Duration(i)*time.Hour)
		item.Likes = int64(10 * (6 - i))
		items = append(items, item)
	}
	a := newTestAssembler(newStubStore(items...))

	// Every candidate shares one source, so the per-source cap admits two
	// and the backfill tops the page up most-recent-first.
	result, err := a.TopStories(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, result.Items, 5, "backfill must not leave the page short while candidates remain")
}
