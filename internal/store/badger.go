// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/Maphari/the-news-sub000/internal/metrics"
	"github.com/Maphari/the-news-sub000/internal/models"
)

// Key prefixes for BadgerDB storage. Time-ordered prefixes embed an
// inverted nanosecond timestamp so lexical iteration yields newest first.
const (
	itemKeyPrefix     = "item:"
	timeKeyPrefix     = "time:"
	sourceKeyPrefix   = "src:"
	categoryKeyPrefix = "cat:"
	interKeyPrefix    = "inter:"
	followKeyPrefix   = "follow:"
)

// BadgerStore implements Store on a BadgerDB instance. Safe for concurrent
// use; BadgerDB transactions provide the isolation.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerStore creates a document store on an already opened database.
func NewBadgerStore(db *badger.DB, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Open opens the BadgerDB database at path. An empty path opens an
// in-memory database, used by tests and ephemeral deployments.
func Open(path string, logger zerolog.Logger) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil // BadgerDB's own logger is too chatty; we log around it

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	logger.Info().Str("component", "store").Str("path", path).Msg("Document store opened")
	return db, nil
}

// reverseTimestamp encodes a time so that lexical byte order equals
// reverse chronological order.
func reverseTimestamp(t time.Time) string {
	return fmt.Sprintf("%016x", uint64(math.MaxInt64-t.UnixNano()))
}

// observe records query duration and errors. Call as
// defer func() { observe(op, start, err) }() so the final err is seen.
func observe(op string, start time.Time, err error) {
	metrics.StoreQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues(op).Inc()
	}
}

// lastSegment returns the text after the final ':' of a key.
func lastSegment(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}

// collectIDs walks a time-ordered index prefix and returns the item ids in
// iteration order, up to limit.
func collectIDs(txn *badger.Txn, prefix string, limit int) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	ids := make([]string, 0, limit)
	for it.Rewind(); it.Valid() && len(ids) < limit; it.Next() {
		ids = append(ids, lastSegment(string(it.Item().Key())))
	}
	return ids
}

// RecentItems returns up to limit items, most recent first.
func (s *BadgerStore) RecentItems(ctx context.Context, limit int) ([]models.CandidateItem, error) {
	start := time.Now()
	var err error
	defer func() { observe("recent_items", start, err) }()

	var ids []string
	err = s.db.View(func(txn *badger.Txn) error {
		ids = collectIDs(txn, timeKeyPrefix, limit)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan time index: %w", err)
	}

	items, resolveErr := s.resolveOrdered(ctx, ids)
	err = resolveErr
	return items, err
}

// ItemsByIDs resolves items by id in chunks so no single read transaction
// grows unbounded. Missing ids are absent from the result.
func (s *BadgerStore) ItemsByIDs(ctx context.Context, ids []string) (map[string]models.CandidateItem, error) {
	start := time.Now()
	var err error
	defer func() { observe("items_by_ids", start, err) }()

	out := make(map[string]models.CandidateItem, len(ids))
	for lo := 0; lo < len(ids); lo += maxIDChunk {
		hi := lo + maxIDChunk
		if hi > len(ids) {
			hi = len(ids)
		}
		chunk := ids[lo:hi]

		err = s.db.View(func(txn *badger.Txn) error {
			for _, id := range chunk {
				item, getErr := txn.Get([]byte(itemKeyPrefix + id))
				if errors.Is(getErr, badger.ErrKeyNotFound) {
					continue
				}
				if getErr != nil {
					return fmt.Errorf("get item %s: %w", id, getErr)
				}
				valErr := item.Value(func(val []byte) error {
					var ci models.CandidateItem
					if umErr := json.Unmarshal(val, &ci); umErr != nil {
						return fmt.Errorf("unmarshal item %s: %w", id, umErr)
					}
					out[ci.ID] = ci
					return nil
				})
				if valErr != nil {
					return valErr
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resolveOrdered resolves ids and returns the items in id order,
// deduplicated and with stale index entries dropped.
func (s *BadgerStore) resolveOrdered(ctx context.Context, ids []string) ([]models.CandidateItem, error) {
	byID, err := s.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.CandidateItem, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// ItemsBySource returns up to limit items from one source, most recent first.
func (s *BadgerStore) ItemsBySource(ctx context.Context, source string, limit int) ([]models.CandidateItem, error) {
	start := time.Now()
	var err error
	defer func() { observe("items_by_source", start, err) }()

	prefix := sourceKeyPrefix + strings.ToLower(source) + ":"
	var ids []string
	err = s.db.View(func(txn *badger.Txn) error {
		ids = collectIDs(txn, prefix, limit)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan source index: %w", err)
	}

	items, resolveErr := s.resolveOrdered(ctx, ids)
	err = resolveErr
	return items, err
}

// ItemsByCategory returns up to limit items carrying one category, most
// recent first.
func (s *BadgerStore) ItemsByCategory(ctx context.Context, category string, limit int) ([]models.CandidateItem, error) {
	start := time.Now()
	var err error
	defer func() { observe("items_by_category", start, err) }()

	prefix := categoryKeyPrefix + strings.ToLower(category) + ":"
	var ids []string
	err = s.db.View(func(txn *badger.Txn) error {
		ids = collectIDs(txn, prefix, limit)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan category index: %w", err)
	}

	items, resolveErr := s.resolveOrdered(ctx, ids)
	err = resolveErr
	return items, err
}

// PutItems upserts items and their indexes in bounded write transactions.
// Re-ingesting an item with a changed publication time leaves the old
// index entry behind; reads resolve through the item document and
// deduplicate, so stale entries cost a lookup, not correctness.
func (s *BadgerStore) PutItems(ctx context.Context, items []models.CandidateItem) error {
	start := time.Now()
	var err error
	defer func() { observe("put_items", start, err) }()

	for lo := 0; lo < len(items); lo += maxWriteBatch {
		hi := lo + maxWriteBatch
		if hi > len(items) {
			hi = len(items)
		}
		chunk := items[lo:hi]

		err = s.db.Update(func(txn *badger.Txn) error {
			for i := range chunk {
				if putErr := putItem(txn, &chunk[i]); putErr != nil {
					return putErr
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("put items batch: %w", err)
		}
	}
	s.logger.Debug().Int("count", len(items)).Msg("Items upserted")
	return nil
}

func putItem(txn *badger.Txn, item *models.CandidateItem) error {
	if item.ID == "" {
		return fmt.Errorf("item missing id: %q", item.Title)
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", item.ID, err)
	}
	if err := txn.Set([]byte(itemKeyPrefix+item.ID), data); err != nil {
		return fmt.Errorf("set item %s: %w", item.ID, err)
	}

	rev := reverseTimestamp(item.PublishedAt)
	if err := txn.Set([]byte(timeKeyPrefix+rev+":"+item.ID), nil); err != nil {
		return fmt.Errorf("set time index %s: %w", item.ID, err)
	}

	sourceKey := sourceKeyPrefix + strings.ToLower(item.SourceName) + ":" + rev + ":" + item.ID
	if err := txn.Set([]byte(sourceKey), nil); err != nil {
		return fmt.Errorf("set source index %s: %w", item.ID, err)
	}

	for _, c := range item.Categories {
		categoryKey := categoryKeyPrefix + strings.ToLower(c) + ":" + rev + ":" + item.ID
		if err := txn.Set([]byte(categoryKey), nil); err != nil {
			return fmt.Errorf("set category index %s: %w", item.ID, err)
		}
	}
	return nil
}

// Interactions returns up to limit of a user's interactions, most recent
// first.
func (s *BadgerStore) Interactions(ctx context.Context, userID string, limit int) ([]models.Interaction, error) {
	start := time.Now()
	var err error
	defer func() { observe("interactions", start, err) }()

	var out []models.Interaction
	prefix := interKeyPrefix + userID + ":"
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(out) < limit; it.Next() {
			valErr := it.Item().Value(func(val []byte) error {
				var in models.Interaction
				if umErr := json.Unmarshal(val, &in); umErr != nil {
					return fmt.Errorf("unmarshal interaction: %w", umErr)
				}
				out = append(out, in)
				return nil
			})
			if valErr != nil {
				return valErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// itemIDsByType scans a user's interactions and collects item ids of one
// interaction type. The type and item id are key segments, so the scan
// never loads values.
func (s *BadgerStore) itemIDsByType(userID string, t models.InteractionType) (map[string]struct{}, error) {
	prefix := interKeyPrefix + userID + ":"
	out := make(map[string]struct{})

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		suffix := ":" + string(t)
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if !strings.HasSuffix(key, suffix) {
				continue
			}
			out[lastSegment(strings.TrimSuffix(key, suffix))] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DislikedItemIDs returns the set of item ids the user disliked.
func (s *BadgerStore) DislikedItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	start := time.Now()
	out, err := s.itemIDsByType(userID, models.InteractionDisliked)
	observe("disliked_ids", start, err)
	return out, err
}

// ReadItemIDs returns the set of item ids the user read.
func (s *BadgerStore) ReadItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	start := time.Now()
	out, err := s.itemIDsByType(userID, models.InteractionRead)
	observe("read_ids", start, err)
	return out, err
}

// FollowedSources returns the set of sources the user follows.
func (s *BadgerStore) FollowedSources(ctx context.Context, userID string) (map[string]struct{}, error) {
	start := time.Now()
	var err error
	defer func() { observe("followed_sources", start, err) }()

	prefix := followKeyPrefix + userID + ":"
	out := make(map[string]struct{})
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			out[strings.TrimPrefix(string(it.Item().Key()), prefix)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordInteraction appends one interaction event. A zero OccurredAt is
// stamped with the current time.
func (s *BadgerStore) RecordInteraction(ctx context.Context, in models.Interaction) error {
	start := time.Now()
	var err error
	defer func() { observe("record_interaction", start, err) }()

	if in.UserID == "" || in.ItemID == "" {
		err = fmt.Errorf("interaction requires user and item ids")
		return err
	}
	if in.OccurredAt.IsZero() {
		in.OccurredAt = time.Now().UTC()
	}

	data, marshalErr := json.Marshal(in)
	if marshalErr != nil {
		err = fmt.Errorf("marshal interaction: %w", marshalErr)
		return err
	}

	key := interKeyPrefix + in.UserID + ":" + reverseTimestamp(in.OccurredAt) + ":" + in.ItemID + ":" + string(in.Type)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		err = fmt.Errorf("record interaction: %w", err)
		return err
	}
	return nil
}

// SetFollow records or removes a source follow.
func (s *BadgerStore) SetFollow(ctx context.Context, userID, source string, followed bool) error {
	start := time.Now()
	var err error
	defer func() { observe("set_follow", start, err) }()

	if userID == "" || source == "" {
		err = fmt.Errorf("follow requires user id and source")
		return err
	}

	key := []byte(followKeyPrefix + userID + ":" + source)
	err = s.db.Update(func(txn *badger.Txn) error {
		if followed {
			return txn.Set(key, nil)
		}
		return txn.Delete(key)
	})
	if err != nil {
		err = fmt.Errorf("set follow: %w", err)
		return err
	}
	return nil
}
