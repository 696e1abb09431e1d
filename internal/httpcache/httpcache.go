// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package httpcache implements the namespaced response cache: a decorator
// that wraps any idempotent read handler, builds a deterministic key from
// route + sorted query parameters + a per-request scope (usually the acting
// user id), and serves repeated requests from the TTL cache. Mutating
// handlers invalidate by key prefix, scoped to the affected users.
package httpcache

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Maphari/the-news-sub000/internal/cache"
	"github.com/Maphari/the-news-sub000/internal/metrics"
)

// WildcardScope is the scope used for requests that carry no user identity.
// Invalidating it drops shared/global entries for a namespace without
// touching per-user ones.
const WildcardScope = "*"

// CacheHeader is the response marker header: HIT when the response was
// replayed from cache, MISS when the underlying handler ran.
const CacheHeader = "X-Cache"

// ScopeFunc extracts the scope identifier from a request. Returning an
// empty string selects the wildcard scope.
type ScopeFunc func(*http.Request) string

// QueryScope returns a ScopeFunc reading the scope from a query parameter.
func QueryScope(param string) ScopeFunc {
	return func(r *http.Request) string {
		return r.URL.Query().Get(param)
	}
}

// cachedResponse is the stored representation of a successful response.
type cachedResponse struct {
	status      int
	contentType string
	body        []byte
}

// ResponseCache wraps a TTL cache with response-level semantics.
type ResponseCache struct {
	store  *cache.Cache
	logger zerolog.Logger
}

// New creates a response cache on top of the given TTL cache.
//
//nolint:gocritic // logger passed by value is the zerolog convention
func New(store *cache.Cache, logger zerolog.Logger) *ResponseCache {
	return &ResponseCache{
		store:  store,
		logger: logger.With().Str("component", "httpcache").Logger(),
	}
}

// Key builds the deterministic cache key for a request descriptor.
// Query parameters are sorted by name so parameter order never affects the
// key. Format: namespace:uid:<scope>:<path>?k=v&k2=v2
func Key(namespace, scope, path string, query url.Values) string {
	if scope == "" {
		scope = WildcardScope
	}

	var b strings.Builder
	b.WriteString(namespace)
	b.WriteString(":uid:")
	b.WriteString(scope)
	b.WriteString(":")
	b.WriteString(path)

	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("?")
		first := true
		for _, name := range names {
			values := append([]string(nil), query[name]...)
			sort.Strings(values)
			for _, v := range values {
				if !first {
					b.WriteString("&")
				}
				first = false
				b.WriteString(name)
				b.WriteString("=")
				b.WriteString(v)
			}
		}
	}

	return b.String()
}

// UserPrefix returns the invalidation prefix covering every cached response
// in a namespace scoped to the given user.
func UserPrefix(namespace, userID string) string {
	return namespace + ":uid:" + userID + ":"
}

// SharedPrefix returns the invalidation prefix covering the wildcard-scope
// entries of a namespace.
func SharedPrefix(namespace string) string {
	return UserPrefix(namespace, WildcardScope)
}

// Middleware returns a decorator that makes the wrapped handler cache-aware.
// On a hit the stored response is replayed verbatim with an X-Cache: HIT
// marker and the handler never runs. On a miss the handler runs and only a
// 2xx response is stored for ttl.
func (c *ResponseCache) Middleware(namespace string, ttl time.Duration, scope ScopeFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := Key(namespace, scope(r), r.URL.Path, r.URL.Query())

			if value, ok := c.store.Get(key); ok {
				if cached, ok := value.(cachedResponse); ok {
					metrics.ResponseCacheHits.WithLabelValues(namespace).Inc()
					replay(w, cached)
					return
				}
			}
			metrics.ResponseCacheMisses.WithLabelValues(namespace).Inc()

			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			// Only successful responses are cached; errors always recompute.
			if rec.status >= 200 && rec.status < 300 {
				c.store.SetWithTTL(key, cachedResponse{
					status:      rec.status,
					contentType: rec.Header().Get("Content-Type"),
					body:        rec.body(),
				}, ttl)
			}
		})
	}
}

// Invalidate removes every cached response matching one of the literal
// prefixes and returns the number of entries dropped.
func (c *ResponseCache) Invalidate(prefixes ...string) int {
	return c.store.DeleteMatching(prefixes)
}

// InvalidateUsers drops the cached responses of the given namespaces scoped
// to the given user ids. When no user ids are supplied the wildcard scope is
// cleared instead, dropping shared entries for those namespaces only.
func (c *ResponseCache) InvalidateUsers(namespaces []string, userIDs ...string) int {
	prefixes := make([]string, 0, len(namespaces)*(len(userIDs)+1))
	for _, ns := range namespaces {
		if len(userIDs) == 0 {
			prefixes = append(prefixes, SharedPrefix(ns))
			continue
		}
		for _, uid := range userIDs {
			prefixes = append(prefixes, UserPrefix(ns, uid))
		}
	}

	removed := c.store.DeleteMatching(prefixes)
	if removed > 0 {
		for _, ns := range namespaces {
			metrics.ResponseCacheInvalidations.WithLabelValues(ns).Add(float64(removed) / float64(len(namespaces)))
		}
		c.logger.Debug().
			Strs("namespaces", namespaces).
			Strs("user_ids", userIDs).
			Int("removed", removed).
			Msg("response cache invalidated")
	}
	return removed
}

// InvalidateShared drops the wildcard-scope entries of a namespace, the
// pages served to requests without a user identity.
func (c *ResponseCache) InvalidateShared(namespace string) int {
	removed := c.store.DeleteMatching([]string{SharedPrefix(namespace)})
	if removed > 0 {
		metrics.ResponseCacheInvalidations.WithLabelValues(namespace).Add(float64(removed))
	}
	return removed
}

// InvalidateFunc removes cached responses using prefixes computed from the
// request, for mutations whose affected scope is only known at request time.
func (c *ResponseCache) InvalidateFunc(r *http.Request, fn func(*http.Request) []string) int {
	return c.store.DeleteMatching(fn(r))
}

// replay writes a cached response verbatim plus the HIT marker.
func replay(w http.ResponseWriter, cached cachedResponse) {
	if cached.contentType != "" {
		w.Header().Set("Content-Type", cached.contentType)
	}
	w.Header().Set(CacheHeader, "HIT")
	w.WriteHeader(cached.status)
	_, _ = w.Write(cached.body)
}
