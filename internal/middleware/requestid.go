// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

// Package middleware holds the HTTP middleware shared by all routes:
// request-id propagation and prometheus instrumentation. Response caching
// lives in internal/httpcache, rate limiting and CORS come from the
// go-chi ecosystem.
package middleware

import (
	"net/http"

	"github.com/Maphari/the-news-sub000/internal/logging"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request id to the context and echoes it on the
// response. An id supplied by the caller is trusted and propagated,
// otherwise a new one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
