// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package api

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// HandleHealth serves GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}
