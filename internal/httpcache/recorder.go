// The News Sub - Personalized Feed Ranking and Caching Service
// Copyright 2026 Maphari
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Maphari/the-news-sub000

package httpcache

import (
	"bytes"
	"net/http"
)

// recorder tees the wrapped handler's response to the client while keeping
// a copy for the cache. It marks pass-through responses with X-Cache: MISS.
type recorder struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	wroteHeader bool
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the status and forwards it once.
func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.status = status
	r.Header().Set(CacheHeader, "MISS")
	r.ResponseWriter.WriteHeader(status)
}

// Write buffers the body for the cache while streaming it to the client.
func (r *recorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	r.buf.Write(p)
	return r.ResponseWriter.Write(p)
}

// body returns a copy of the captured response body.
func (r *recorder) body() []byte {
	return append([]byte(nil), r.buf.Bytes()...)
}
