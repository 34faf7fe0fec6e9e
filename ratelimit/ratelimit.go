// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pollify/api/kv"
	"github.com/pollify/api/middleware"
)

// Defaults for the global limiter: 100 requests per 15 minutes per IP.
const (
	DefaultLimit  = 100
	DefaultWindow = 15 * time.Minute
)

const keyPrefix = "ratelimit:"

// Limiter is a fixed-window request counter keyed by client IP. The
// counters live in the shared KV store so the limit holds across all
// server instances. The window resets when the counter's TTL elapses.
type Limiter struct {
	store  *kv.Store
	limit  int64
	window time.Duration
}

func New(store *kv.Store, limit int64, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Middleware applies the limiter ahead of the wrapped handler. On a KV
// failure the request is admitted: losing the limit briefly beats
// turning a Redis outage into a full outage.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := keyPrefix + middleware.GetClientIP(r)

		count, err := l.store.Incr(ctx, key)
		if err != nil {
			slog.Error("rate limit counter failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count == 1 {
			if err := l.store.Expire(ctx, key, l.window); err != nil {
				slog.Error("rate limit expire failed", "error", err)
			}
		}

		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}

		reset := int64(l.window / time.Second)
		if ttl, err := l.store.TTL(ctx, key); err == nil && ttl > 0 {
			reset = int64(ttl / time.Second)
		}

		// draft-6 style RateLimit-* headers
		w.Header().Set("RateLimit-Limit", strconv.FormatInt(l.limit, 10))
		w.Header().Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("RateLimit-Reset", strconv.FormatInt(reset, 10))

		if count > l.limit {
			w.Header().Set("Retry-After", strconv.FormatInt(reset, 10))
			middleware.ErrorResponse(w, http.StatusTooManyRequests,
				"Too many requests, please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
