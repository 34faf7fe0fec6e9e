// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/pollify/api/analytics"
	"github.com/pollify/api/auth"
	"github.com/pollify/api/cache"
	"github.com/pollify/api/captcha"
	"github.com/pollify/api/cliparse"
	"github.com/pollify/api/geoip"
	"github.com/pollify/api/handlers"
	"github.com/pollify/api/kv"
	"github.com/pollify/api/middleware"
	"github.com/pollify/api/ratelimit"
	"github.com/pollify/api/selection"
)

// Cache TTLs per route
const (
	pollDetailTTL    = 30 * time.Minute
	pollListTTL      = 5 * time.Minute
	pollVotersTTL    = 5 * time.Minute
	userSelectionTTL = 12 * time.Hour
)

// New builds the full request pipeline: rate limiter first, then CORS,
// then per-route logging, session resolution, and caching around the
// handlers.
func New(db *sql.DB, kvStore *kv.Store, writer *cache.Writer, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()

	cacheMW := cache.New(kvStore, writer)
	selections := selection.NewStore(kvStore, cfg.SessionSecret)
	verifier := captcha.NewVerifier(cfg.RecaptchaSecret)
	emitter := analytics.NewEmitter(geoip.NewClient(cfg.GeoAPIURL), cfg.AnalyticsURL, cfg.AnalyticsToken)

	pollHandler := handlers.NewPollHandler(db, cfg, selections, cacheMW)
	votingHandler := handlers.NewVotingHandler(db, cfg, verifier, selections, emitter, cacheMW)
	liveHandler := handlers.NewLiveHandler(db, kvStore)

	// Per-route stages, innermost listed last:
	// logging → session → cache → handler
	session := func(next http.HandlerFunc) http.HandlerFunc {
		return auth.WithSession(cfg.SessionSecret, next)
	}
	wrap := func(next http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(session(next))
	}
	cached := func(ttl time.Duration, opts cache.Options, next http.HandlerFunc) http.HandlerFunc {
		return wrap(cacheMW.Wrap(ttl, opts)(next))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll reads (public, cached)
	mux.HandleFunc("GET /polls/{pollId}", cached(pollDetailTTL, cache.Options{}, pollHandler.GetPoll))
	mux.HandleFunc("GET /polls", cached(pollListTTL, cache.Options{}, pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{pollId}/voters", cached(pollVotersTTL, cache.Options{}, pollHandler.GetVoters))
	mux.HandleFunc("GET /polls/{pollId}/user-selection",
		cached(userSelectionTTL, cache.Options{RequireUser: true}, pollHandler.GetUserSelection))

	// Live results stream (uncached by design: it manages its own
	// short-TTL snapshot slot)
	mux.HandleFunc("GET /polls/{pollId}/live-results", wrap(liveHandler.LiveResults))

	// Vote submission
	mux.HandleFunc("POST /polls/{pollId}/answers/{answerId}/vote", wrap(votingHandler.Vote))

	// Poll management glue
	mux.HandleFunc("POST /polls", wrap(pollHandler.CreatePoll))
	mux.HandleFunc("DELETE /polls/{pollId}", wrap(pollHandler.DeletePoll))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollify API v1"))
	})

	// Outer stages: the rate limiter runs ahead of everything,
	// including CORS and routing.
	limiter := ratelimit.New(kvStore, ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	return limiter.Middleware(middleware.CORS(mux))
}
