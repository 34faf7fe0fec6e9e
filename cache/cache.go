// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/pollify/api/auth"
	"github.com/pollify/api/kv"
)

const keyPrefix = "cache:"

// Options configures a wrapped route.
type Options struct {
	// RequireUser scopes the cache key to the authenticated caller.
	// Anonymous requests on such a route bypass the cache entirely:
	// they are never looked up and never populated.
	RequireUser bool
}

// Middleware is the read-through/write-behind cache applied to
// read-heavy endpoints. Lookups are inline; population goes through the
// Writer queue so the response is never held up by a cache write.
type Middleware struct {
	store  *kv.Store
	writer *Writer
}

func New(store *kv.Store, writer *Writer) *Middleware {
	return &Middleware{store: store, writer: writer}
}

// Key computes the canonical cache key for a request identity.
func Key(requestURI, userID string) string {
	if userID != "" {
		return keyPrefix + requestURI + ":" + userID
	}
	return keyPrefix + requestURI
}

// Wrap returns a caching wrapper for one route with the given TTL.
func (m *Middleware) Wrap(ttl time.Duration, opts Options) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session := auth.SessionFromContext(r.Context())

			if opts.RequireUser && session == nil {
				next(w, r)
				return
			}

			var userID string
			if opts.RequireUser {
				userID = session.UserID
			}
			key := Key(r.URL.RequestURI(), userID)

			if payload, err := m.store.Get(r.Context(), key); err == nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				if _, err := w.Write(payload); err != nil {
					slog.Error("failed to write cached response", "error", err)
				}
				return
			} else if err != kv.ErrNotFound {
				slog.Error("cache lookup failed", "error", err, "key", key)
			}

			rec := newRecorder(w)
			next(rec, r)

			if rec.status == http.StatusOK {
				m.writer.Enqueue(Entry{
					Key:   key,
					Value: rec.bytes(),
					TTL:   ttl,
				})
			}
			rec.release()
		}
	}
}

// Invalidate forces freshness by dropping cached payloads. Write paths
// call this for the keys they make stale.
func (m *Middleware) Invalidate(ctx context.Context, keys ...string) error {
	return m.store.Del(ctx, keys...)
}

// recorder tees the handler's output to the client while keeping a copy
// for cache population.
type recorder struct {
	http.ResponseWriter
	status int
	buf    *bytebufferpool.ByteBuffer
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{
		ResponseWriter: w,
		status:         http.StatusOK,
		buf:            bytebufferpool.Get(),
	}
}

func (r *recorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.buf.Write(p) // never fails
	return r.ResponseWriter.Write(p)
}

// bytes copies the captured body out of the pooled buffer.
func (r *recorder) bytes() []byte {
	out := make([]byte, len(r.buf.B))
	copy(out, r.buf.B)
	return out
}

func (r *recorder) release() {
	bytebufferpool.Put(r.buf)
	r.buf = nil
}
