// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pollify/api/kv"
	"github.com/pollify/api/middleware"
)

const (
	// DefaultPollInterval is the sleep between streamer ticks.
	DefaultPollInterval = 5 * time.Second

	// DefaultSnapshotTTL bounds storage reads when many viewers watch
	// the same poll: within one TTL everyone shares one snapshot.
	DefaultSnapshotTTL = 6 * time.Second
)

const liveKeyPrefix = "live:"

func liveKey(pollID string) string {
	return liveKeyPrefix + pollID
}

// LiveHandler streams poll result snapshots over Server-Sent Events.
// One long-lived loop runs per (client, poll) connection until the
// client disconnects or the poll disappears.
type LiveHandler struct {
	db *sql.DB
	kv *kv.Store

	// Overridable in tests; zero values fall back to the defaults.
	PollInterval time.Duration
	SnapshotTTL  time.Duration

	group singleflight.Group
}

func NewLiveHandler(db *sql.DB, kvStore *kv.Store) *LiveHandler {
	return &LiveHandler{
		db:           db,
		kv:           kvStore,
		PollInterval: DefaultPollInterval,
		SnapshotTTL:  DefaultSnapshotTTL,
	}
}

// LiveResults handles GET /polls/{pollId}/live-results
// No authentication is required to watch a poll.
func (h *LiveHandler) LiveResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.Info("live results stream opened", "poll_id", pollID)
	defer slog.Info("live results stream closed", "poll_id", pollID)

	ctx := r.Context()
	ticker := time.NewTicker(h.PollInterval)
	defer ticker.Stop()

	var lastSent []byte
	for {
		snapshot, err := h.snapshot(ctx, pollID)
		if err == errPollNotFound {
			fmt.Fprintf(w, "event: not_found\ndata: {\"message\":\"Poll not found\"}\n\n")
			flusher.Flush()
			return
		}
		if err != nil {
			// Transient storage/KV trouble: keep the connection and
			// retry on the next tick.
			slog.Warn("live snapshot failed", "error", err, "poll_id", pollID)
		} else if !bytes.Equal(snapshot, lastSent) {
			// Emit only when the content actually changed.
			fmt.Fprintf(w, "id: %s\ndata: %s\n\n", pollID, snapshot)
			flusher.Flush()
			lastSent = snapshot
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// snapshot returns the serialized poll-with-answers payload, reading the
// short-TTL cache slot first and falling back to storage on a miss.
// Concurrent misses for the same poll collapse into one storage fetch.
func (h *LiveHandler) snapshot(ctx context.Context, pollID string) ([]byte, error) {
	key := liveKey(pollID)

	if cached, err := h.kv.Get(ctx, key); err == nil {
		return cached, nil
	} else if err != kv.ErrNotFound {
		slog.Warn("live cache read failed", "error", err, "poll_id", pollID)
	}

	v, err, _ := h.group.Do(pollID, func() (interface{}, error) {
		data, err := fetchPollWithAnswers(ctx, h.db, pollID)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}

		if err := h.kv.SetEx(ctx, key, payload, h.SnapshotTTL); err != nil {
			slog.Warn("live cache write failed", "error", err, "poll_id", pollID)
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}
