// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pollify/api/kv"
)

// DefaultQueueSize bounds the population queue. A full queue drops the
// write: the only cost is a recompute on the next miss.
const DefaultQueueSize = 256

// Entry is one deferred cache write.
type Entry struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Writer decouples cache population from the request path. Entries are
// enqueued on a bounded channel and written by a single consumer
// goroutine. Delivery is at-least-once and writes are idempotent (a
// later write with the same key overwrites), so duplicates are harmless.
type Writer struct {
	store *kv.Store
	queue chan Entry
	done  chan struct{}
}

func NewWriter(store *kv.Store, queueSize int) *Writer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Writer{
		store: store,
		queue: make(chan Entry, queueSize),
		done:  make(chan struct{}),
	}
}

// Start runs the consumer until ctx is canceled. Call once at boot.
func (w *Writer) Start(ctx context.Context) {
	go func() {
		defer close(w.done)
		for {
			select {
			case entry := <-w.queue:
				if err := w.store.SetEx(ctx, entry.Key, entry.Value, entry.TTL); err != nil {
					slog.Error("cache population failed", "error", err, "key", entry.Key)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Enqueue submits a write without blocking the caller.
func (w *Writer) Enqueue(entry Entry) {
	select {
	case w.queue <- entry:
	default:
		slog.Warn("cache queue full, dropping write", "key", entry.Key)
	}
}

// Wait blocks until the consumer has stopped. Used on shutdown and in
// tests.
func (w *Writer) Wait() {
	<-w.done
}
