// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cache provides the read-through/write-behind response cache for
read-heavy endpoints.

# Wiring

One Writer and one Middleware are built at boot and shared:

	writer := cache.NewWriter(store, cache.DefaultQueueSize)
	writer.Start(ctx)
	cacheMW := cache.New(store, writer)

Routes opt in with a TTL:

	withCache := cacheMW.Wrap(5*time.Minute, cache.Options{})
	mux.HandleFunc("GET /polls", withCache(handler.ListPolls))

# Semantics

  - Key: request URI, suffixed with the caller's user ID when
    RequireUser is set.
  - RequireUser without a session: the wrapper passes straight through,
    no lookup and no population. Per-user payloads must never be cached
    keyed by IP or anonymous state.
  - Hit: the cached payload is returned and the handler never runs.
  - Miss: the handler runs through a capture recorder; a 200 response is
    enqueued for population. Non-200 output is never cached.
  - Population: bounded channel, single consumer, SETEX per entry.
    At-least-once delivery with idempotent overwrites; a full queue
    drops the write with a warning.

# Invalidation

Invalidate(ctx, keys...) deletes cached payloads. The vote and poll
deletion paths call it for the poll-detail and live-results keys they
make stale; short-TTL list keys are left to expire.
*/
package cache
