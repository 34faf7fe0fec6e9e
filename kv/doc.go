// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package kv wraps the shared Redis connection behind a small capability.

# Lifecycle

Connect at boot, close on shutdown:

	store, err := kv.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

The *kv.Store is injected into every component that needs shared mutable
state (cache middleware, rate limiter, anonymous selection store, live
results streamer) instead of living in a package-level singleton.

# Keyspaces

	cache:<request-uri>[:<user-id>]   cached response payloads
	ratelimit:<ip>                    fixed-window request counters
	selection:<poll-id>:<ip>          anonymous voter selections
	live:<poll-id>                    short-TTL live result snapshots

# Consistency

Everything in Redis is advisory or reconstructible: readers may observe
data up to the relevant TTL's staleness bound, and losing the whole
keyspace costs only cache recomputes and a reset rate-limit window.
*/
package kv
