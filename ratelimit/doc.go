// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit enforces a fixed-window request limit per client IP.

# Placement

The limiter is the very first pipeline stage, ahead of routing, CORS,
and session handling:

	limiter := ratelimit.New(store, ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	handler := limiter.Middleware(corsWrappedMux)

# Algorithm

One Redis counter per IP: INCR on every request, EXPIRE set when the
counter is created. Requests beyond the limit inside the window get 429
with a Retry-After header. There is no sliding-window smoothing; the
window resets when the counter's TTL elapses.

Every response (allowed or rejected) carries the draft-6 headers:

	RateLimit-Limit
	RateLimit-Remaining
	RateLimit-Reset

# Failure Mode

KV errors are logged and the request is admitted (fail open).
*/
package ratelimit
