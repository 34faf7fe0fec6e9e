// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Pipeline

The server composes an explicit, ordered pipeline. Outermost first:

	rate limiter → CORS → (per route) logging → session → cache → handler

The rate limiter and CORS wrap the whole mux (see the ratelimit package
and router.New); the remaining stages are plain func(http.HandlerFunc)
http.HandlerFunc wrappers applied per route.

# Helpers

  - WithLogging: request start/completion logging with durations
  - JSONResponse / ErrorResponse: JSON encoding with standard error shape
  - ErrorResponseDebug: adds a stack trace outside production
  - ParseJSONBody: decode request bodies
  - CORS: permissive cross-origin headers + preflight handling
  - GetClientIP: proxy-aware client address extraction
*/
package middleware
