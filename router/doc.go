// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines all API routes and composes the middleware
pipeline.

# Pipeline Order

Outermost to innermost:

	rate limiter → CORS → routing → logging → session → cache → handler

The rate limiter sits ahead of routing so breaching requests never
reach a handler, CORS included. Cache wrapping applies only to the
read routes that opt in.

# Routes

	GET    /health
	GET    /polls
	POST   /polls
	GET    /polls/{pollId}
	DELETE /polls/{pollId}
	GET    /polls/{pollId}/voters
	GET    /polls/{pollId}/user-selection
	GET    /polls/{pollId}/live-results
	POST   /polls/{pollId}/answers/{answerId}/vote

Uses Go 1.22+ method and wildcard routing on the standard ServeMux.
*/
package router
