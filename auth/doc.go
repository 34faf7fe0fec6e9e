// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth resolves the optional authenticated identity on a request.

# Sessions

The identity provider is external; this package only verifies the
HMAC-signed session tokens it issues. Tokens arrive either as

	Authorization: Bearer <token>

or in the session-token cookie. WithSession parses the token and places
a *Session in the request context:

	mux.HandleFunc("GET /polls/{pollId}/user-selection",
		auth.WithSession(cfg.SessionSecret, handler.GetUserSelection))

A missing or invalid token is never an error - every route that consults
identity treats the caller as anonymous instead.

# Claims

	sub  → Session.UserID (required)
	name → Session.Name
	plan → Session.Plan (defaults to "free")

# IP Hashing

HashIP produces a salted one-way hash of a client IP for places that
must key on an address without storing it.
*/
package auth
