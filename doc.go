// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Pollify API server.

Pollify is a polling service where many concurrent clients vote on
shared polls and watch aggregate results update in near real time.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... REDIS_URL=redis://... SESSION_SECRET=... go run main.go

Or with flags:

	go run main.go -p 3000 -d "postgres://..." -r "redis://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string
  - REDIS_URL (-r): Redis connection string
  - SESSION_SECRET (--session-secret): Secret verifying session tokens

Optional settings:

  - PORT (-p): Server port (default: 3000)
  - RECAPTCHA_SECRET_TOKEN: reCAPTCHA shared secret
  - ANALYTICS_URL / ANALYTICS_TOKEN: analytics sink
  - GEO_API_URL: geolocation API base URL
  - ENV: "development" (default) or "production"

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (polls, voting, live results)
  - router: Route definitions and middleware pipeline
  - middleware: CORS, logging, JSON helpers
  - ratelimit: Redis-backed fixed-window request limiter
  - cache: read-through/write-behind response cache
  - kv: shared Redis capability
  - selection: anonymous voter selection store
  - captcha / geoip / analytics: external collaborator clients
  - auth: session token parsing
  - models: Request/response types
  - db: Schema creation
  - cliparse: Configuration parsing

PostgreSQL is the single source of truth for polls, answers, and votes;
everything in Redis is cache-grade state that may be stale or lost.

See package documentation for each component.
*/
package main
