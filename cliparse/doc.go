// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded first via godotenv, so
local development can keep secrets out of the shell history.

# Config Fields

  - Port: Server listen port (default: 3000)
  - DatabaseURL: PostgreSQL connection string (required)
  - RedisURL: Redis connection string (required)
  - SessionSecret: Secret verifying session tokens (required)
  - RecaptchaSecret: reCAPTCHA shared secret (optional)
  - AnalyticsURL / AnalyticsToken: analytics sink (optional)
  - GeoAPIURL: geolocation API base (default: http://ip-api.com/json)
  - Env: "development" or "production"

# CLI Flags

	-p                 Server port
	-d                 Database URL
	-r                 Redis URL
	--session-secret   Session token secret
	--recaptcha-secret reCAPTCHA secret
	--analytics-url    Analytics ingest URL
	--analytics-token  Analytics token
	--geo-api-url      Geolocation API base URL
	--env              Environment name

# Environment Variables

Flags fall back to environment variables:

	PORT                   → -p
	DATABASE_URL           → -d
	REDIS_URL              → -r
	SESSION_SECRET         → --session-secret
	RECAPTCHA_SECRET_TOKEN → --recaptcha-secret
	ANALYTICS_URL          → --analytics-url
	ANALYTICS_TOKEN        → --analytics-token
	GEO_API_URL            → --geo-api-url
	ENV                    → --env

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - REDIS_URL must be provided
  - SESSION_SECRET must be provided

RecaptchaSecret and the analytics settings are optional: without them,
CAPTCHA-gated votes are rejected and analytics dispatch is skipped.
*/
package cliparse
