// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package geoip resolves approximate client location from an IP address
using an ip-api.com style endpoint.

Lookups are best-effort enrichment for analytics only: any error (throttle,
network, non-success status) makes the caller fall back to unknown
fields. Outbound calls are locally throttled to stay inside the free
tier's 45 requests/minute.
*/
package geoip
