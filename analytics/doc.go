// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package analytics enriches and dispatches vote events to the external
analytics sink.

# Flow

EmitVote runs strictly after the vote transaction commits, from a
detached goroutine:

	go emitter.EmitVote(ctx, analytics.RawEvent{...})

Enrichment adds geolocation (via the geoip package) and browser/OS/
device facets parsed from the user-agent string. Any field that cannot
be resolved falls back to "Unknown" (device to "desktop"), mirroring
the sink's schema defaults.

# Guarantees

None, on purpose. A failed geolocation lookup degrades the event; a
failed dispatch logs a warning and drops it. Nothing in this package can
affect a vote's success response. An Emitter with no sink URL configured
is a no-op.
*/
package analytics
