// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package captcha gates vote admission through the external reCAPTCHA
verifier.

Verify submits the client token with the shared secret and returns the
verifier's decision:

	result, err := verifier.Verify(ctx, token)
	if err != nil || !result.Success {
		// reject the vote, no tally mutation
	}

A verifier outage blocks the vote the same way an invalid token does:
the caller treats both as an authorization failure. Diagnostic codes
from the service are surfaced in Result.ErrorCodes for logging.
*/
package captcha
