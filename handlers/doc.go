// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Pollify API.

# Handler Types

Each handler is a struct holding the capabilities it needs:

  - PollHandler: poll reads (detail, list, voters, user selection) plus
    the thin create/delete glue
  - VotingHandler: vote submission (the only write-heavy path)
  - LiveHandler: the SSE live results streamer

Handlers are created via constructor functions:

	votingHandler := handlers.NewVotingHandler(db, cfg, verifier, selections, emitter, cacheMW)

# Vote Submission

	POST /polls/{pollId}/answers/{answerId}/vote

The submission pipeline: poll lookup → CAPTCHA gate (when the poll
requires it) → answer/poll cross-check → one atomic transaction
(poll counter +1, answer counter +1, vote row insert) → detached
post-commit side effects (anonymous selection write, cache
invalidation, analytics dispatch). A CAPTCHA failure or verifier
outage rejects the vote with no tally mutation and no analytics.

# Reads

	GET /polls/{pollId}                → poll + answers (cached 30 min)
	GET /polls                         → public polls, paginated (cached 5 min)
	GET /polls/{pollId}/voters         → distinct authenticated voters (cached 5 min)
	GET /polls/{pollId}/user-selection → caller's recorded choice (cached 12 h per user)

# Live Results

	GET /polls/{pollId}/live-results

Server-Sent Events. Each tick reads a 6-second snapshot slot (shared by
all viewers of the poll, singleflight on misses) and emits an event only
when the serialized snapshot differs from the last one sent on that
connection. The loop sleeps 5 seconds between ticks and ends when the
client disconnects or the poll is gone.
*/
package handlers
