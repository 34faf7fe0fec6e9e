// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, answers, is_public, require_recaptcha
  - VoteRequest: recaptcha_token (only read when the poll requires it)

# Response Types

Types for JSON responses:

  - PollListResponse: data, next_page
  - UserSelectionResponse: answer (null when none recorded)
  - VotersResponse: voters
  - ErrorResponse: error, message, stack (non-production only)

# Domain Types

Internal data structures:

  - Poll: question, owner, aggregate vote counter, visibility flags
  - Answer: one candidate option with its own vote counter
  - Vote: immutable record of one ballot for one answer
  - PollWithAnswers: denormalized poll snapshot used by reads and the
    live-results stream
  - Voter: public shape of an authenticated user who voted

# Constants

Sort fields accepted by the poll list endpoint:

	SortByCreatedAt  = "createdAt"
	SortByTotalVotes = "totalVotes"
*/
package models
