// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - poll: question, owner, aggregate vote counter, visibility flags
  - answer: candidate options with per-answer vote counters
  - vote: append-only ballot records

The Postgres database is the single source of truth for these rows.
Cache entries, rate-limit counters, and anonymous selections live in
Redis and are allowed to be stale or lost without corrupting it.

# Relationships

	poll 1──* answer
	poll 1──* vote
	answer 1──* vote

All foreign keys use ON DELETE CASCADE, so deleting a poll removes its
answers and votes in one statement.

# Counters

poll.total_votes and answer.votes are only ever mutated with SQL deltas
(SET votes = votes + 1) inside the vote transaction, never with
read-then-write, so concurrent votes cannot lose increments.

# Indexes

Performance indexes on:

  - poll.user_id, poll.created_at, poll.total_votes (list sorting)
  - answer.poll_id
  - vote.poll_id
  - vote.(user_id, poll_id) (authenticated "what did I pick" lookups)
*/
package db
