// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    user_id TEXT,
    total_votes INTEGER NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
    is_public BOOLEAN NOT NULL DEFAULT TRUE,
    require_recaptcha BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_poll_user_id ON poll(user_id);
CREATE INDEX IF NOT EXISTS idx_poll_created_at ON poll(created_at);
CREATE INDEX IF NOT EXISTS idx_poll_total_votes ON poll(total_votes);

-- Answers
CREATE TABLE IF NOT EXISTS answer (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    text TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0)
);

CREATE INDEX IF NOT EXISTS idx_answer_poll_id ON answer(poll_id);

-- Votes (append-only; removed only by cascading poll deletion)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    answer_id TEXT NOT NULL REFERENCES answer(id) ON DELETE CASCADE,
    user_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vote_poll_id ON vote(poll_id);
CREATE INDEX IF NOT EXISTS idx_vote_user_poll ON vote(user_id, poll_id);
`
