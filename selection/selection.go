// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selection

import (
	"context"

	"github.com/pollify/api/auth"
	"github.com/pollify/api/kv"
)

const keyPrefix = "selection:"

// Store records which answer an anonymous visitor most recently picked,
// keyed by (poll, client IP). It exists purely so the UI can render
// "you voted for X" for visitors without an account; it is advisory,
// overwritten on every vote, and never consulted for admission.
// Authenticated users resolve their choice from the vote table instead.
//
// IPs are stored as salted hashes, so the raw address never lands in
// Redis.
type Store struct {
	kv   *kv.Store
	salt string
}

func NewStore(kvStore *kv.Store, salt string) *Store {
	return &Store{kv: kvStore, salt: salt}
}

func (s *Store) key(pollID, ip string) string {
	return keyPrefix + pollID + ":" + auth.HashIP(ip, s.salt)
}

// Set records the visitor's latest choice, overwriting any prior entry.
func (s *Store) Set(ctx context.Context, pollID, ip, answerID string) error {
	return s.kv.Set(ctx, s.key(pollID, ip), []byte(answerID))
}

// Get returns the recorded answer ID, or ok=false when none exists.
func (s *Store) Get(ctx context.Context, pollID, ip string) (string, bool, error) {
	val, err := s.kv.Get(ctx, s.key(pollID, ip))
	if err == kv.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}
