// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pollify/api/testutil"
)

// TestConcurrentVotes fires 50 simultaneous votes at one answer and
// asserts no update is lost: both counters land at seed+50 and every
// vote row exists.
func TestConcurrentVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, _, _ := newTestVotingHandler(t, db, stubCaptcha(t, true).URL)

	pollID := testutil.CreateTestPoll(t, db, "Concurrent poll", false)
	a1 := testutil.AddTestAnswer(t, db, pollID, "a")
	a2 := testutil.AddTestAnswer(t, db, pollID, "b")
	testutil.SetAnswerVotes(t, db, pollID, a1, 8)

	const numVoters = 50

	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := httptest.NewRecorder()
			handler.Vote(w, voteRequest(pollID, a1, nil, nil))
			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := successCount.Load(); got != numVoters {
		t.Errorf("Expected %d successful votes, got %d", numVoters, got)
	}

	total, answers := pollCounters(t, db, pollID)
	if total != 8+numVoters {
		t.Errorf("Expected total_votes %d, got %d", 8+numVoters, total)
	}
	if answers[a1] != 8+numVoters {
		t.Errorf("Expected answer votes %d, got %d", 8+numVoters, answers[a1])
	}
	if answers[a2] != 0 {
		t.Errorf("Untouched answer moved to %d", answers[a2])
	}

	var voteCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&voteCount); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if voteCount != numVoters {
		t.Errorf("Expected %d vote rows, got %d", numVoters, voteCount)
	}
}

// TestConcurrentVotesAcrossAnswers splits concurrent votes over two
// answers; the poll total still accounts for every one.
func TestConcurrentVotesAcrossAnswers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, _, _ := newTestVotingHandler(t, db, stubCaptcha(t, true).URL)

	pollID := testutil.CreateTestPoll(t, db, "Split poll", false)
	a1 := testutil.AddTestAnswer(t, db, pollID, "a")
	a2 := testutil.AddTestAnswer(t, db, pollID, "b")

	const perAnswer = 20

	var wg sync.WaitGroup
	for i := 0; i < perAnswer; i++ {
		for _, answerID := range []string{a1, a2} {
			wg.Add(1)
			go func(answerID string) {
				defer wg.Done()

				w := httptest.NewRecorder()
				handler.Vote(w, voteRequest(pollID, answerID, nil, nil))
				if w.Code != http.StatusCreated {
					t.Errorf("Vote failed with status %d: %s", w.Code, w.Body.String())
				}
			}(answerID)
		}
	}
	wg.Wait()

	total, answers := pollCounters(t, db, pollID)
	if total != 2*perAnswer {
		t.Errorf("Expected total_votes %d, got %d", 2*perAnswer, total)
	}
	if answers[a1] != perAnswer || answers[a2] != perAnswer {
		t.Errorf("Expected %d votes per answer, got %d and %d", perAnswer, answers[a1], answers[a2])
	}
}
