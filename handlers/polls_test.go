// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pollify/api/auth"
	"github.com/pollify/api/cache"
	"github.com/pollify/api/models"
	"github.com/pollify/api/selection"
	"github.com/pollify/api/testutil"
)

func newTestPollHandler(t *testing.T, db *sql.DB) (*PollHandler, *selection.Store) {
	t.Helper()

	kvStore, _ := testutil.SetupTestKV(t)
	selections := selection.NewStore(kvStore, testutil.TestSessionSecret)
	cacheMW := cache.New(kvStore, cache.NewWriter(kvStore, 8))

	return NewPollHandler(db, testutil.GetTestConfig(), selections, cacheMW), selections
}

func TestGetPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, _ := newTestPollHandler(t, db)

	pollID := testutil.CreateTestPoll(t, db, "Favorite season?", false)
	a1 := testutil.AddTestAnswer(t, db, pollID, "summer")
	testutil.AddTestAnswer(t, db, pollID, "winter")
	testutil.SetAnswerVotes(t, db, pollID, a1, 4)

	t.Run("existing poll", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/"+pollID, nil, nil)
		req.SetPathValue("pollId", pollID)

		w := httptest.NewRecorder()
		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var data models.PollWithAnswers
		testutil.AssertJSON(t, w, &data)
		if data.Poll.ID != pollID {
			t.Errorf("Expected poll %s, got %s", pollID, data.Poll.ID)
		}
		if data.Poll.TotalVotes != 4 {
			t.Errorf("Expected total_votes 4, got %d", data.Poll.TotalVotes)
		}
		if len(data.Answers) != 2 {
			t.Errorf("Expected 2 answers, got %d", len(data.Answers))
		}
	})

	t.Run("missing poll", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/polls/nope", nil, nil)
		req.SetPathValue("pollId", "nope")

		w := httptest.NewRecorder()
		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestListPolls(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, _ := newTestPollHandler(t, db)

	for i := 0; i < 3; i++ {
		pollID := testutil.CreateTestPoll(t, db, fmt.Sprintf("Public poll %d", i), false)
		a := testutil.AddTestAnswer(t, db, pollID, "a")
		testutil.SetAnswerVotes(t, db, pollID, a, i*10)
	}

	// Private polls never show up in the listing.
	privateID := testutil.CreateTestPoll(t, db, "Private poll", false)
	if _, err := db.Exec(`UPDATE poll SET is_public = FALSE WHERE id = $1`, privateID); err != nil {
		t.Fatalf("Failed to hide poll: %v", err)
	}

	listPolls := func(t *testing.T, query string) models.PollListResponse {
		t.Helper()
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls"+query, nil, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PollListResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	t.Run("excludes private polls", func(t *testing.T) {
		resp := listPolls(t, "")
		if len(resp.Data) != 3 {
			t.Errorf("Expected 3 public polls, got %d", len(resp.Data))
		}
		for _, p := range resp.Data {
			if p.ID == privateID {
				t.Error("Private poll leaked into the listing")
			}
		}
	})

	t.Run("pagination", func(t *testing.T) {
		resp := listPolls(t, "?page=1&limit=2")
		if len(resp.Data) != 2 {
			t.Errorf("Expected 2 polls on page 1, got %d", len(resp.Data))
		}
		if resp.NextPage == nil || *resp.NextPage != 2 {
			t.Errorf("Expected next_page 2, got %v", resp.NextPage)
		}

		resp = listPolls(t, "?page=2&limit=2")
		if len(resp.Data) != 1 {
			t.Errorf("Expected 1 poll on page 2, got %d", len(resp.Data))
		}
		if resp.NextPage != nil {
			t.Errorf("Last page must have no next_page, got %d", *resp.NextPage)
		}
	})

	t.Run("sort by total votes", func(t *testing.T) {
		resp := listPolls(t, "?sortBy=totalVotes&orderBy=desc")
		if len(resp.Data) != 3 {
			t.Fatalf("Expected 3 polls, got %d", len(resp.Data))
		}
		if resp.Data[0].TotalVotes < resp.Data[1].TotalVotes ||
			resp.Data[1].TotalVotes < resp.Data[2].TotalVotes {
			t.Errorf("Polls not sorted by total_votes desc: %d, %d, %d",
				resp.Data[0].TotalVotes, resp.Data[1].TotalVotes, resp.Data[2].TotalVotes)
		}

		resp = listPolls(t, "?sortBy=totalVotes&orderBy=asc")
		if resp.Data[0].TotalVotes != 0 {
			t.Errorf("Expected least-voted poll first, got %d votes", resp.Data[0].TotalVotes)
		}
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls?sortBy=question", nil, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("rejects unknown order", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ListPolls(w, testutil.MakeRequest("GET", "/polls?orderBy=sideways", nil, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestGetVoters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, _ := newTestPollHandler(t, db)

	pollID := testutil.CreateTestPoll(t, db, "Voter poll", false)
	a1 := testutil.AddTestAnswer(t, db, pollID, "a")

	alice, bob := "user-alice", "user-bob"
	testutil.SubmitTestVote(t, db, pollID, a1, &alice)
	testutil.SubmitTestVote(t, db, pollID, a1, &alice) // duplicate, must collapse
	testutil.SubmitTestVote(t, db, pollID, a1, &bob)
	testutil.SubmitTestVote(t, db, pollID, a1, nil) // anonymous, must not appear

	req := testutil.MakeRequest("GET", "/polls/"+pollID+"/voters", nil, nil)
	req.SetPathValue("pollId", pollID)

	w := httptest.NewRecorder()
	handler.GetVoters(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VotersResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Voters) != 2 {
		t.Errorf("Expected 2 distinct voters, got %d", len(resp.Voters))
	}
	seen := map[string]bool{}
	for _, v := range resp.Voters {
		seen[v.ID] = true
	}
	if !seen[alice] || !seen[bob] {
		t.Errorf("Expected voters %s and %s, got %v", alice, bob, resp.Voters)
	}
}

func TestGetUserSelection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, selections := newTestPollHandler(t, db)

	pollID := testutil.CreateTestPoll(t, db, "Selection poll", false)
	a1 := testutil.AddTestAnswer(t, db, pollID, "a")
	a2 := testutil.AddTestAnswer(t, db, pollID, "b")

	selectionRequest := func(headers map[string]string) *http.Request {
		req := testutil.MakeRequest("GET", "/polls/"+pollID+"/user-selection", nil, headers)
		req.SetPathValue("pollId", pollID)
		return req
	}

	t.Run("authenticated voter sees vote from storage", func(t *testing.T) {
		userID := "user-7"
		testutil.SubmitTestVote(t, db, pollID, a1, &userID)

		token := testutil.SessionToken(t, userID, "Kim")
		wrapped := auth.WithSession(testutil.TestSessionSecret, handler.GetUserSelection)

		w := httptest.NewRecorder()
		wrapped(w, selectionRequest(map[string]string{"Authorization": "Bearer " + token}))

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.UserSelectionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Answer == nil || resp.Answer.ID != a1 {
			t.Errorf("Expected answer %s, got %+v", a1, resp.Answer)
		}
	})

	t.Run("anonymous visitor sees recorded selection", func(t *testing.T) {
		if err := selections.Set(context.Background(), pollID, "198.51.100.7", a2); err != nil {
			t.Fatalf("Failed to seed selection: %v", err)
		}

		w := httptest.NewRecorder()
		handler.GetUserSelection(w, selectionRequest(map[string]string{"X-Forwarded-For": "198.51.100.7"}))

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.UserSelectionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Answer == nil || resp.Answer.ID != a2 {
			t.Errorf("Expected answer %s, got %+v", a2, resp.Answer)
		}
	})

	t.Run("no selection yields null answer", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.GetUserSelection(w, selectionRequest(map[string]string{"X-Forwarded-For": "198.51.100.99"}))

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.UserSelectionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Answer != nil {
			t.Errorf("Expected null answer, got %+v", resp.Answer)
		}
	})

	t.Run("selection pointing at deleted answer yields null", func(t *testing.T) {
		stale := testutil.CreateTestPoll(t, db, "Stale poll", false)
		gone := testutil.AddTestAnswer(t, db, stale, "gone")
		if err := selections.Set(context.Background(), stale, "198.51.100.8", gone); err != nil {
			t.Fatalf("Failed to seed selection: %v", err)
		}
		if _, err := db.Exec(`DELETE FROM answer WHERE id = $1`, gone); err != nil {
			t.Fatalf("Failed to delete answer: %v", err)
		}

		req := testutil.MakeRequest("GET", "/polls/"+stale+"/user-selection", nil,
			map[string]string{"X-Forwarded-For": "198.51.100.8"})
		req.SetPathValue("pollId", stale)

		w := httptest.NewRecorder()
		handler.GetUserSelection(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.UserSelectionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Answer != nil {
			t.Errorf("Expected null answer for deleted answer, got %+v", resp.Answer)
		}
	})
}

func TestCreatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler, _ := newTestPollHandler(t, db)

	t.Run("valid poll", func(t *testing.T) {
		body := models.CreatePollRequest{
			Question: "Tabs or spaces?",
			Answers: []models.CreateAnswerRequest{
				{Text: "tabs"},
				{Text: "spaces"},
			},
			RequireRecaptcha: true,
		}

		w := httptest.NewRecorder()
		handler.CreatePoll(w, testutil.MakeRequest("POST", "/polls", body, nil))

		testutil.AssertStatus(t, w, http.StatusCreated)

		var data models.PollWithAnswers
		testutil.AssertJSON(t, w, &data)
		if data.Poll.Question != body.Question {
			t.Errorf("Expected question %q, got %q", body.Question, data.Poll.Question)
		}
		if !data.Poll.RequireRecaptcha {
			t.Error("Expected require_recaptcha to be set")
		}
		if len(data.Answers) != 2 {
			t.Errorf("Expected 2 answers, got %d", len(data.Answers))
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM answer WHERE poll_id = $1`, data.Poll.ID).Scan(&count); err != nil {
			t.Fatalf("Failed to count answers: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 answer rows, got %d", count)
		}
	})

	t.Run("authenticated creator is recorded as owner", func(t *testing.T) {
		body := models.CreatePollRequest{
			Question: "Owned poll?",
			Answers:  []models.CreateAnswerRequest{{Text: "y"}, {Text: "n"}},
		}
		token := testutil.SessionToken(t, "owner-1", "Ona")
		wrapped := auth.WithSession(testutil.TestSessionSecret, handler.CreatePoll)

		w := httptest.NewRecorder()
		wrapped(w, testutil.MakeRequest("POST", "/polls", body,
			map[string]string{"Authorization": "Bearer " + token}))

		testutil.AssertStatus(t, w, http.StatusCreated)

		var data models.PollWithAnswers
		testutil.AssertJSON(t, w, &data)
		if data.Poll.UserID == nil || *data.Poll.UserID != "owner-1" {
			t.Errorf("Expected owner owner-1, got %v", data.Poll.UserID)
		}
	})

	invalidCases := []struct {
		name string
		body models.CreatePollRequest
	}{
		{
			name: "missing question",
			body: models.CreatePollRequest{
				Answers: []models.CreateAnswerRequest{{Text: "a"}, {Text: "b"}},
			},
		},
		{
			name: "too few answers",
			body: models.CreatePollRequest{
				Question: "Lonely?",
				Answers:  []models.CreateAnswerRequest{{Text: "a"}},
			},
		},
		{
			name: "empty answer text",
			body: models.CreatePollRequest{
				Question: "Blank?",
				Answers:  []models.CreateAnswerRequest{{Text: "a"}, {Text: ""}},
			},
		},
	}

	for _, tc := range invalidCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.CreatePoll(w, testutil.MakeRequest("POST", "/polls", tc.body, nil))
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}

	t.Run("too many answers", func(t *testing.T) {
		body := models.CreatePollRequest{Question: "Crowded?"}
		for i := 0; i < maxAnswers+1; i++ {
			body.Answers = append(body.Answers, models.CreateAnswerRequest{Text: fmt.Sprintf("a%d", i)})
		}

		w := httptest.NewRecorder()
		handler.CreatePoll(w, testutil.MakeRequest("POST", "/polls", body, nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestDeletePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	kvStore, _ := testutil.SetupTestKV(t)
	selections := selection.NewStore(kvStore, testutil.TestSessionSecret)
	cacheMW := cache.New(kvStore, cache.NewWriter(kvStore, 8))
	handler := NewPollHandler(db, testutil.GetTestConfig(), selections, cacheMW)

	pollID := testutil.CreateTestPoll(t, db, "Doomed poll", false)
	a1 := testutil.AddTestAnswer(t, db, pollID, "a")
	testutil.SubmitTestVote(t, db, pollID, a1, nil)

	// Stale cache slots that must disappear with the poll.
	detailKey := cache.Key("/polls/"+pollID, "")
	if err := kvStore.Set(context.Background(), detailKey, []byte(`{}`)); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}
	if err := kvStore.Set(context.Background(), liveKey(pollID), []byte(`{}`)); err != nil {
		t.Fatalf("Failed to seed live slot: %v", err)
	}

	req := testutil.MakeRequest("DELETE", "/polls/"+pollID, nil, nil)
	req.SetPathValue("pollId", pollID)

	w := httptest.NewRecorder()
	handler.DeletePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM poll WHERE id = $1`, pollID).Scan(&count); err != nil {
		t.Fatalf("Failed to count polls: %v", err)
	}
	if count != 0 {
		t.Error("Poll still present after delete")
	}

	// Answers and votes cascade with the poll.
	if err := db.QueryRow(`SELECT COUNT(*) FROM answer WHERE poll_id = $1`, pollID).Scan(&count); err != nil {
		t.Fatalf("Failed to count answers: %v", err)
	}
	if count != 0 {
		t.Error("Answers not cascaded on poll delete")
	}

	if _, err := kvStore.Get(context.Background(), detailKey); err == nil {
		t.Error("Detail cache slot survived poll delete")
	}
	if _, err := kvStore.Get(context.Background(), liveKey(pollID)); err == nil {
		t.Error("Live snapshot slot survived poll delete")
	}

	t.Run("second delete is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.DeletePoll(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}
