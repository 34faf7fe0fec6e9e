// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/pollify/api/auth"
	"github.com/pollify/api/cache"
	"github.com/pollify/api/cliparse"
	"github.com/pollify/api/middleware"
	"github.com/pollify/api/models"
	"github.com/pollify/api/selection"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
	maxAnswers       = 10
	minAnswers       = 2
)

type PollHandler struct {
	db         *sql.DB
	cfg        cliparse.Config
	selections *selection.Store
	cache      *cache.Middleware
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config, selections *selection.Store,
	cacheMW *cache.Middleware) *PollHandler {
	return &PollHandler{db: db, cfg: cfg, selections: selections, cache: cacheMW}
}

// GetPoll handles GET /polls/{pollId}
// Returns the poll and its answers with current vote counts.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	data, err := fetchPollWithAnswers(r.Context(), h.db, pollID)
	if err == errPollNotFound {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}

	middleware.JSONResponse(w, http.StatusOK, data)
}

// ListPolls handles GET /polls
// Public polls only, paginated and sortable by createdAt or totalVotes.
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultPageLimit)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	skip := (page - 1) * limit

	sortColumn, ok := map[string]string{
		models.SortByCreatedAt:  "created_at",
		models.SortByTotalVotes: "total_votes",
	}[queryString(r, "sortBy", models.SortByCreatedAt)]
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "sortBy must be createdAt or totalVotes")
		return
	}

	direction := queryString(r, "orderBy", "desc")
	if direction != "asc" && direction != "desc" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "orderBy must be asc or desc")
		return
	}

	// Fetch one extra row to detect whether a next page exists.
	query := fmt.Sprintf(`
		SELECT id, question, user_id, total_votes, is_public, require_recaptcha, created_at
		FROM poll
		WHERE is_public = TRUE
		ORDER BY %s %s
		OFFSET $1 LIMIT $2
	`, sortColumn, direction)

	rows, err := h.db.QueryContext(r.Context(), query, skip, limit+1)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}
	defer rows.Close()

	polls := []models.Poll{}
	for rows.Next() {
		var poll models.Poll
		if err := rows.Scan(&poll.ID, &poll.Question, &poll.UserID, &poll.TotalVotes,
			&poll.IsPublic, &poll.RequireRecaptcha, &poll.CreatedAt); err != nil {
			slog.Error("failed to scan poll", "error", err)
			middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
			return
		}
		polls = append(polls, poll)
	}

	resp := models.PollListResponse{Data: polls}
	if len(polls) > limit {
		resp.Data = polls[:limit]
		next := page + 1
		resp.NextPage = &next
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetVoters handles GET /polls/{pollId}/voters
// Returns up to 10 distinct authenticated voters.
func (h *PollHandler) GetVoters(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT DISTINCT user_id FROM vote
		WHERE poll_id = $1 AND user_id IS NOT NULL
		LIMIT 10
	`, pollID)
	if err != nil {
		slog.Error("failed to query voters", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}
	defer rows.Close()

	voters := []models.Voter{}
	for rows.Next() {
		var voter models.Voter
		if err := rows.Scan(&voter.ID); err != nil {
			slog.Error("failed to scan voter", "error", err)
			middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
			return
		}
		voters = append(voters, voter)
	}

	middleware.JSONResponse(w, http.StatusOK, models.VotersResponse{Voters: voters})
}

// GetUserSelection handles GET /polls/{pollId}/user-selection
// Authenticated callers get their authoritative vote history; anonymous
// callers get the advisory selection recorded against their IP.
func (h *PollHandler) GetUserSelection(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	var answerID string
	session := auth.SessionFromContext(r.Context())

	if session != nil {
		err := h.db.QueryRowContext(r.Context(), `
			SELECT answer_id FROM vote
			WHERE user_id = $1 AND poll_id = $2
			ORDER BY created_at DESC
			LIMIT 1
		`, session.UserID, pollID).Scan(&answerID)

		if err != nil && err != sql.ErrNoRows {
			slog.Error("failed to query user vote", "error", err)
			middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
			return
		}
	} else {
		ip := middleware.GetClientIP(r)
		id, ok, err := h.selections.Get(r.Context(), pollID, ip)
		if err != nil {
			slog.Warn("failed to read anonymous selection", "error", err, "poll_id", pollID)
		} else if ok {
			answerID = id
		}
	}

	if answerID == "" {
		middleware.JSONResponse(w, http.StatusOK, models.UserSelectionResponse{Answer: nil})
		return
	}

	var answer models.Answer
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, poll_id, text, votes FROM answer WHERE id = $1
	`, answerID).Scan(&answer.ID, &answer.PollID, &answer.Text, &answer.Votes)

	if err == sql.ErrNoRows {
		// Selection points at an answer that no longer exists; the
		// selection store is advisory, so report no choice.
		middleware.JSONResponse(w, http.StatusOK, models.UserSelectionResponse{Answer: nil})
		return
	}
	if err != nil {
		slog.Error("failed to query answer", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UserSelectionResponse{Answer: &answer})
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Question == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Answers) < minAnswers || len(req.Answers) > maxAnswers {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("polls need between %d and %d answers", minAnswers, maxAnswers))
		return
	}
	for _, a := range req.Answers {
		if a.Text == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "answer text cannot be empty")
			return
		}
	}

	poll := models.Poll{
		ID:               uuid.NewString(),
		Question:         req.Question,
		TotalVotes:       0,
		IsPublic:         true,
		RequireRecaptcha: req.RequireRecaptcha,
		CreatedAt:        time.Now().UTC(),
	}
	if req.IsPublic != nil {
		poll.IsPublic = *req.IsPublic
	}
	if session := auth.SessionFromContext(r.Context()); session != nil {
		poll.UserID = &session.UserID
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`
		INSERT INTO poll (id, question, user_id, total_votes, is_public, require_recaptcha, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, poll.ID, poll.Question, poll.UserID, poll.TotalVotes, poll.IsPublic,
		poll.RequireRecaptcha, poll.CreatedAt); err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to create poll", h.cfg.Production())
		return
	}

	answers := make([]models.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answer := models.Answer{
			ID:     uuid.NewString(),
			PollID: poll.ID,
			Text:   a.Text,
		}
		if _, err = tx.Exec(`
			INSERT INTO answer (id, poll_id, text, votes)
			VALUES ($1, $2, $3, 0)
		`, answer.ID, answer.PollID, answer.Text); err != nil {
			slog.Error("failed to insert answer", "error", err)
			middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to create poll", h.cfg.Production())
			return
		}
		answers = append(answers, answer)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit poll", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to create poll", h.cfg.Production())
		return
	}

	slog.Info("poll created", "poll_id", poll.ID, "answers", len(answers))

	middleware.JSONResponse(w, http.StatusCreated, models.PollWithAnswers{
		Poll:    poll,
		Answers: answers,
	})
}

// DeletePoll handles DELETE /polls/{pollId}
// Answers and votes cascade; stale cache slots for this poll are dropped.
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId is required")
		return
	}

	result, err := h.db.ExecContext(r.Context(), `DELETE FROM poll WHERE id = $1`, pollID)
	if err != nil {
		slog.Error("failed to delete poll", "error", err, "poll_id", pollID)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to delete poll", h.cfg.Production())
		return
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	if err := h.cache.Invalidate(r.Context(),
		cache.Key("/polls/"+pollID, ""),
		liveKey(pollID),
	); err != nil {
		slog.Warn("cache invalidation failed", "error", err, "poll_id", pollID)
	}

	slog.Info("poll deleted", "poll_id", pollID)

	middleware.JSONResponse(w, http.StatusOK, map[string]any{})
}

// errPollNotFound distinguishes a missing poll from storage failures
// for callers that map it to 404 or a stream-terminating event.
var errPollNotFound = errors.New("poll not found")

// fetchPollWithAnswers loads the denormalized poll snapshot used by the
// detail endpoint and the live results streamer.
func fetchPollWithAnswers(ctx context.Context, db *sql.DB, pollID string) (*models.PollWithAnswers, error) {
	var poll models.Poll
	err := db.QueryRowContext(ctx, `
		SELECT id, question, user_id, total_votes, is_public, require_recaptcha, created_at
		FROM poll
		WHERE id = $1
	`, pollID).Scan(&poll.ID, &poll.Question, &poll.UserID, &poll.TotalVotes,
		&poll.IsPublic, &poll.RequireRecaptcha, &poll.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, errPollNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, poll_id, text, votes
		FROM answer
		WHERE poll_id = $1
		ORDER BY id
	`, poll.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answers := []models.Answer{}
	for rows.Next() {
		var answer models.Answer
		if err := rows.Scan(&answer.ID, &answer.PollID, &answer.Text, &answer.Votes); err != nil {
			return nil, err
		}
		answers = append(answers, answer)
	}

	return &models.PollWithAnswers{Poll: poll, Answers: answers}, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func queryString(r *http.Request, name, fallback string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return fallback
}
