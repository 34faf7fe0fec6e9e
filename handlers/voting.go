// Copyright (c) 2025 Pollify.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pollify/api/analytics"
	"github.com/pollify/api/auth"
	"github.com/pollify/api/cache"
	"github.com/pollify/api/captcha"
	"github.com/pollify/api/cliparse"
	"github.com/pollify/api/middleware"
	"github.com/pollify/api/models"
	"github.com/pollify/api/selection"
)

// sideEffectTimeout bounds the detached post-commit work (selection
// write, geo lookup, analytics dispatch).
const sideEffectTimeout = 15 * time.Second

type VotingHandler struct {
	db         *sql.DB
	cfg        cliparse.Config
	verifier   *captcha.Verifier
	selections *selection.Store
	emitter    *analytics.Emitter
	cache      *cache.Middleware
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, verifier *captcha.Verifier,
	selections *selection.Store, emitter *analytics.Emitter, cacheMW *cache.Middleware) *VotingHandler {
	return &VotingHandler{
		db:         db,
		cfg:        cfg,
		verifier:   verifier,
		selections: selections,
		emitter:    emitter,
		cache:      cacheMW,
	}
}

// Vote handles POST /polls/{pollId}/answers/{answerId}/vote
func (h *VotingHandler) Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("pollId")
	answerID := r.PathValue("answerId")
	if pollID == "" || answerID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollId and answerId are required")
		return
	}

	// Body is optional; only CAPTCHA-gated polls need a token.
	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil && err != io.EOF {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var requireRecaptcha bool
	var ownerID sql.NullString
	err := h.db.QueryRowContext(r.Context(), `
		SELECT require_recaptcha, user_id FROM poll WHERE id = $1
	`, pollID).Scan(&requireRecaptcha, &ownerID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}

	// CAPTCHA gate: a verifier outage blocks the vote the same way an
	// invalid token does. No tally mutation, no analytics.
	if requireRecaptcha {
		if req.RecaptchaToken == "" {
			middleware.ErrorResponse(w, http.StatusForbidden, "reCAPTCHA token required")
			return
		}
		result, err := h.verifier.Verify(r.Context(), req.RecaptchaToken)
		if err != nil {
			slog.Warn("captcha verification unavailable", "error", err, "poll_id", pollID)
			middleware.ErrorResponse(w, http.StatusForbidden, "Invalid reCAPTCHA verification.")
			return
		}
		if !result.Success {
			slog.Info("captcha rejected", "poll_id", pollID, "codes", result.ErrorCodes)
			middleware.ErrorResponse(w, http.StatusForbidden, "Invalid reCAPTCHA verification.")
			return
		}
	}

	// The answer must belong to the poll being voted on.
	var answerExists bool
	err = h.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM answer WHERE id = $1 AND poll_id = $2)
	`, answerID, pollID).Scan(&answerExists)

	if err != nil {
		slog.Error("failed to verify answer", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}
	if !answerExists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Answer not found for this poll")
		return
	}

	session := auth.SessionFromContext(r.Context())
	var userID *string
	if session != nil {
		userID = &session.UserID
	}

	vote := models.Vote{
		ID:        uuid.NewString(),
		PollID:    pollID,
		AnswerID:  answerID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	// One atomic unit of work: both counters move and the vote row
	// lands together, or none of it does. The increments are SQL
	// deltas so concurrent submissions never lose an update.
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Database error", h.cfg.Production())
		return
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`
		UPDATE poll SET total_votes = total_votes + 1 WHERE id = $1
	`, pollID); err != nil {
		slog.Error("failed to increment poll counter", "error", err, "poll_id", pollID)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to submit vote", h.cfg.Production())
		return
	}

	if _, err = tx.Exec(`
		UPDATE answer SET votes = votes + 1 WHERE id = $1
	`, answerID); err != nil {
		slog.Error("failed to increment answer counter", "error", err, "answer_id", answerID)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to submit vote", h.cfg.Production())
		return
	}

	if _, err = tx.Exec(`
		INSERT INTO vote (id, poll_id, answer_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, vote.ID, vote.PollID, vote.AnswerID, vote.UserID, vote.CreatedAt); err != nil {
		slog.Error("failed to insert vote", "error", err, "poll_id", pollID)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to submit vote", h.cfg.Production())
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit vote", "error", err, "poll_id", pollID)
		middleware.ErrorResponseDebug(w, http.StatusInternalServerError, "Failed to submit vote", h.cfg.Production())
		return
	}

	slog.Info("vote submitted", "poll_id", pollID, "answer_id", answerID, "vote_id", vote.ID,
		"authenticated", session != nil)

	// Post-commit side effects run detached: none of them may delay or
	// fail the response, and none can roll back the committed vote.
	clientIP := middleware.GetClientIP(r)
	userAgent := r.UserAgent()
	go h.afterVote(vote, session, ownerID, clientIP, userAgent)

	middleware.JSONResponse(w, http.StatusCreated, vote)
}

func (h *VotingHandler) afterVote(vote models.Vote, session *auth.Session,
	ownerID sql.NullString, clientIP, userAgent string) {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	if session == nil {
		if err := h.selections.Set(ctx, vote.PollID, clientIP, vote.AnswerID); err != nil {
			slog.Warn("failed to record anonymous selection", "error", err, "poll_id", vote.PollID)
		}
	}

	if err := h.cache.Invalidate(ctx,
		cache.Key("/polls/"+vote.PollID, ""),
		liveKey(vote.PollID),
	); err != nil {
		slog.Warn("cache invalidation failed", "error", err, "poll_id", vote.PollID)
	}

	raw := analytics.RawEvent{
		VoteID:   vote.ID,
		PollID:   vote.PollID,
		AnswerID: vote.AnswerID,
		IP:       clientIP,
		UA:       userAgent,
	}
	if session != nil {
		raw.UserID = session.UserID
	}
	if ownerID.Valid {
		raw.OwnerID = ownerID.String
	}
	h.emitter.EmitVote(ctx, raw)
}
