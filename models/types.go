package models

import "time"

// Sortable poll list fields
const (
	SortByCreatedAt  = "createdAt"
	SortByTotalVotes = "totalVotes"
)

// Request types

type CreatePollRequest struct {
	Question         string                `json:"question"`
	Answers          []CreateAnswerRequest `json:"answers"`
	IsPublic         *bool                 `json:"is_public,omitempty"`
	RequireRecaptcha bool                  `json:"require_recaptcha"`
}

type CreateAnswerRequest struct {
	Text string `json:"text"`
}

type VoteRequest struct {
	RecaptchaToken string `json:"recaptcha_token,omitempty"`
}

// Response types

type PollListResponse struct {
	Data     []Poll `json:"data"`
	NextPage *int   `json:"next_page,omitempty"`
}

type UserSelectionResponse struct {
	Answer *Answer `json:"answer"`
}

type VotersResponse struct {
	Voters []Voter `json:"voters"`
}

// Domain types

type Poll struct {
	ID               string    `json:"id"`
	Question         string    `json:"question"`
	UserID           *string   `json:"user_id,omitempty"`
	TotalVotes       int       `json:"total_votes"`
	IsPublic         bool      `json:"is_public"`
	RequireRecaptcha bool      `json:"require_recaptcha"`
	CreatedAt        time.Time `json:"created_at"`
}

type Answer struct {
	ID     string `json:"id"`
	PollID string `json:"poll_id"`
	Text   string `json:"text"`
	Votes  int    `json:"votes"`
}

type Vote struct {
	ID        string    `json:"id"`
	PollID    string    `json:"poll_id"`
	AnswerID  string    `json:"answer_id"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type PollWithAnswers struct {
	Poll    Poll     `json:"poll"`
	Answers []Answer `json:"answers"`
}

// Voter identifies an authenticated user who cast a vote. The identity
// provider owns the rest of the profile.
type Voter struct {
	ID string `json:"id"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}
