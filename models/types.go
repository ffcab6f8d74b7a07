// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Vote directions as sent on the wire
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Votable item kinds
const (
	KindQuestion = "question"
	KindAnswer   = "answer"
)

// Notification types
const (
	NotifyNewAnswer      = "new_answer"
	NotifyAnswerAccepted = "answer_accepted"
)

// Request types

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type CreateAnswerRequest struct {
	Content string `json:"content"`
}

// Direction is "up" or "down"
type VoteRequest struct {
	Direction string `json:"direction"`
}

// Response types

type MessageResponse struct {
	Message string `json:"message"`
}

type RegisterResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	IsAdmin     bool   `json:"is_admin"`
}

type CreatedResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// VoteResponse reports the stored outcome of a vote. Clients reconciling
// optimistically only need the status code.
type VoteResponse struct {
	Message  string  `json:"message"`
	Votes    int     `json:"votes"`
	UserVote *string `json:"user_vote"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// Domain types

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Question carries the caller's own vote in UserVote (nil when the caller
// has not voted or is anonymous) so clients can seed vote state on load.
type Question struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Tags             []string  `json:"tags"`
	UserID           string    `json:"user_id"`
	Author           string    `json:"author"`
	Votes            int       `json:"votes"`
	UserVote         *string   `json:"user_vote"`
	AnswerCount      int       `json:"answer_count"`
	AcceptedAnswerID *string   `json:"accepted_answer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	Content    string    `json:"content"`
	UserID     string    `json:"user_id"`
	Author     string    `json:"author"`
	Votes      int       `json:"votes"`
	UserVote   *string   `json:"user_vote"`
	Accepted   bool      `json:"accepted"`
	CreatedAt  time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	ItemID    string    `json:"item_id"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Flag reports a question or answer to the moderators. Type is the item kind.
type Flag struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ItemID    string    `json:"item_id"`
	FlaggedBy string    `json:"flagged_by"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// VoteEvent is published after a vote is recorded.
type VoteEvent struct {
	Kind      string    `json:"kind"`
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Direction string    `json:"direction"`
	UserVote  *string   `json:"user_vote"`
	Votes     int       `json:"votes"`
	Timestamp time.Time `json:"timestamp"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
