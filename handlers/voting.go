// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/events"
	"github.com/danielhkuo/stackit/metrics"
	"github.com/danielhkuo/stackit/middleware"
	"github.com/danielhkuo/stackit/models"
	"github.com/danielhkuo/stackit/vote"
)

type VotingHandler struct {
	db        *sql.DB
	cfg       cliparse.Config
	publisher events.VotePublisher
	metrics   *metrics.ServerMetrics
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config, publisher events.VotePublisher, m *metrics.ServerMetrics) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg, publisher: publisher, metrics: m}
}

// VoteQuestion handles POST /questions/{id}/vote
func (h *VotingHandler) VoteQuestion(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.KindQuestion)
}

// VoteAnswer handles POST /answers/{id}/vote
func (h *VotingHandler) VoteAnswer(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.KindAnswer)
}

// castVote applies the requested direction to the caller's stored vote
// record using the same transition table as the client reconciler:
// repeating a direction withdraws the vote, switching moves the tally by two.
func (h *VotingHandler) castVote(w http.ResponseWriter, r *http.Request, kind string) {
	itemID := r.PathValue("id")
	claims, _ := middleware.UserFromContext(r.Context())

	var req models.VoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		h.reject(kind, "bad_request")
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	requested, err := vote.ParseDirection(req.Direction)
	if err != nil || requested == vote.None {
		h.reject(kind, "bad_direction")
		middleware.ErrorResponse(w, http.StatusBadRequest, "Direction must be 'up' or 'down'")
		return
	}

	start := time.Now()
	table := "question"
	notFound := "Question not found"
	if kind == models.KindAnswer {
		table = "answer"
		notFound = "Answer not found"
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var votes int
	err = tx.QueryRow(`SELECT votes FROM `+table+` WHERE id = $1`, itemID).Scan(&votes)
	if err == sql.ErrNoRows {
		h.reject(kind, "not_found")
		middleware.ErrorResponse(w, http.StatusNotFound, notFound)
		return
	}
	if err != nil {
		slog.Error("failed to query item", "error", err, "kind", kind)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var stored string
	err = tx.QueryRow(`
		SELECT direction FROM item_vote
		WHERE kind = $1 AND item_id = $2 AND user_id = $3
	`, kind, itemID, claims.UserID).Scan(&stored)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	previous, err := vote.ParseDirection(stored)
	if err != nil {
		slog.Error("corrupt vote record", "error", err, "kind", kind, "item_id", itemID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	delta, next := vote.Transition(previous, requested)
	now := time.Now().UTC()

	switch {
	case next == vote.None:
		_, err = tx.Exec(`
			DELETE FROM item_vote WHERE kind = $1 AND item_id = $2 AND user_id = $3
		`, kind, itemID, claims.UserID)
	case previous == vote.None:
		_, err = tx.Exec(`
			INSERT INTO item_vote (kind, item_id, user_id, direction, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, kind, itemID, claims.UserID, next.String(), now)
	default:
		_, err = tx.Exec(`
			UPDATE item_vote SET direction = $1, updated_at = $2
			WHERE kind = $3 AND item_id = $4 AND user_id = $5
		`, next.String(), now, kind, itemID, claims.UserID)
	}
	if err != nil {
		slog.Error("failed to store vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	_, err = tx.Exec(`UPDATE `+table+` SET votes = votes + $1 WHERE id = $2`, delta, itemID)
	if err != nil {
		slog.Error("failed to update tally", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
		return
	}

	votes += delta
	userVote := directionPtr(next)

	if h.metrics != nil {
		h.metrics.VotesRecorded.WithLabelValues(kind, next.String()).Inc()
		h.metrics.VoteLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}

	slog.Info("vote recorded",
		"kind", kind,
		"item_id", itemID,
		"user_id", claims.UserID,
		"requested", requested,
		"delta", delta,
		"votes", votes,
	)

	// The vote is committed; a broker outage must not fail the request.
	event := models.VoteEvent{
		Kind:      kind,
		ItemID:    itemID,
		UserID:    claims.UserID,
		Direction: requested.String(),
		UserVote:  userVote,
		Votes:     votes,
		Timestamp: now,
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
	defer cancel()
	if err := h.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish vote event", "error", err, "item_id", itemID)
	}

	message := "Vote updated to " + next.String()
	if next == vote.None {
		message = "Vote removed"
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteResponse{
		Message:  message,
		Votes:    votes,
		UserVote: userVote,
	})
}

func (h *VotingHandler) reject(kind, reason string) {
	if h.metrics != nil {
		h.metrics.VotesRejected.WithLabelValues(kind, reason).Inc()
	}
}

// loadUserVote returns the caller's stored direction for one item, or nil
func loadUserVote(db *sql.DB, kind, itemID, userID string) (*string, error) {
	var direction string
	err := db.QueryRow(`
		SELECT direction FROM item_vote
		WHERE kind = $1 AND item_id = $2 AND user_id = $3
	`, kind, itemID, userID).Scan(&direction)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &direction, nil
}

// loadUserVotes returns item_id -> direction for the user's votes on the given items
func loadUserVotes(db *sql.DB, kind, userID string, itemIDs []string) (map[string]string, error) {
	votes := make(map[string]string)
	if len(itemIDs) == 0 {
		return votes, nil
	}

	rows, err := db.Query(`
		SELECT item_id, direction FROM item_vote
		WHERE kind = $1 AND user_id = $2 AND item_id IN (`+placeholders(3, len(itemIDs))+`)
	`, stringArgs(itemIDs, kind, userID)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, direction string
		if err := rows.Scan(&itemID, &direction); err != nil {
			return nil, err
		}
		votes[itemID] = direction
	}
	return votes, rows.Err()
}

func userVote(own map[string]string, itemID string) *string {
	if d, ok := own[itemID]; ok {
		return &d
	}
	return nil
}

func directionPtr(d vote.Direction) *string {
	if d == vote.None {
		return nil
	}
	s := d.String()
	return &s
}
