// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/stackit/auth"
	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/middleware"
	"github.com/danielhkuo/stackit/models"
)

type AnswerHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewAnswerHandler(db *sql.DB, cfg cliparse.Config) *AnswerHandler {
	return &AnswerHandler{db: db, cfg: cfg}
}

// CreateAnswer handles POST /questions/{id}/answers
// Notifies the question's author unless they answered themselves.
func (h *AnswerHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")
	claims, _ := middleware.UserFromContext(r.Context())

	var req models.CreateAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var ownerID, title string
	err = tx.QueryRow(`
		SELECT user_id, title FROM question WHERE id = $1
	`, questionID).Scan(&ownerID, &title)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	answerID := auth.NewID()
	now := time.Now().UTC()
	_, err = tx.Exec(`
		INSERT INTO answer (id, question_id, user_id, content, votes, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, answerID, questionID, claims.UserID, req.Content, now)
	if err != nil {
		slog.Error("failed to insert answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post answer")
		return
	}

	if ownerID != claims.UserID {
		err = insertNotification(tx, ownerID, models.NotifyNewAnswer,
			claims.Username+" answered your question: "+title, answerID, now)
		if err != nil {
			slog.Error("failed to insert notification", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post answer")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post answer")
		return
	}

	slog.Info("answer posted", "answer_id", answerID, "question_id", questionID, "user_id", claims.UserID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{
		ID:      answerID,
		Message: "Answer posted",
	})
}

// ListAnswers handles GET /questions/{id}/answers
// Accepted answer first, then by votes.
func (h *AnswerHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")

	var accepted sql.NullString
	err := h.db.QueryRow(`
		SELECT accepted_answer_id FROM question WHERE id = $1
	`, questionID).Scan(&accepted)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT a.id, a.question_id, a.content, a.user_id, u.username, a.votes, a.created_at
		FROM answer a JOIN app_user u ON u.id = a.user_id
		WHERE a.question_id = $1
		ORDER BY a.votes DESC, a.created_at ASC
	`, questionID)
	if err != nil {
		slog.Error("failed to query answers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	answers := []models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Content, &a.UserID, &a.Author, &a.Votes, &a.CreatedAt); err != nil {
			rows.Close()
			slog.Error("failed to scan answer", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		a.Accepted = accepted.Valid && accepted.String == a.ID
		answers = append(answers, a)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		slog.Error("failed to iterate answers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if claims, ok := middleware.UserFromContext(r.Context()); ok {
		ids := make([]string, len(answers))
		for i, a := range answers {
			ids[i] = a.ID
		}
		own, err := loadUserVotes(h.db, models.KindAnswer, claims.UserID, ids)
		if err != nil {
			slog.Error("failed to query user votes", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		for i := range answers {
			answers[i].UserVote = userVote(own, answers[i].ID)
		}
	}

	// accepted answer first, stable otherwise
	for i, a := range answers {
		if a.Accepted && i > 0 {
			copy(answers[1:i+1], answers[:i])
			answers[0] = a
			break
		}
	}

	middleware.JSONResponse(w, http.StatusOK, answers)
}

// AcceptAnswer handles POST /answers/{id}/accept
// Only the question's author may accept; accepting replaces any earlier choice.
func (h *AnswerHandler) AcceptAnswer(w http.ResponseWriter, r *http.Request) {
	answerID := r.PathValue("id")
	claims, _ := middleware.UserFromContext(r.Context())

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var questionID, ownerID, authorID, title string
	err = tx.QueryRow(`
		SELECT q.id, q.user_id, a.user_id, q.title
		FROM answer a JOIN question q ON q.id = a.question_id
		WHERE a.id = $1
	`, answerID).Scan(&questionID, &ownerID, &authorID, &title)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Answer not found")
		return
	}
	if err != nil {
		slog.Error("failed to query answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if ownerID != claims.UserID {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only the question author can accept an answer")
		return
	}

	now := time.Now().UTC()
	_, err = tx.Exec(`
		UPDATE question SET accepted_answer_id = $1, updated_at = $2 WHERE id = $3
	`, answerID, now, questionID)
	if err != nil {
		slog.Error("failed to accept answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept answer")
		return
	}

	if authorID != claims.UserID {
		err = insertNotification(tx, authorID, models.NotifyAnswerAccepted,
			"Your answer was accepted: "+title, answerID, now)
		if err != nil {
			slog.Error("failed to insert notification", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept answer")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to accept answer")
		return
	}

	slog.Info("answer accepted", "answer_id", answerID, "question_id", questionID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Answer accepted"})
}
