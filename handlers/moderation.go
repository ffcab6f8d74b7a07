// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/stackit/auth"
	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/middleware"
	"github.com/danielhkuo/stackit/models"
)

// ModerationHandler serves content flags and admin removals.
type ModerationHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewModerationHandler(db *sql.DB, cfg cliparse.Config) *ModerationHandler {
	return &ModerationHandler{db: db, cfg: cfg}
}

// FlagQuestion handles POST /questions/{id}/flag
func (h *ModerationHandler) FlagQuestion(w http.ResponseWriter, r *http.Request) {
	h.flagItem(w, r, models.KindQuestion)
}

// FlagAnswer handles POST /answers/{id}/flag
func (h *ModerationHandler) FlagAnswer(w http.ResponseWriter, r *http.Request) {
	h.flagItem(w, r, models.KindAnswer)
}

func (h *ModerationHandler) flagItem(w http.ResponseWriter, r *http.Request, kind string) {
	itemID := r.PathValue("id")
	claims, _ := middleware.UserFromContext(r.Context())

	table, notFound := "question", "Question not found"
	if kind == models.KindAnswer {
		table, notFound = "answer", "Answer not found"
	}

	var exists bool
	err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, itemID).Scan(&exists)
	if err != nil {
		slog.Error("failed to check item", "error", err, "kind", kind)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, notFound)
		return
	}

	flagID := auth.NewID()
	_, err = h.db.Exec(`
		INSERT INTO flag (id, kind, item_id, flagged_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, flagID, kind, itemID, claims.UserID, time.Now().UTC())
	if err != nil {
		slog.Error("failed to insert flag", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to flag")
		return
	}

	slog.Info("item flagged", "kind", kind, "item_id", itemID, "user_id", claims.UserID)

	message := "Question flagged"
	if kind == models.KindAnswer {
		message = "Answer flagged"
	}
	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{
		ID:      flagID,
		Message: message,
	})
}

// ListFlags handles GET /admin/flags
// Newest first.
func (h *ModerationHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT f.id, f.kind, f.item_id, f.flagged_by, u.username, f.created_at
		FROM flag f JOIN app_user u ON u.id = f.flagged_by
		ORDER BY f.created_at DESC, f.id
	`)
	if err != nil {
		slog.Error("failed to query flags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	flags := []models.Flag{}
	for rows.Next() {
		var f models.Flag
		if err := rows.Scan(&f.ID, &f.Type, &f.ItemID, &f.FlaggedBy, &f.Username, &f.CreatedAt); err != nil {
			slog.Error("failed to scan flag", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate flags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, flags)
}

// DeleteQuestion handles DELETE /questions/{id}
// Removes the question with its answers, tags, votes and flags.
func (h *ModerationHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")
	claims, _ := middleware.UserFromContext(r.Context())

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM question WHERE id = $1)`, questionID).Scan(&exists)
	if err != nil {
		slog.Error("failed to check question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}

	stmts := []string{
		`DELETE FROM item_vote WHERE kind = 'answer' AND item_id IN (SELECT id FROM answer WHERE question_id = $1)`,
		`DELETE FROM flag WHERE kind = 'answer' AND item_id IN (SELECT id FROM answer WHERE question_id = $1)`,
		`DELETE FROM item_vote WHERE kind = 'question' AND item_id = $1`,
		`DELETE FROM flag WHERE kind = 'question' AND item_id = $1`,
		`DELETE FROM answer WHERE question_id = $1`,
		`DELETE FROM question_tag WHERE question_id = $1`,
		`DELETE FROM question WHERE id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, questionID); err != nil {
			slog.Error("failed to delete question", "error", err, "question_id", questionID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete question")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete question")
		return
	}

	slog.Info("question deleted", "question_id", questionID, "admin_id", claims.UserID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Question and its answers deleted"})
}

// DeleteAnswer handles DELETE /answers/{id}
// Clears the question's accepted answer when it pointed here.
func (h *ModerationHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	answerID := r.PathValue("id")
	claims, _ := middleware.UserFromContext(r.Context())

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var questionID string
	err = tx.QueryRow(`SELECT question_id FROM answer WHERE id = $1`, answerID).Scan(&questionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Answer not found")
		return
	}
	if err != nil {
		slog.Error("failed to query answer", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	stmts := []string{
		`DELETE FROM item_vote WHERE kind = 'answer' AND item_id = $1`,
		`DELETE FROM flag WHERE kind = 'answer' AND item_id = $1`,
		`UPDATE question SET accepted_answer_id = NULL WHERE accepted_answer_id = $1`,
		`DELETE FROM answer WHERE id = $1`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, answerID); err != nil {
			slog.Error("failed to delete answer", "error", err, "answer_id", answerID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete answer")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete answer")
		return
	}

	slog.Info("answer deleted", "answer_id", answerID, "question_id", questionID, "admin_id", claims.UserID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Answer deleted"})
}
