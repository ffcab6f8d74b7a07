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

type NotificationHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewNotificationHandler(db *sql.DB, cfg cliparse.Config) *NotificationHandler {
	return &NotificationHandler{db: db, cfg: cfg}
}

// ListNotifications handles GET /notifications[?unread_only=true]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.UserFromContext(r.Context())

	query := `
		SELECT id, user_id, type, message, item_id, is_read, created_at
		FROM notification WHERE user_id = $1`
	if r.URL.Query().Get("unread_only") == "true" {
		query += ` AND is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := h.db.Query(query, claims.UserID)
	if err != nil {
		slog.Error("failed to query notifications", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.ItemID, &n.Read, &n.CreatedAt); err != nil {
			slog.Error("failed to scan notification", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate notifications", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /notifications/count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.UserFromContext(r.Context())

	var count int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM notification WHERE user_id = $1 AND is_read = FALSE
	`, claims.UserID).Scan(&count)
	if err != nil {
		slog.Error("failed to count notifications", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UnreadCountResponse{UnreadCount: count})
}

// MarkRead handles POST /notifications/mark-read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.UserFromContext(r.Context())

	res, err := h.db.Exec(`
		UPDATE notification SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE
	`, claims.UserID)
	if err != nil {
		slog.Error("failed to mark notifications read", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	n, _ := res.RowsAffected()
	slog.Info("notifications marked read", "user_id", claims.UserID, "count", n)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "All notifications marked as read"})
}

func insertNotification(tx *sql.Tx, userID, kind, message, itemID string, at time.Time) error {
	_, err := tx.Exec(`
		INSERT INTO notification (id, user_id, type, message, item_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`, auth.NewID(), userID, kind, message, itemID, at)
	return err
}
