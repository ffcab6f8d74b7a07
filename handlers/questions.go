// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/danielhkuo/stackit/auth"
	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/middleware"
	"github.com/danielhkuo/stackit/models"
)

type QuestionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewQuestionHandler(db *sql.DB, cfg cliparse.Config) *QuestionHandler {
	return &QuestionHandler{db: db, cfg: cfg}
}

const questionColumns = `
	q.id, q.title, q.description, q.user_id, u.username, q.votes,
	q.accepted_answer_id, q.created_at, q.updated_at,
	(SELECT COUNT(*) FROM answer a WHERE a.question_id = q.id) AS answer_count
`

// CreateQuestion handles POST /questions
func (h *QuestionHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.UserFromContext(r.Context())

	var req models.CreateQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "description is required")
		return
	}
	tags := normalizeTags(req.Tags)
	if len(tags) > 5 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at most 5 tags are allowed")
		return
	}

	questionID := auth.NewID()
	now := time.Now().UTC()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO question (id, user_id, title, description, votes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6)
	`, questionID, claims.UserID, req.Title, req.Description, now, now)
	if err != nil {
		slog.Error("failed to insert question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post question")
		return
	}

	for _, tag := range tags {
		_, err = tx.Exec(`
			INSERT INTO question_tag (question_id, tag) VALUES ($1, $2)
		`, questionID, tag)
		if err != nil {
			slog.Error("failed to insert tag", "error", err, "tag", tag)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post question")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to post question")
		return
	}

	slog.Info("question posted", "question_id", questionID, "user_id", claims.UserID, "tags", len(tags))

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{
		ID:      questionID,
		Message: "Question posted",
	})
}

// ListQuestions handles GET /questions[?tag=go]
// Newest first. Includes the caller's own vote when authenticated.
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	tag := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("tag")))

	query := `SELECT ` + questionColumns + ` FROM question q JOIN app_user u ON u.id = q.user_id`
	args := []interface{}{}
	if tag != "" {
		query += ` WHERE EXISTS (SELECT 1 FROM question_tag t WHERE t.question_id = q.id AND t.tag = $1)`
		args = append(args, tag)
	}
	query += ` ORDER BY q.created_at DESC`

	rows, err := h.db.Query(query, args...)
	if err != nil {
		slog.Error("failed to query questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	questions := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			rows.Close()
			slog.Error("failed to scan question", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		questions = append(questions, q)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		slog.Error("failed to iterate questions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	// Rows must be closed before further queries: SQLite runs on one connection.
	tags, err := loadTags(h.db, ids)
	if err != nil {
		slog.Error("failed to query tags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	var own map[string]string
	if claims, ok := middleware.UserFromContext(r.Context()); ok {
		own, err = loadUserVotes(h.db, models.KindQuestion, claims.UserID, ids)
		if err != nil {
			slog.Error("failed to query user votes", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	for i := range questions {
		questions[i].Tags = tagsOrEmpty(tags[questions[i].ID])
		questions[i].UserVote = userVote(own, questions[i].ID)
	}

	middleware.JSONResponse(w, http.StatusOK, questions)
}

// GetQuestion handles GET /questions/{id}
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")
	if questionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question id is required")
		return
	}

	row := h.db.QueryRow(`SELECT `+questionColumns+`
		FROM question q JOIN app_user u ON u.id = q.user_id
		WHERE q.id = $1
	`, questionID)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Question not found")
		return
	}
	if err != nil {
		slog.Error("failed to query question", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	tags, err := loadTags(h.db, []string{questionID})
	if err != nil {
		slog.Error("failed to query tags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	q.Tags = tagsOrEmpty(tags[questionID])

	if claims, ok := middleware.UserFromContext(r.Context()); ok {
		q.UserVote, err = loadUserVote(h.db, models.KindQuestion, questionID, claims.UserID)
		if err != nil {
			slog.Error("failed to query user vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, q)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanQuestion(s scanner) (models.Question, error) {
	var q models.Question
	var accepted sql.NullString
	err := s.Scan(
		&q.ID, &q.Title, &q.Description, &q.UserID, &q.Author, &q.Votes,
		&accepted, &q.CreatedAt, &q.UpdatedAt, &q.AnswerCount,
	)
	if accepted.Valid {
		q.AcceptedAnswerID = &accepted.String
	}
	return q, err
}

// loadTags returns question_id -> sorted tags for the given questions
func loadTags(db *sql.DB, questionIDs []string) (map[string][]string, error) {
	tags := make(map[string][]string)
	if len(questionIDs) == 0 {
		return tags, nil
	}

	rows, err := db.Query(`
		SELECT question_id, tag FROM question_tag
		WHERE question_id IN (`+placeholders(1, len(questionIDs))+`)
		ORDER BY tag
	`, stringArgs(questionIDs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var questionID, tag string
		if err := rows.Scan(&questionID, &tag); err != nil {
			return nil, err
		}
		tags[questionID] = append(tags[questionID], tag)
	}
	return tags, rows.Err()
}

// placeholders returns "$from, $from+1, ..." for n query arguments
func placeholders(from, n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(p, ", ")
}

func stringArgs(values []string, leading ...interface{}) []interface{} {
	args := make([]interface{}, 0, len(leading)+len(values))
	args = append(args, leading...)
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

// normalizeTags lowercases, trims and deduplicates tags
func normalizeTags(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := []string{}
	for _, tag := range in {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
