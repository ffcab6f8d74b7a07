// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/middleware"
	"github.com/danielhkuo/stackit/models"
	"github.com/danielhkuo/stackit/testutil"
)

func requireAdmin(cfg cliparse.Config, h http.HandlerFunc) http.HandlerFunc {
	return middleware.RequireAdmin(cfg.TokenSecret, h)
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

func TestFlagItems(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewModerationHandler(db, cfg)

	ownerID, _ := testutil.CreateTestUser(t, db, cfg, "alice")
	_, token := testutil.CreateTestUser(t, db, cfg, "bob")
	questionID := testutil.CreateTestQuestion(t, db, ownerID, "Spam?")
	answerID := testutil.CreateTestAnswer(t, db, questionID, ownerID, "Buy now")

	tests := []struct {
		name            string
		handler         http.HandlerFunc
		itemID          string
		token           string
		expectedStatus  int
		expectedMessage string
	}{
		{"flag question", handler.FlagQuestion, questionID, token, http.StatusCreated, "Question flagged"},
		{"flag answer", handler.FlagAnswer, answerID, token, http.StatusCreated, "Answer flagged"},
		{"flag question twice", handler.FlagQuestion, questionID, token, http.StatusCreated, "Question flagged"},
		{"question not found", handler.FlagQuestion, "missing", token, http.StatusNotFound, ""},
		{"answer id is not a question", handler.FlagQuestion, answerID, token, http.StatusNotFound, ""},
		{"answer not found", handler.FlagAnswer, "missing", token, http.StatusNotFound, ""},
		{"not authenticated", handler.FlagAnswer, answerID, "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers map[string]string
			if tt.token != "" {
				headers = testutil.BearerHeader(tt.token)
			}
			req := testutil.MakeRequest("POST", "/items/"+tt.itemID+"/flag", nil, headers)
			req.SetPathValue("id", tt.itemID)
			w := httptest.NewRecorder()

			requireUser(cfg, tt.handler)(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusCreated {
				return
			}

			var resp models.CreatedResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Message != tt.expectedMessage {
				t.Errorf("Expected message %q, got %q", tt.expectedMessage, resp.Message)
			}
			if resp.ID == "" {
				t.Error("Expected flag id")
			}
		})
	}

	if n := countRows(t, db, `SELECT COUNT(*) FROM flag`); n != 3 {
		t.Errorf("Expected 3 flags, got %d", n)
	}
}

func TestListFlags(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewModerationHandler(db, cfg)

	userID, userToken := testutil.CreateTestUser(t, db, cfg, "alice")
	_, adminToken := testutil.CreateTestAdmin(t, db, cfg, "root")
	questionID := testutil.CreateTestQuestion(t, db, userID, "Flagged")
	answerID := testutil.CreateTestAnswer(t, db, questionID, userID, "Also flagged")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, f := range []struct{ id, kind, itemID string }{
		{"f-old", models.KindQuestion, questionID},
		{"f-new", models.KindAnswer, answerID},
	} {
		_, err := db.Exec(`
			INSERT INTO flag (id, kind, item_id, flagged_by, created_at) VALUES ($1, $2, $3, $4, $5)
		`, f.id, f.kind, f.itemID, userID, base.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("Failed to insert flag: %v", err)
		}
	}

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{"admin sees flags", adminToken, http.StatusOK},
		{"regular user is forbidden", userToken, http.StatusForbidden},
		{"anonymous is rejected", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers map[string]string
			if tt.token != "" {
				headers = testutil.BearerHeader(tt.token)
			}
			req := testutil.MakeRequest("GET", "/admin/flags", nil, headers)
			w := httptest.NewRecorder()

			requireAdmin(cfg, handler.ListFlags)(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var flags []models.Flag
			testutil.AssertJSON(t, w, &flags)
			if len(flags) != 2 {
				t.Fatalf("Expected 2 flags, got %d", len(flags))
			}
			if flags[0].ID != "f-new" || flags[1].ID != "f-old" {
				t.Errorf("Expected newest first, got %s, %s", flags[0].ID, flags[1].ID)
			}
			if flags[0].Type != models.KindAnswer || flags[0].ItemID != answerID {
				t.Errorf("Unexpected flag %+v", flags[0])
			}
			if flags[0].Username != "alice" || flags[0].FlaggedBy != userID {
				t.Errorf("Expected flag raised by alice, got %+v", flags[0])
			}
		})
	}
}

func TestDeleteQuestion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewModerationHandler(db, cfg)

	userID, userToken := testutil.CreateTestUser(t, db, cfg, "alice")
	_, adminToken := testutil.CreateTestAdmin(t, db, cfg, "root")
	doomed := testutil.CreateTestQuestion(t, db, userID, "Doomed", "spam")
	kept := testutil.CreateTestQuestion(t, db, userID, "Kept", "go")
	doomedAnswer := testutil.CreateTestAnswer(t, db, doomed, userID, "gone")
	keptAnswer := testutil.CreateTestAnswer(t, db, kept, userID, "stays")

	for _, stmt := range []struct {
		query string
		args  []interface{}
	}{
		{`INSERT INTO item_vote (kind, item_id, user_id, direction) VALUES ('question', $1, $2, 'up')`, []interface{}{doomed, userID}},
		{`INSERT INTO item_vote (kind, item_id, user_id, direction) VALUES ('answer', $1, $2, 'down')`, []interface{}{doomedAnswer, userID}},
		{`INSERT INTO item_vote (kind, item_id, user_id, direction) VALUES ('answer', $1, $2, 'up')`, []interface{}{keptAnswer, userID}},
		{`INSERT INTO flag (id, kind, item_id, flagged_by) VALUES ('f1', 'question', $1, $2)`, []interface{}{doomed, userID}},
		{`INSERT INTO flag (id, kind, item_id, flagged_by) VALUES ('f2', 'answer', $1, $2)`, []interface{}{doomedAnswer, userID}},
	} {
		if _, err := db.Exec(stmt.query, stmt.args...); err != nil {
			t.Fatalf("Failed to seed: %v", err)
		}
	}

	tests := []struct {
		name           string
		questionID     string
		token          string
		expectedStatus int
	}{
		{"regular user is forbidden", doomed, userToken, http.StatusForbidden},
		{"admin deletes question", doomed, adminToken, http.StatusOK},
		{"already deleted", doomed, adminToken, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("DELETE", "/questions/"+tt.questionID, nil, testutil.BearerHeader(tt.token))
			req.SetPathValue("id", tt.questionID)
			w := httptest.NewRecorder()

			requireAdmin(cfg, handler.DeleteQuestion)(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	checks := []struct {
		name     string
		query    string
		args     []interface{}
		expected int
	}{
		{"question", `SELECT COUNT(*) FROM question WHERE id = $1`, []interface{}{doomed}, 0},
		{"answers", `SELECT COUNT(*) FROM answer WHERE question_id = $1`, []interface{}{doomed}, 0},
		{"tags", `SELECT COUNT(*) FROM question_tag WHERE question_id = $1`, []interface{}{doomed}, 0},
		{"votes", `SELECT COUNT(*) FROM item_vote WHERE item_id IN ($1, $2)`, []interface{}{doomed, doomedAnswer}, 0},
		{"flags", `SELECT COUNT(*) FROM flag`, nil, 0},
		{"other question", `SELECT COUNT(*) FROM question WHERE id = $1`, []interface{}{kept}, 1},
		{"other answer vote", `SELECT COUNT(*) FROM item_vote WHERE item_id = $1`, []interface{}{keptAnswer}, 1},
	}
	for _, c := range checks {
		if n := countRows(t, db, c.query, c.args...); n != c.expected {
			t.Errorf("%s: expected %d rows, got %d", c.name, c.expected, n)
		}
	}
}

func TestDeleteAnswer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	handler := NewModerationHandler(db, cfg)

	userID, userToken := testutil.CreateTestUser(t, db, cfg, "alice")
	_, adminToken := testutil.CreateTestAdmin(t, db, cfg, "root")
	questionID := testutil.CreateTestQuestion(t, db, userID, "Question")
	answerID := testutil.CreateTestAnswer(t, db, questionID, userID, "Accepted, then removed")
	if _, err := db.Exec(`UPDATE question SET accepted_answer_id = $1 WHERE id = $2`, answerID, questionID); err != nil {
		t.Fatalf("Failed to accept answer: %v", err)
	}

	tests := []struct {
		name           string
		answerID       string
		token          string
		expectedStatus int
	}{
		{"regular user is forbidden", answerID, userToken, http.StatusForbidden},
		{"admin deletes answer", answerID, adminToken, http.StatusOK},
		{"not found", answerID, adminToken, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("DELETE", "/answers/"+tt.answerID, nil, testutil.BearerHeader(tt.token))
			req.SetPathValue("id", tt.answerID)
			w := httptest.NewRecorder()

			requireAdmin(cfg, handler.DeleteAnswer)(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	var accepted sql.NullString
	if err := db.QueryRow(`SELECT accepted_answer_id FROM question WHERE id = $1`, questionID).Scan(&accepted); err != nil {
		t.Fatalf("Failed to query question: %v", err)
	}
	if accepted.Valid {
		t.Errorf("Expected accepted answer to be cleared, got %q", accepted.String)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM answer WHERE id = $1`, answerID); n != 0 {
		t.Errorf("Expected answer to be deleted, %d rows remain", n)
	}
}
