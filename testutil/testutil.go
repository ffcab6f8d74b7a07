// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/stackit/auth"
	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/db"
)

// TestTokenSecret signs tokens issued by CreateTestUser
const TestTokenSecret = "test-token-secret"

// SetupTestDB opens a private in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: db.TypeSQLite,
		DatabaseURL:  ":memory:",
		TokenSecret:  TestTokenSecret,
		TokenTTL:     time.Hour,
		KafkaTopic:   "stackit-votes-test",
		LogLevel:     "info",
	}
}

// CreateTestUser inserts a user and returns its ID and a bearer token
func CreateTestUser(t *testing.T, conn *sql.DB, cfg cliparse.Config, username string) (userID, token string) {
	t.Helper()
	return createUser(t, conn, cfg, username, false)
}

// CreateTestAdmin is CreateTestUser for a user with the admin role
func CreateTestAdmin(t *testing.T, conn *sql.DB, cfg cliparse.Config, username string) (userID, token string) {
	t.Helper()
	return createUser(t, conn, cfg, username, true)
}

func createUser(t *testing.T, conn *sql.DB, cfg cliparse.Config, username string, isAdmin bool) (userID, token string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	userID = auth.NewID()
	_, err = conn.Exec(`
		INSERT INTO app_user (id, username, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, username, username+"@example.com", hash, isAdmin, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	token, err = auth.IssueToken(userID, username, isAdmin, cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	return userID, token
}

// CreateTestQuestion inserts a question owned by userID and returns its ID
func CreateTestQuestion(t *testing.T, conn *sql.DB, userID, title string, tags ...string) string {
	t.Helper()

	questionID := auth.NewID()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO question (id, user_id, title, description, votes, created_at, updated_at)
		VALUES ($1, $2, $3, 'A test question', 0, $4, $4)
	`, questionID, userID, title, now)
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	for _, tag := range tags {
		_, err := conn.Exec(`
			INSERT INTO question_tag (question_id, tag) VALUES ($1, $2)
		`, questionID, tag)
		if err != nil {
			t.Fatalf("Failed to create test tag: %v", err)
		}
	}

	return questionID
}

// CreateTestAnswer inserts an answer by userID and returns its ID
func CreateTestAnswer(t *testing.T, conn *sql.DB, questionID, userID, content string) string {
	t.Helper()

	answerID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO answer (id, question_id, user_id, content, votes, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, answerID, questionID, userID, content, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test answer: %v", err)
	}

	return answerID
}

// BearerHeader returns request headers carrying the token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
