// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/stackit/models"
)

// TokenSource supplies the bearer token for each request; "" sends none.
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// Client calls the StackIt REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  TokenFunc(func() string { return "" }),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends body as JSON and decodes a 2xx response into reply when reply is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, reply interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer cleanlyCloseBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if reply == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
	}
	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

// cleanlyCloseBody drains the body so the connection can be reused.
func cleanlyCloseBody(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.RegisterResponse, error) {
	var resp models.RegisterResponse
	err := c.do(ctx, http.MethodPost, "/register", nil, req, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	var resp models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", nil, models.LoginRequest{Email: email, Password: password}, &resp)
	return resp, err
}

func (c *Client) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	var q models.Question
	err := c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id), nil, nil, &q)
	return q, err
}

// ListQuestions lists questions, optionally only those carrying tag.
func (c *Client) ListQuestions(ctx context.Context, tag string) ([]models.Question, error) {
	var query url.Values
	if tag != "" {
		query = url.Values{"tag": {tag}}
	}
	var questions []models.Question
	err := c.do(ctx, http.MethodGet, "/questions", query, nil, &questions)
	return questions, err
}

func (c *Client) ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(questionID)+"/answers", nil, nil, &answers)
	return answers, err
}

func (c *Client) VoteQuestion(ctx context.Context, id, direction string) (models.VoteResponse, error) {
	var resp models.VoteResponse
	err := c.do(ctx, http.MethodPost, "/questions/"+url.PathEscape(id)+"/vote", nil,
		models.VoteRequest{Direction: direction}, &resp)
	return resp, err
}

func (c *Client) VoteAnswer(ctx context.Context, id, direction string) (models.VoteResponse, error) {
	var resp models.VoteResponse
	err := c.do(ctx, http.MethodPost, "/answers/"+url.PathEscape(id)+"/vote", nil,
		models.VoteRequest{Direction: direction}, &resp)
	return resp, err
}

func (c *Client) AcceptAnswer(ctx context.Context, answerID string) error {
	return c.do(ctx, http.MethodPost, "/answers/"+url.PathEscape(answerID)+"/accept", nil, nil, nil)
}

func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"unread_only": {"true"}}
	}
	var notifications []models.Notification
	err := c.do(ctx, http.MethodGet, "/notifications", query, nil, &notifications)
	return notifications, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp models.UnreadCountResponse
	err := c.do(ctx, http.MethodGet, "/notifications/count", nil, nil, &resp)
	return resp.UnreadCount, err
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/mark-read", nil, nil, nil)
}

// FlagQuestion reports a question to the moderators and returns the flag id.
func (c *Client) FlagQuestion(ctx context.Context, id string) (string, error) {
	var resp models.CreatedResponse
	err := c.do(ctx, http.MethodPost, "/questions/"+url.PathEscape(id)+"/flag", nil, nil, &resp)
	return resp.ID, err
}

func (c *Client) FlagAnswer(ctx context.Context, id string) (string, error) {
	var resp models.CreatedResponse
	err := c.do(ctx, http.MethodPost, "/answers/"+url.PathEscape(id)+"/flag", nil, nil, &resp)
	return resp.ID, err
}

// Flags lists every flag, newest first. Admin only.
func (c *Client) Flags(ctx context.Context) ([]models.Flag, error) {
	var flags []models.Flag
	err := c.do(ctx, http.MethodGet, "/admin/flags", nil, nil, &flags)
	return flags, err
}

// DeleteQuestion removes a question and its answers. Admin only.
func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) DeleteAnswer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/answers/"+url.PathEscape(id), nil, nil, nil)
}
