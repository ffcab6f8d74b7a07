// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/stackit/cliparse"
	"github.com/danielhkuo/stackit/events"
	"github.com/danielhkuo/stackit/handlers"
	"github.com/danielhkuo/stackit/metrics"
	"github.com/danielhkuo/stackit/middleware"
)

// MetricsNamespace prefixes every server metric
const MetricsNamespace = "stackit"

// NewRouter registers all API routes. Server metrics are registered on reg
// and exposed on GET /metrics together with the Go runtime collectors.
func NewRouter(db *sql.DB, cfg cliparse.Config, publisher events.VotePublisher, reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()

	serverMetrics := metrics.NewServerMetrics(reg, MetricsNamespace)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	questionHandler := handlers.NewQuestionHandler(db, cfg)
	answerHandler := handlers.NewAnswerHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg, publisher, serverMetrics)
	notificationHandler := handlers.NewNotificationHandler(db, cfg)
	moderationHandler := handlers.NewModerationHandler(db, cfg)

	required := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireUser(cfg.TokenSecret, h))
	}
	optional := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.OptionalUser(cfg.TokenSecret, h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.TokenSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	// Accounts
	mux.HandleFunc("POST /register", middleware.WithLogging(authHandler.Register))
	mux.HandleFunc("POST /login", middleware.WithLogging(authHandler.Login))

	// Questions
	mux.HandleFunc("GET /questions", optional(questionHandler.ListQuestions))
	mux.HandleFunc("POST /questions", required(questionHandler.CreateQuestion))
	mux.HandleFunc("GET /questions/{id}", optional(questionHandler.GetQuestion))
	mux.HandleFunc("POST /questions/{id}/vote", required(votingHandler.VoteQuestion))

	// Answers
	mux.HandleFunc("GET /questions/{id}/answers", optional(answerHandler.ListAnswers))
	mux.HandleFunc("POST /questions/{id}/answers", required(answerHandler.CreateAnswer))
	mux.HandleFunc("POST /answers/{id}/vote", required(votingHandler.VoteAnswer))
	mux.HandleFunc("POST /answers/{id}/accept", required(answerHandler.AcceptAnswer))

	// Notifications
	mux.HandleFunc("GET /notifications", required(notificationHandler.ListNotifications))
	mux.HandleFunc("GET /notifications/count", required(notificationHandler.UnreadCount))
	mux.HandleFunc("POST /notifications/mark-read", required(notificationHandler.MarkRead))

	// Moderation
	mux.HandleFunc("POST /questions/{id}/flag", required(moderationHandler.FlagQuestion))
	mux.HandleFunc("POST /answers/{id}/flag", required(moderationHandler.FlagAnswer))
	mux.HandleFunc("GET /admin/flags", admin(moderationHandler.ListFlags))
	mux.HandleFunc("DELETE /questions/{id}", admin(moderationHandler.DeleteQuestion))
	mux.HandleFunc("DELETE /answers/{id}", admin(moderationHandler.DeleteAnswer))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stackit API v1"))
	})

	return mux
}
