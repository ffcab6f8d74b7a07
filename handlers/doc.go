// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the StackIt API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AuthHandler: Registration and login
  - QuestionHandler: Asking, listing and reading questions
  - AnswerHandler: Answering and accepting answers
  - VotingHandler: Up/down votes on questions and answers
  - NotificationHandler: Per-user notification inbox
  - ModerationHandler: Content flags and admin removals

Handlers are created via constructor functions that accept *sql.DB and Config:

	questionHandler := handlers.NewQuestionHandler(db, cfg)

The voting handler additionally takes a vote event publisher and metrics:

	votingHandler := handlers.NewVotingHandler(db, cfg, publisher, serverMetrics)

# Authentication

Handlers read the caller from middleware.UserFromContext. Routes that
mutate state are wrapped in middleware.RequireUser; read routes use
middleware.OptionalUser so that an authenticated caller also receives
its own vote (user_vote) for every item.

# Voting

	POST /questions/{id}/vote {"direction": "up"}
	POST /answers/{id}/vote   {"direction": "down"}

The stored per-user vote moves through the same transition table the
client reconciler uses (package vote): repeating a direction withdraws
the vote, switching direction moves the tally by two. Each recorded vote
is published as a models.VoteEvent.

# Notifications

Answering someone else's question notifies its author; accepting an
answer notifies the answer's author.

	GET  /notifications[?unread_only=true] → ListNotifications
	GET  /notifications/count              → UnreadCount
	POST /notifications/mark-read          → MarkRead

# Moderation

Any user may flag a question or answer. Admins (the is_admin token claim,
granted to the emails in ADMIN_EMAILS) review flags and remove content.

	POST   /questions/{id}/flag → FlagQuestion
	POST   /answers/{id}/flag   → FlagAnswer
	GET    /admin/flags         → ListFlags
	DELETE /questions/{id}      → DeleteQuestion (with its answers)
	DELETE /answers/{id}        → DeleteAnswer
*/
package handlers
