// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the StackIt API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	reg := prometheus.NewRegistry()
	mux := router.NewRouter(db, cfg, publisher, reg)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Accounts (public):

	POST /register - Create an account
	POST /login    - Exchange credentials for a bearer token

Questions and answers (reads accept an optional bearer token so the
response carries the caller's own vote):

	GET  /questions                - List, newest first, ?tag= filter
	POST /questions                - Ask (auth)
	GET  /questions/{id}           - Question detail
	GET  /questions/{id}/answers   - Answers, accepted first
	POST /questions/{id}/answers   - Answer (auth)
	POST /answers/{id}/accept      - Accept (auth, question author only)

Voting (auth):

	POST /questions/{id}/vote - {"direction": "up"|"down"}
	POST /answers/{id}/vote   - {"direction": "up"|"down"}

Notifications (auth):

	GET  /notifications            - Inbox, ?unread_only=true
	GET  /notifications/count      - Unread count
	POST /notifications/mark-read  - Mark all read
*/
package router
