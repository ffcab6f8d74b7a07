// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the StackIt API server.

StackIt is a question and answer service. Users ask questions, answer them,
vote answers and questions up or down, and accept the answer that solved
their problem. The companion command-line client in cmd/stackit seeds
optimistic vote reconcilers (package vote) from this server.

# Starting the Server

The server requires a token secret; everything else has defaults:

	TOKEN_SECRET=change-me go run .

Or with flags:

	go run . -p 8000 -t postgres -d "postgres://..." -token-secret change-me

Settings may also be placed in a .env file (see -env-file).

# Configuration

Required settings:

  - TOKEN_SECRET (-token-secret): HMAC secret for access tokens

Optional settings:

  - PORT (-p): Server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: file:stackit.db)
  - TOKEN_TTL (-token-ttl): Access token lifetime (default: 24h)
  - KAFKA_BROKERS (-kafka-brokers): Comma-separated brokers for vote events
  - KAFKA_TOPIC (-kafka-topic): Vote event topic (default: stackit-votes)
  - LOG_LEVEL (-log-level): debug, info, warn or error
  - ADMIN_EMAILS (-admin-emails): Comma-separated emails with the admin role
  - LOG_FILE (-log-file): Also write JSON logs to this file

# Architecture

  - handlers: HTTP request handlers (auth, questions, answers, votes, notifications)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, bearer authentication, JSON helpers
  - models: Request/response types
  - auth: Passwords, ids and access tokens
  - db: Connection and schema creation
  - events: Vote event publishing (Kafka)
  - metrics: Prometheus collectors
  - logging: Logger construction
  - cliparse: Configuration parsing
  - vote, session, apiclient: Client-side optimistic voting

See package documentation for each component.
*/
package main
