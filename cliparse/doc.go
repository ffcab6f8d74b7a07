// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration
for the API server.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p              Server port (default 8000)
	-d              Database URL (default file:stackit.db for sqlite)
	-t              Database type: sqlite (default) or postgres
	-token-secret   Access token signing secret
	-token-ttl      Access token lifetime (default 24h)
	-kafka-brokers  Comma-separated brokers; vote events are published when set
	-kafka-topic    Topic for vote events (default stackit-votes)
	-log-file       Also write JSON logs to this file
	-log-level      debug, info, warn or error
	-env-file       Env file loaded if present (default .env)

# Environment Variables

Flags fall back to environment variables:

	PORT, DATABASE_URL, DATABASE_TYPE, TOKEN_SECRET, TOKEN_TTL,
	KAFKA_BROKERS, KAFKA_TOPIC, LOG_FILE, LOG_LEVEL

CLI flags take precedence over environment variables, which take precedence
over the env file.

# Validation

ParseFlags returns an error if:

  - TOKEN_SECRET is missing
  - the database type is postgres and no URL is given
  - PORT or TOKEN_TTL cannot be parsed
*/
package cliparse
