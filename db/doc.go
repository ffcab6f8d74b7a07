// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Connecting

	conn, err := db.Open(db.TypeSQLite, "file:stackit.db")
	conn, err := db.Open(db.TypePostgres, "postgres://...")

SQLite (modernc.org/sqlite, pure Go) is the default; PostgreSQL uses lib/pq.
SQLite connections get foreign keys enabled and a single open connection.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - app_user: accounts (bcrypt password hashes)
  - question: questions with their vote tally and accepted answer
  - question_tag: tags per question
  - answer: answers with their vote tally
  - item_vote: one vote per user per question or answer
  - notification: per-user notifications

# Relationships

	app_user 1──* question 1──* answer
	question 1──* question_tag
	app_user 1──* item_vote *──1 question|answer
	app_user 1──* notification

question.votes and answer.votes always equal the net sum of item_vote rows
for the item (up = +1, down = -1); both are updated in one transaction.
*/
package db
