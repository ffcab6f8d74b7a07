// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package session keeps the logged-in user's credentials for the
// command-line client, in memory behind a Context and on disk in a bbolt
// file.
package session
