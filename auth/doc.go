// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides password hashing, access tokens and ID generation.

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(hash, password) // ErrInvalidCredentials on mismatch

# Access Tokens

Access tokens are HS256 JWTs carrying the user ID, username and admin role:

	token, err := auth.IssueToken(userID, username, false, secret, 24*time.Hour)
	claims, err := auth.ParseToken(token, secret)

Clients send them as "Authorization: Bearer <token>":

	token, err := auth.BearerToken(r)

# ID Generation

Random UUIDs for database records:

	id := auth.NewID()
*/
package auth
