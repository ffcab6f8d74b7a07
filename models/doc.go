// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types shared by the API
server and its Go client.

# Request Types

  - RegisterRequest, LoginRequest: account creation and sign-in
  - CreateQuestionRequest: title, description, tags
  - CreateAnswerRequest: content
  - VoteRequest: direction ("up" or "down")

# Response Types

  - LoginResponse: access_token, token_type ("bearer")
  - VoteResponse: message, votes, user_vote
  - UnreadCountResponse: unread_count
  - ErrorResponse: error, message

# Domain Types

  - Question, Answer: votable items with their tally (votes) and the
    caller's own vote (user_vote, null when none)
  - Notification: new answers and accepted answers
  - VoteEvent: published after every recorded vote
*/
package models
