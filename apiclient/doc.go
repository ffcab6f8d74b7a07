// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apiclient is a small client for the StackIt REST API, limited to
the calls the command-line client needs: authentication, reading questions
and answers, voting, accepting and notifications.

The client never stores credentials. It asks a TokenSource, normally a
*session.Context, for the bearer token on every request:

	client := apiclient.New("http://localhost:8000", apiclient.WithTokenSource(sessions))

Non-2xx responses are returned as *APIError carrying the server's message.

Vote requests are adapted to vote.Dispatcher so a vote.Board can drive them:

	board := vote.NewBoard(client.DispatcherFactory())
	page, err := client.SeedQuestion(ctx, id)
	for key, seed := range page.Seeds {
		board.Seed(key, seed)
	}
*/
package apiclient
