// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apiclient

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/stackit/models"
	"github.com/danielhkuo/stackit/vote"
)

func askQuestion(t *testing.T, c *Client, title string) string {
	t.Helper()
	var created models.CreatedResponse
	require.NoError(t, c.do(context.Background(), http.MethodPost, "/questions", nil, models.CreateQuestionRequest{
		Title:       title,
		Description: "details",
	}, &created))
	return created.ID
}

func postAnswer(t *testing.T, c *Client, questionID, content string) string {
	t.Helper()
	var created models.CreatedResponse
	require.NoError(t, c.do(context.Background(), http.MethodPost, "/questions/"+questionID+"/answers", nil,
		models.CreateAnswerRequest{Content: content}, &created))
	return created.ID
}

func TestSeedFrom(t *testing.T) {
	up := "up"
	bad := "sideways"

	seed, err := SeedFrom(4, &up)
	require.NoError(t, err)
	assert.Equal(t, vote.Seed{Tally: 4, Own: vote.Up}, seed)

	seed, err = SeedFrom(-2, nil)
	require.NoError(t, err)
	assert.Equal(t, vote.Seed{Tally: -2, Own: vote.None}, seed)

	_, err = SeedFrom(0, &bad)
	assert.ErrorIs(t, err, vote.ErrInvalidDirection)
}

// TestBoardAgainstServer drives reconcilers seeded from the server through
// the real voting endpoints and checks that display state and server state
// agree after every confirmed vote.
func TestBoardAgainstServer(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	alice, _ := loggedIn(t, srv.URL, "alice")
	bob, _ := loggedIn(t, srv.URL, "bob")

	questionID := askQuestion(t, alice, "Board")
	answerID := postAnswer(t, alice, questionID, "Self answer")

	_, err := alice.VoteQuestion(ctx, questionID, "up")
	require.NoError(t, err)

	page, err := bob.SeedQuestion(ctx, questionID)
	require.NoError(t, err)
	require.Len(t, page.Answers, 1)

	qKey := vote.ItemKey{Kind: vote.KindQuestion, ID: questionID}
	aKey := vote.ItemKey{Kind: vote.KindAnswer, ID: answerID}
	assert.Equal(t, vote.Seed{Tally: 1, Own: vote.None}, page.Seeds[qKey])
	assert.Equal(t, vote.Seed{Tally: 0, Own: vote.None}, page.Seeds[aKey])

	board := vote.NewBoard(bob.DispatcherFactory())
	for key, seed := range page.Seeds {
		_, err := board.Seed(key, seed)
		require.NoError(t, err)
	}

	q, ok := board.Get(qKey)
	require.True(t, ok)

	steps := []struct {
		dir   vote.Direction
		tally int
		own   vote.Direction
	}{
		{vote.Down, 0, vote.Down},
		{vote.Up, 2, vote.Up},
		{vote.Up, 1, vote.None},
	}
	for _, step := range steps {
		require.NoError(t, q.ApplyVote(ctx, step.dir))
		assert.Equal(t, vote.State{Tally: step.tally, Own: step.own}, q.DisplayState())

		server, err := bob.GetQuestion(ctx, questionID)
		require.NoError(t, err)
		assert.Equal(t, step.tally, server.Votes)
	}

	a, ok := board.Get(aKey)
	require.True(t, ok)
	require.NoError(t, a.ApplyVote(ctx, vote.Down))

	// reloading the page re-seeds with the caller's stored vote
	page, err = bob.SeedQuestion(ctx, questionID)
	require.NoError(t, err)
	assert.Equal(t, vote.Seed{Tally: -1, Own: vote.Down}, page.Seeds[aKey])
	_, err = board.Seed(aKey, page.Seeds[aKey])
	require.NoError(t, err)
	assert.Equal(t, vote.State{Tally: -1, Own: vote.Down}, a.DisplayState())

	assert.Len(t, srv.publisher.Events(), 5)
}

func TestVoteRollsBackOnServerRejection(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	alice, sessions := loggedIn(t, srv.URL, "alice")
	questionID := askQuestion(t, alice, "Rollback")

	r := vote.New(vote.Seed{Tally: 0}, alice.QuestionDispatcher(questionID), vote.WithItem("question/"+questionID))

	// an expired session makes the server refuse the vote
	require.NoError(t, sessions.Logout())

	err := r.ApplyVote(ctx, vote.Up)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vote.ErrVoteFailed))
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, vote.State{Tally: 0, Own: vote.None}, r.DisplayState())

	server, err := alice.GetQuestion(ctx, questionID)
	require.NoError(t, err)
	assert.Zero(t, server.Votes)
}

func TestSeedQuestionNotFound(t *testing.T) {
	srv := newTestServer(t)
	_, err := New(srv.URL).SeedQuestion(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusNotFound))
}
