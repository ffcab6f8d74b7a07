// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/stackit/events"
	"github.com/danielhkuo/stackit/router"
	"github.com/danielhkuo/stackit/testutil"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("STACKIT_API", "http://env:8000")
	t.Setenv("STACKIT_SESSION", "/tmp/env-session.db")

	tests := []struct {
		name            string
		args            []string
		expectedAPI     string
		expectedSession string
		expectedArgs    []string
	}{
		{
			name:            "env fallbacks",
			args:            []string{"questions"},
			expectedAPI:     "http://env:8000",
			expectedSession: "/tmp/env-session.db",
			expectedArgs:    []string{"questions"},
		},
		{
			name:            "flags win over env",
			args:            []string{"--api", "http://flag:9000", "vote", "q1", "up", "--session", "/tmp/flag.db"},
			expectedAPI:     "http://flag:9000",
			expectedSession: "/tmp/flag.db",
			expectedArgs:    []string{"vote", "q1", "up"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
			AddFlags(flags)

			cfg, err := ParseFlags(flags, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAPI, cfg.API)
			assert.Equal(t, tt.expectedSession, cfg.SessionPath)
			assert.Equal(t, tt.expectedArgs, cfg.Args)
		})
	}
}

type cli struct {
	t       *testing.T
	api     string
	session string
}

func (c cli) run(args ...string) (string, error) {
	c.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--api", c.api, "--session", c.session}, args...)
	err := run(context.Background(), full, &stdout, &stderr)
	return stdout.String(), err
}

func TestCommands(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	cfg := testutil.GetTestConfig()

	srv := httptest.NewServer(router.NewRouter(db, cfg, events.NopPublisher{}, prometheus.NewRegistry()))
	defer srv.Close()

	aliceID, _ := testutil.CreateTestUser(t, db, cfg, "alice")
	questionID := testutil.CreateTestQuestion(t, db, aliceID, "Context cancellation", "go")
	answerID := testutil.CreateTestAnswer(t, db, questionID, aliceID, "Check ctx.Err()")

	c := cli{t: t, api: srv.URL, session: filepath.Join(t.TempDir(), "session.db")}

	_, err := c.run("vote", questionID, "up")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := c.run("register", "--username", "bob", "--email", "bob@example.com", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "registered bob")

	out, err = c.run("login", "--email", "bob@example.com", "--password", "password123")
	require.NoError(t, err)
	assert.Contains(t, out, "logged in as bob")

	// the session outlives the process
	out, err = c.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "bob <bob@example.com>")

	out, err = c.run("questions", "--tag", "go")
	require.NoError(t, err)
	assert.Contains(t, out, "Context cancellation")

	key := "question/" + questionID
	out, err = c.run("vote", questionID, "up")
	require.NoError(t, err)
	assert.Equal(t,
		key+": 0, your vote: none\n"+
			key+": 1, your vote: up  (sending...)\n"+
			key+": 1, your vote: up\n",
		out)

	out, err = c.run("vote", questionID, "up")
	require.NoError(t, err)
	assert.Contains(t, out, key+": 1, your vote: up\n")
	assert.Contains(t, out, key+": 0, your vote: none\n")

	out, err = c.run("vote", questionID, "down", "--answer", answerID)
	require.NoError(t, err)
	assert.Contains(t, out, "answer/"+answerID+": -1, your vote: down\n")

	_, err = c.run("vote", questionID, "down", "--answer", "missing")
	assert.Error(t, err)

	_, err = c.run("vote", questionID, "sideways")
	assert.Error(t, err)

	out, err = c.run("show", questionID)
	require.NoError(t, err)
	assert.Contains(t, out, "Context cancellation")
	assert.Contains(t, out, "1 answer")
	assert.Contains(t, out, "- -1 votes")

	_, err = c.run("accept", answerID)
	assert.Error(t, err, "only the question author may accept")

	out, err = c.run("notifications", "--unread")
	require.NoError(t, err)
	assert.Contains(t, out, "no notifications")

	out, err = c.run("logout")
	require.NoError(t, err)
	assert.Contains(t, out, "logged out")

	_, err = c.run("whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	_, err = c.run("frobnicate")
	assert.Error(t, err)
}

func TestModerationCommands(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	cfg := testutil.GetTestConfig()
	cfg.AdminEmails = []string{"root@example.com"}

	srv := httptest.NewServer(router.NewRouter(db, cfg, events.NopPublisher{}, prometheus.NewRegistry()))
	defer srv.Close()

	aliceID, _ := testutil.CreateTestUser(t, db, cfg, "alice")
	questionID := testutil.CreateTestQuestion(t, db, aliceID, "Buy followers", "spam")
	answerID := testutil.CreateTestAnswer(t, db, questionID, aliceID, "Cheap!")

	user := cli{t: t, api: srv.URL, session: filepath.Join(t.TempDir(), "session.db")}
	admin := cli{t: t, api: srv.URL, session: filepath.Join(t.TempDir(), "session.db")}

	for _, u := range []struct {
		c    cli
		name string
	}{{user, "bob"}, {admin, "root"}} {
		_, err := u.c.run("register", "--username", u.name, "--email", u.name+"@example.com", "--password", "password123")
		require.NoError(t, err)
		_, err = u.c.run("login", "--email", u.name+"@example.com", "--password", "password123")
		require.NoError(t, err)
	}

	out, err := admin.run("whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "root <root@example.com> (admin)")

	out, err = user.run("flag", questionID)
	require.NoError(t, err)
	assert.Equal(t, "flagged question/"+questionID+"\n", out)

	out, err = user.run("flag", questionID, "--answer", answerID)
	require.NoError(t, err)
	assert.Equal(t, "flagged answer/"+answerID+"\n", out)

	_, err = user.run("flags")
	assert.Error(t, err)

	out, err = admin.run("flags")
	require.NoError(t, err)
	assert.Contains(t, out, "answer/"+answerID+"  flagged by bob")
	assert.Contains(t, out, "question/"+questionID+"  flagged by bob")

	_, err = user.run("delete", questionID)
	assert.Error(t, err)

	out, err = admin.run("delete", questionID, "--answer", answerID)
	require.NoError(t, err)
	assert.Equal(t, "deleted answer/"+answerID+"\n", out)

	out, err = admin.run("show", questionID)
	require.NoError(t, err)
	assert.Contains(t, out, "0 answers")

	_, err = admin.run("delete", questionID)
	require.NoError(t, err)

	_, err = admin.run("show", questionID)
	assert.Error(t, err)

	out, err = admin.run("flags")
	require.NoError(t, err)
	assert.Contains(t, out, "no flags")
}
