// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/stackit/apiclient"
	"github.com/danielhkuo/stackit/logging"
	"github.com/danielhkuo/stackit/metrics"
	"github.com/danielhkuo/stackit/models"
	"github.com/danielhkuo/stackit/session"
	"github.com/danielhkuo/stackit/vote"
)

var errNotLoggedIn = errors.New("not logged in; run `stackit login` first")

type app struct {
	cfg      *Config
	out      io.Writer
	logger   *slog.Logger
	store    *session.Store
	sessions *session.Context
	client   *apiclient.Client
	metrics  *metrics.ReconcilerMetrics

	// board holds the vote state of every item a command has loaded
	board *vote.Board
}

func newApp(cfg *Config, stdout, stderr io.Writer) (*app, error) {
	logger, _, err := logging.New(stderr, cfg.LogLevel, "")
	if err != nil {
		return nil, err
	}

	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	sessions := session.NewContext(store)
	if err := sessions.Load(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	a := &app{
		cfg:      cfg,
		out:      stdout,
		logger:   logger,
		store:    store,
		sessions: sessions,
		client:   apiclient.New(cfg.API, apiclient.WithTokenSource(sessions)),
		metrics:  metrics.NewReconcilerMetrics(prometheus.NewRegistry(), "stackit_client"),
	}
	a.board = vote.NewBoard(a.client.DispatcherFactory(),
		vote.WithObserver(a.printState),
		vote.WithMetrics(a.metrics),
		vote.WithLogger(logger),
	)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami()
	case "questions":
		return a.questions(ctx)
	case "show":
		if len(args) != 1 {
			return errors.New("usage: stackit show <question-id>")
		}
		return a.show(ctx, args[0])
	case "vote":
		if len(args) != 2 {
			return errors.New("usage: stackit vote <question-id> up|down [--answer <answer-id>]")
		}
		return a.vote(ctx, args[0], args[1])
	case "accept":
		if len(args) != 1 {
			return errors.New("usage: stackit accept <answer-id>")
		}
		return a.accept(ctx, args[0])
	case "notifications":
		return a.notifications(ctx)
	case "flag":
		if len(args) != 1 {
			return errors.New("usage: stackit flag <question-id> [--answer <answer-id>]")
		}
		return a.flag(ctx, args[0])
	case "flags":
		return a.flags(ctx)
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: stackit delete <question-id> [--answer <answer-id>]")
		}
		return a.remove(ctx, args[0])
	}
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) register(ctx context.Context) error {
	resp, err := a.client.Register(ctx, models.RegisterRequest{
		Username: a.cfg.Username,
		Email:    a.cfg.Email,
		Password: a.cfg.Password,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s (%s)\n", a.cfg.Username, resp.UserID)
	return nil
}

func (a *app) login(ctx context.Context) error {
	if a.cfg.Email == "" || a.cfg.Password == "" {
		return errors.New("--email and --password are required")
	}
	resp, err := a.client.Login(ctx, a.cfg.Email, a.cfg.Password)
	if err != nil {
		return err
	}
	err = a.sessions.Login(session.Session{
		Token:    resp.AccessToken,
		UserID:   resp.UserID,
		Username: resp.Username,
		Email:    a.cfg.Email,
		IsAdmin:  resp.IsAdmin,
		IssuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	fmt.Fprintf(a.out, "logged in as %s\n", resp.Username)
	return nil
}

func (a *app) logout() error {
	if err := a.sessions.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami() error {
	sess, ok := a.sessions.Current()
	if !ok {
		return errNotLoggedIn
	}
	role := ""
	if sess.IsAdmin {
		role = " (admin)"
	}
	fmt.Fprintf(a.out, "%s <%s>%s, logged in %s\n", sess.Username, sess.Email, role, humanize.Time(sess.IssuedAt))
	return nil
}

func (a *app) questions(ctx context.Context) error {
	questions, err := a.client.ListQuestions(ctx, a.cfg.Tag)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		fmt.Fprintln(a.out, "no questions")
		return nil
	}
	for _, q := range questions {
		fmt.Fprintf(a.out, "%s  %s%4d  %s  [%s]  %s by %s, %s\n",
			q.ID, ownMark(q.UserVote), q.Votes, q.Title, strings.Join(q.Tags, ", "),
			pluralAnswers(q.AnswerCount), q.Author, humanize.Time(q.CreatedAt))
	}
	return nil
}

// loadQuestion fetches a question with its answers and seeds every item on
// the board. Items with a vote in flight keep their state.
func (a *app) loadQuestion(ctx context.Context, questionID string) (apiclient.QuestionPage, error) {
	page, err := a.client.SeedQuestion(ctx, questionID)
	if err != nil {
		return page, err
	}
	for key, seed := range page.Seeds {
		if _, err := a.board.Seed(key, seed); err != nil {
			a.logger.Debug("kept pending vote state", "item", key.String(), "error", err)
		}
	}
	a.logger.Debug("question loaded", "question_id", questionID, "items", a.board.Len())
	return page, nil
}

// displayed returns the board's state for an item loaded by loadQuestion.
func (a *app) displayed(kind vote.Kind, id string) vote.State {
	if r, ok := a.board.Get(vote.ItemKey{Kind: kind, ID: id}); ok {
		return r.DisplayState()
	}
	return vote.State{}
}

func (a *app) show(ctx context.Context, questionID string) error {
	page, err := a.loadQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	q := page.Question
	qs := a.displayed(vote.KindQuestion, q.ID)
	fmt.Fprintf(a.out, "%s\n%s%d votes  asked by %s %s\n", q.Title, directionMark(qs.Own), qs.Tally, q.Author, humanize.Time(q.CreatedAt))
	if len(q.Tags) > 0 {
		fmt.Fprintf(a.out, "tags: %s\n", strings.Join(q.Tags, ", "))
	}
	fmt.Fprintf(a.out, "\n%s\n\n%s\n", q.Description, pluralAnswers(len(page.Answers)))
	for _, ans := range page.Answers {
		accepted := ""
		if ans.Accepted {
			accepted = " (accepted)"
		}
		as := a.displayed(vote.KindAnswer, ans.ID)
		fmt.Fprintf(a.out, "- %s  %s%d votes%s  %s, %s\n  %s\n",
			ans.ID, directionMark(as.Own), as.Tally, accepted, ans.Author, humanize.Time(ans.CreatedAt), ans.Content)
	}
	return nil
}

// vote loads the question onto the board, then applies the vote
// optimistically and reports the state after each transition.
func (a *app) vote(ctx context.Context, questionID, direction string) error {
	if a.sessions.Token() == "" {
		return errNotLoggedIn
	}
	requested, err := vote.ParseDirection(direction)
	if err != nil || requested == vote.None {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	if _, err := a.loadQuestion(ctx, questionID); err != nil {
		return err
	}

	key := a.itemKey(questionID)
	r, ok := a.board.Get(key)
	if !ok {
		return fmt.Errorf("answer %s not found on question %s", a.cfg.Answer, questionID)
	}
	a.printState(key.String(), r.DisplayState())

	if err := r.ApplyVote(ctx, requested); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.out, "interrupted; the vote was already sent")
		}
		return err
	}
	return nil
}

// itemKey is the question, or the answer named by --answer.
func (a *app) itemKey(questionID string) vote.ItemKey {
	if a.cfg.Answer != "" {
		return vote.ItemKey{Kind: vote.KindAnswer, ID: a.cfg.Answer}
	}
	return vote.ItemKey{Kind: vote.KindQuestion, ID: questionID}
}

func (a *app) printState(item string, s vote.State) {
	status := ""
	if s.Pending {
		status = "  (sending...)"
	}
	fmt.Fprintf(a.out, "%s: %d, your vote: %s%s\n", item, s.Tally, s.Own, status)
}

func (a *app) accept(ctx context.Context, answerID string) error {
	if err := a.client.AcceptAnswer(ctx, answerID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "accepted %s\n", answerID)
	return nil
}

func (a *app) notifications(ctx context.Context) error {
	notes, err := a.client.Notifications(ctx, a.cfg.Unread)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		fmt.Fprintln(a.out, "no notifications")
	}
	for _, n := range notes {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %s\n", marker, humanize.Time(n.CreatedAt), n.Message)
	}
	if a.cfg.MarkRead && len(notes) > 0 {
		return a.client.MarkNotificationsRead(ctx)
	}
	return nil
}

func (a *app) flag(ctx context.Context, questionID string) error {
	if a.sessions.Token() == "" {
		return errNotLoggedIn
	}
	key := a.itemKey(questionID)
	var err error
	if key.Kind == vote.KindAnswer {
		_, err = a.client.FlagAnswer(ctx, key.ID)
	} else {
		_, err = a.client.FlagQuestion(ctx, key.ID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "flagged %s\n", key)
	return nil
}

func (a *app) flags(ctx context.Context) error {
	flags, err := a.client.Flags(ctx)
	if err != nil {
		return err
	}
	if len(flags) == 0 {
		fmt.Fprintln(a.out, "no flags")
	}
	for _, f := range flags {
		fmt.Fprintf(a.out, "%s/%s  flagged by %s %s\n", f.Type, f.ItemID, f.Username, humanize.Time(f.CreatedAt))
	}
	return nil
}

// remove deletes a question or answer and discards its vote state.
func (a *app) remove(ctx context.Context, questionID string) error {
	key := a.itemKey(questionID)
	var err error
	if key.Kind == vote.KindAnswer {
		err = a.client.DeleteAnswer(ctx, key.ID)
	} else {
		err = a.client.DeleteQuestion(ctx, key.ID)
	}
	if err != nil {
		return err
	}
	a.board.Drop(key)
	fmt.Fprintf(a.out, "deleted %s\n", key)
	return nil
}

func ownMark(userVote *string) string {
	if userVote == nil {
		return directionMark(vote.None)
	}
	d, _ := vote.ParseDirection(*userVote)
	return directionMark(d)
}

func directionMark(d vote.Direction) string {
	switch d {
	case vote.Up:
		return "+ "
	case vote.Down:
		return "- "
	}
	return "  "
}

func pluralAnswers(n int) string {
	if n == 1 {
		return "1 answer"
	}
	return humanize.Comma(int64(n)) + " answers"
}
