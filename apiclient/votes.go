// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apiclient

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/stackit/models"
	"github.com/danielhkuo/stackit/vote"
)

// QuestionDispatcher sends votes on one question. Only the requested
// direction goes over the wire; the server derives the delta.
func (c *Client) QuestionDispatcher(id string) vote.Dispatcher {
	return vote.DispatcherFunc(func(ctx context.Context, requested vote.Direction) error {
		_, err := c.VoteQuestion(ctx, id, requested.String())
		return err
	})
}

func (c *Client) AnswerDispatcher(id string) vote.Dispatcher {
	return vote.DispatcherFunc(func(ctx context.Context, requested vote.Direction) error {
		_, err := c.VoteAnswer(ctx, id, requested.String())
		return err
	})
}

// DispatcherFactory builds dispatchers for a vote.Board.
func (c *Client) DispatcherFactory() vote.DispatcherFactory {
	return vote.DispatcherFactoryFunc(func(key vote.ItemKey) vote.Dispatcher {
		if key.Kind == vote.KindAnswer {
			return c.AnswerDispatcher(key.ID)
		}
		return c.QuestionDispatcher(key.ID)
	})
}

// QuestionPage is a question with its answers and the vote seeds for each.
type QuestionPage struct {
	Question models.Question
	Answers  []models.Answer
	Seeds    map[vote.ItemKey]vote.Seed
}

// SeedQuestion loads a question and its answers concurrently.
func (c *Client) SeedQuestion(ctx context.Context, id string) (QuestionPage, error) {
	var page QuestionPage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := c.GetQuestion(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load question %s: %w", id, err)
		}
		page.Question = q
		return nil
	})
	g.Go(func() error {
		answers, err := c.ListAnswers(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to load answers for %s: %w", id, err)
		}
		page.Answers = answers
		return nil
	})
	if err := g.Wait(); err != nil {
		return QuestionPage{}, err
	}

	page.Seeds = make(map[vote.ItemKey]vote.Seed, len(page.Answers)+1)
	seed, err := SeedFrom(page.Question.Votes, page.Question.UserVote)
	if err != nil {
		return QuestionPage{}, err
	}
	page.Seeds[vote.ItemKey{Kind: vote.KindQuestion, ID: page.Question.ID}] = seed

	for _, a := range page.Answers {
		seed, err := SeedFrom(a.Votes, a.UserVote)
		if err != nil {
			return QuestionPage{}, err
		}
		page.Seeds[vote.ItemKey{Kind: vote.KindAnswer, ID: a.ID}] = seed
	}
	return page, nil
}

// SeedFrom converts a server tally and user_vote into a reconciler seed.
func SeedFrom(votes int, userVote *string) (vote.Seed, error) {
	own := vote.None
	if userVote != nil {
		d, err := vote.ParseDirection(*userVote)
		if err != nil {
			return vote.Seed{}, err
		}
		own = d
	}
	return vote.Seed{Tally: votes, Own: own}, nil
}
