// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package vote reconciles a caller's own votes on questions and answers.

# Reconciler

A Reconciler holds the displayed tally and the caller's own direction for one
item. It is seeded from server data:

	r := vote.New(vote.Seed{Tally: 5, Own: vote.None}, dispatcher)

Voting mutates the state immediately and sends the raw direction to the
server:

	err := r.ApplyVote(ctx, vote.Up)

Transitions, given the current own direction:

	None -> Up    +1     None -> Down  -1
	Up   -> Up    -1     Down -> Down  +1   (toggle off)
	Up   -> Down  -2     Down -> Up    +2   (switch)

While a request is in flight the item is pending and further votes fail
with ErrRejectedConcurrent. A failed request restores the exact state from
before the vote and returns a *FailedError (errors.Is(err, ErrVoteFailed)).
Requests are never retried.

Submit performs the optimistic step and returns at once; the outcome arrives
on the returned channel:

	done, err := r.Submit(ctx, vote.Down)
	if err != nil { ... } // rejected
	render(r.DisplayState())
	err = <-done

# Board

A Board hands out one Reconciler per item, so every view rendering an item
shares its state:

	board := vote.NewBoard(client.DispatcherFactory())
	r, err := board.Seed(vote.ItemKey{Kind: vote.KindQuestion, ID: id}, seed)
*/
package vote
