// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/stackit/metrics"
)

// gatedDispatcher blocks every dispatch until the test releases it.
type gatedDispatcher struct {
	calls   chan Direction
	release chan error
}

func newGatedDispatcher() *gatedDispatcher {
	return &gatedDispatcher{
		calls:   make(chan Direction, 8),
		release: make(chan error),
	}
}

func (g *gatedDispatcher) Dispatch(ctx context.Context, requested Direction) error {
	g.calls <- requested
	return <-g.release
}

func succeed() Dispatcher {
	return DispatcherFunc(func(context.Context, Direction) error { return nil })
}

func fail(msg string) Dispatcher {
	return DispatcherFunc(func(context.Context, Direction) error { return errors.New(msg) })
}

func TestTransition(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		current   Direction
		requested Direction
		delta     int
		next      Direction
	}{
		{None, Up, 1, Up},
		{None, Down, -1, Down},
		{Up, Up, -1, None},
		{Down, Down, 1, None},
		{Up, Down, -2, Down},
		{Down, Up, 2, Up},
	}

	for _, tc := range tests {
		delta, next := Transition(tc.current, tc.requested)
		assert.Equal(tc.delta, delta, "%s -> %s", tc.current, tc.requested)
		assert.Equal(tc.next, next, "%s -> %s", tc.current, tc.requested)
	}
}

func TestParseDirection(t *testing.T) {
	assert := assert.New(t)

	for in, want := range map[string]Direction{"up": Up, "down": Down, "": None, "none": None} {
		got, err := ParseDirection(in)
		assert.NoError(err)
		assert.Equal(want, got)
	}

	_, err := ParseDirection("sideways")
	assert.ErrorIs(err, ErrInvalidDirection)
}

func TestReconciler_Scenarios(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	gate := newGatedDispatcher()
	r := New(Seed{Tally: 5, Own: None}, gate)

	// upvote from no vote
	done, err := r.Submit(ctx, Up)
	require.NoError(err)
	require.Equal(State{Tally: 6, Own: Up, Pending: true}, r.DisplayState())
	require.Equal(Up, <-gate.calls)
	gate.release <- nil
	require.NoError(<-done)
	require.Equal(State{Tally: 6, Own: Up}, r.DisplayState())

	// switch to down moves the tally by two
	done, err = r.Submit(ctx, Down)
	require.NoError(err)
	require.Equal(State{Tally: 4, Own: Down, Pending: true}, r.DisplayState())
	require.Equal(Down, <-gate.calls)
	gate.release <- nil
	require.NoError(<-done)
	require.Equal(State{Tally: 4, Own: Down}, r.DisplayState())

	// toggle off fails and rolls back
	done, err = r.Submit(ctx, Down)
	require.NoError(err)
	require.Equal(State{Tally: 5, Own: None, Pending: true}, r.DisplayState())
	require.Equal(Down, <-gate.calls, "the raw intent is dispatched, not the delta")
	gate.release <- errors.New("HTTP error! status: 500")
	err = <-done
	require.ErrorIs(err, ErrVoteFailed)
	var failed *FailedError
	require.ErrorAs(err, &failed)
	require.Equal("HTTP error! status: 500", failed.Reason)
	require.Equal(Down, failed.Requested)
	require.Equal(State{Tally: 4, Own: Down}, r.DisplayState())
}

func TestReconciler_RejectsWhilePending(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	gate := newGatedDispatcher()
	r := New(Seed{}, gate)

	done, err := r.Submit(ctx, Up)
	require.NoError(err)
	<-gate.calls

	_, err = r.Submit(ctx, Down)
	require.ErrorIs(err, ErrRejectedConcurrent)
	require.Equal(State{Tally: 1, Own: Up, Pending: true}, r.DisplayState())

	require.ErrorIs(r.ApplyVote(ctx, Up), ErrRejectedConcurrent)
	require.Equal(State{Tally: 1, Own: Up, Pending: true}, r.DisplayState())

	gate.release <- nil
	require.NoError(<-done)

	// voting is possible again once resolved
	done, err = r.Submit(ctx, Up)
	require.NoError(err)
	require.Equal(State{Tally: 0, Own: None, Pending: true}, r.DisplayState())
	<-gate.calls
	gate.release <- nil
	require.NoError(<-done)
}

func TestReconciler_ToggleRestoresTally(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	for _, dir := range []Direction{Up, Down} {
		r := New(Seed{Tally: 10}, succeed())
		require.NoError(r.ApplyVote(ctx, dir))
		require.NoError(r.ApplyVote(ctx, dir))
		require.Equal(State{Tally: 10, Own: None}, r.DisplayState())
	}
}

func TestReconciler_InvalidDirection(t *testing.T) {
	r := New(Seed{Tally: 3}, succeed())

	_, err := r.Submit(context.Background(), None)
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.Equal(t, State{Tally: 3}, r.DisplayState())
}

func TestReconciler_RollbackFromSeededDirection(t *testing.T) {
	require := require.New(t)
	r := New(Seed{Tally: -2, Own: Down}, fail("network unreachable"))

	err := r.ApplyVote(context.Background(), Up)
	require.ErrorIs(err, ErrVoteFailed)
	require.Contains(err.Error(), "network unreachable")
	require.Equal(State{Tally: -2, Own: Down}, r.DisplayState())
}

func TestReconciler_DispatchOutlivesCallerContext(t *testing.T) {
	require := require.New(t)
	gate := newGatedDispatcher()
	r := New(Seed{Tally: 1}, gate)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.ApplyVote(ctx, Up) }()

	<-gate.calls
	cancel()
	require.ErrorIs(<-errc, context.Canceled)
	require.True(r.DisplayState().Pending)

	gate.release <- nil
	require.Eventually(func() bool {
		return !r.DisplayState().Pending
	}, time.Second, 5*time.Millisecond)
	require.Equal(State{Tally: 2, Own: Up}, r.DisplayState())
}

func TestReconciler_Observer(t *testing.T) {
	require := require.New(t)

	var mu sync.Mutex
	var seen []State
	r := New(Seed{Tally: 0}, fail("boom"),
		WithItem("answer/a1"),
		WithObserver(func(item string, s State) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, "answer/a1", item)
			seen = append(seen, s)
		}),
	)

	err := r.ApplyVote(context.Background(), Down)
	require.ErrorContains(err, "answer/a1")

	mu.Lock()
	defer mu.Unlock()
	require.Equal([]State{
		{Tally: -1, Own: Down, Pending: true},
		{Tally: 0, Own: None},
	}, seen)
}

func TestReconciler_ObserverReadsStateDuringConcurrentSubmit(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	paused := make(chan struct{})
	resume := make(chan struct{})

	var mu sync.Mutex
	var seen []State
	var read State
	var r *Reconciler
	r = New(Seed{Tally: 3}, succeed(), WithObserver(func(_ string, s State) {
		mu.Lock()
		seen = append(seen, s)
		n := len(seen)
		mu.Unlock()

		// hold the confirmation of the first vote until a second vote has started
		if n == 2 {
			close(paused)
			<-resume
			st := r.DisplayState()
			mu.Lock()
			read = st
			mu.Unlock()
		}
	}))

	first, err := r.Submit(ctx, Up)
	require.NoError(err)
	<-paused

	submitted := make(chan (<-chan error), 1)
	go func() {
		done, err := r.Submit(ctx, Down)
		assert.NoError(t, err)
		submitted <- done
	}()

	var second <-chan error
	select {
	case second = <-submitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked while an observer was running")
	}
	close(resume)

	for _, done := range []<-chan error{first, second} {
		select {
		case err := <-done:
			require.NoError(err)
		case <-time.After(2 * time.Second):
			t.Fatal("vote never resolved")
		}
	}

	require.Equal(State{Tally: 2, Own: Down}, r.DisplayState())

	mu.Lock()
	defer mu.Unlock()
	require.Equal([]State{
		{Tally: 4, Own: Up, Pending: true},
		{Tally: 4, Own: Up},
		{Tally: 2, Own: Down, Pending: true},
		{Tally: 2, Own: Down},
	}, seen)
	require.Equal(Down, read.Own)
}

func TestReconciler_ObserverMaySubmit(t *testing.T) {
	require := require.New(t)

	var r *Reconciler
	nested := make(chan error, 1)
	r = New(Seed{}, succeed(), WithObserver(func(_ string, s State) {
		if s.Pending {
			_, err := r.Submit(context.Background(), Down)
			nested <- err
		}
	}))

	done, err := r.Submit(context.Background(), Up)
	require.NoError(err)
	require.ErrorIs(<-nested, ErrRejectedConcurrent)
	require.NoError(<-done)
	require.Equal(State{Tally: 1, Own: Up}, r.DisplayState())
}

func TestReconciler_Reseed(t *testing.T) {
	require := require.New(t)
	gate := newGatedDispatcher()
	r := New(Seed{Tally: 1}, gate)

	require.NoError(r.Reseed(Seed{Tally: 7, Own: Up}))
	require.Equal(State{Tally: 7, Own: Up}, r.DisplayState())

	done, err := r.Submit(context.Background(), Up)
	require.NoError(err)
	<-gate.calls
	require.ErrorIs(r.Reseed(Seed{Tally: 100}), ErrRejectedConcurrent)

	gate.release <- nil
	require.NoError(<-done)
	require.Equal(State{Tally: 6, Own: None}, r.DisplayState())
}

func TestReconciler_Metrics(t *testing.T) {
	require := require.New(t)
	m := metrics.NewReconcilerMetrics(prometheus.NewRegistry(), "stackit")
	gate := newGatedDispatcher()
	r := New(Seed{}, gate, WithMetrics(m))

	done, err := r.Submit(context.Background(), Up)
	require.NoError(err)
	<-gate.calls
	_, err = r.Submit(context.Background(), Up)
	require.ErrorIs(err, ErrRejectedConcurrent)
	gate.release <- errors.New("down")
	require.Error(<-done)

	require.Equal(1.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OutcomeApplied)))
	require.Equal(1.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OutcomeRejected)))
	require.Equal(1.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OutcomeRolledBack)))
	require.Equal(0.0, testutil.ToFloat64(m.Events.WithLabelValues(metrics.OutcomeConfirmed)))
}
