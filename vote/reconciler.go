// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import (
	"context"
	"log/slog"
	"sync"

	"github.com/danielhkuo/stackit/metrics"
)

// Seed is the server-loaded state an item's reconciler starts from.
type Seed struct {
	Tally int
	Own   Direction
}

// State is the display snapshot of one votable item.
type State struct {
	Tally   int
	Own     Direction
	Pending bool
}

// Dispatcher sends the caller's raw intent to the remote voting endpoint.
type Dispatcher interface {
	Dispatch(ctx context.Context, requested Direction) error
}

type DispatcherFunc func(ctx context.Context, requested Direction) error

func (f DispatcherFunc) Dispatch(ctx context.Context, requested Direction) error {
	return f(ctx, requested)
}

// Observer is called with the new state after every mutation.
type Observer func(item string, s State)

type Option func(*Reconciler)

// WithItem names the item in logs and errors.
func WithItem(item string) Option {
	return func(r *Reconciler) { r.item = item }
}

func WithObserver(o Observer) Option {
	return func(r *Reconciler) { r.observer = o }
}

func WithMetrics(m *metrics.ReconcilerMetrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// Reconciler keeps the displayed tally and own direction of one item,
// applies votes optimistically and rolls them back when the remote
// request fails. At most one request is in flight at a time.
type Reconciler struct {
	mu    sync.Mutex
	state State

	// states waiting for the observer, in mutation order
	queue     []State
	notifying bool

	dispatcher Dispatcher
	item       string
	observer   Observer
	metrics    *metrics.ReconcilerMetrics
	logger     *slog.Logger
}

func New(seed Seed, d Dispatcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		state:      State{Tally: seed.Tally, Own: seed.Own},
		dispatcher: d,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DisplayState returns a copy of the current state for rendering.
func (r *Reconciler) DisplayState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reseed replaces the state with fresh server data. Refused while a vote is
// pending so an in-flight rollback cannot clobber the new seed.
func (r *Reconciler) Reseed(seed Seed) error {
	r.mu.Lock()
	if r.state.Pending {
		r.mu.Unlock()
		return ErrRejectedConcurrent
	}
	r.state = State{Tally: seed.Tally, Own: seed.Own}
	r.unlockAndNotify(r.state)
	return nil
}

// Submit applies the vote optimistically and dispatches it in the
// background. The mutation is visible through DisplayState before Submit
// returns. The returned channel receives exactly one value: nil on success
// or a *FailedError after the state has been rolled back.
//
// The dispatch does not inherit ctx cancellation: once sent, a request runs
// to completion and its outcome always reconciles the state.
func (r *Reconciler) Submit(ctx context.Context, requested Direction) (<-chan error, error) {
	if requested != Up && requested != Down {
		return nil, ErrInvalidDirection
	}

	r.mu.Lock()
	if r.state.Pending {
		r.mu.Unlock()
		r.metrics.Observe(metrics.OutcomeRejected)
		r.logger.Debug("vote rejected while pending", "item", r.item, "requested", requested)
		return nil, ErrRejectedConcurrent
	}

	prior := r.state
	delta, next := Transition(prior.Own, requested)
	r.state = State{Tally: prior.Tally + delta, Own: next, Pending: true}
	r.unlockAndNotify(r.state)

	r.metrics.Observe(metrics.OutcomeApplied)

	done := make(chan error, 1)
	dispatchCtx := context.WithoutCancel(ctx)
	go func() {
		err := r.dispatcher.Dispatch(dispatchCtx, requested)
		done <- r.resolve(prior, requested, err)
	}()

	return done, nil
}

// ApplyVote is Submit followed by waiting for the outcome. If ctx ends
// first it returns ctx.Err(); the request still resolves the state later.
func (r *Reconciler) ApplyVote(ctx context.Context, requested Direction) error {
	done, err := r.Submit(ctx, requested)
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Reconciler) resolve(prior State, requested Direction, err error) error {
	r.mu.Lock()
	if err == nil {
		r.state.Pending = false
	} else {
		// restore the snapshot taken before the optimistic mutation
		r.state = State{Tally: prior.Tally, Own: prior.Own}
	}
	cur := r.state
	r.unlockAndNotify(cur)

	if err != nil {
		r.metrics.Observe(metrics.OutcomeRolledBack)
		r.logger.Warn("vote rolled back", "item", r.item, "requested", requested, "error", err)
		return &FailedError{
			Item:      r.item,
			Requested: requested,
			Reason:    err.Error(),
			Err:       err,
		}
	}

	r.metrics.Observe(metrics.OutcomeConfirmed)
	r.logger.Debug("vote confirmed", "item", r.item, "requested", requested, "tally", cur.Tally)
	return nil
}

// unlockAndNotify queues s for the observer and releases mu. The goroutine
// that finds no delivery running drains the queue, calling the observer
// without holding mu. Observers see states in mutation order and may call
// DisplayState or Submit.
func (r *Reconciler) unlockAndNotify(s State) {
	if r.observer == nil {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, s)
	if r.notifying {
		r.mu.Unlock()
		return
	}
	r.notifying = true
	for len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		r.observer(r.item, next)
		r.mu.Lock()
	}
	r.notifying = false
	r.mu.Unlock()
}
