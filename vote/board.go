// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import "sync"

// Kind is the type of a votable item.
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

// ItemKey identifies a votable item.
type ItemKey struct {
	Kind Kind
	ID   string
}

func (k ItemKey) String() string {
	return string(k.Kind) + "/" + k.ID
}

// DispatcherFactory builds the dispatcher for one item.
type DispatcherFactory interface {
	Dispatcher(key ItemKey) Dispatcher
}

type DispatcherFactoryFunc func(key ItemKey) Dispatcher

func (f DispatcherFactoryFunc) Dispatcher(key ItemKey) Dispatcher {
	return f(key)
}

// Board owns one Reconciler per item so every view rendering the same
// question or answer shares its vote state.
type Board struct {
	mu      sync.Mutex
	items   map[ItemKey]*Reconciler
	factory DispatcherFactory
	opts    []Option
}

// NewBoard creates an empty board. opts are applied to every reconciler it
// creates, after the item name.
func NewBoard(factory DispatcherFactory, opts ...Option) *Board {
	return &Board{
		items:   make(map[ItemKey]*Reconciler),
		factory: factory,
		opts:    opts,
	}
}

// Seed returns the item's reconciler, creating it from seed or, if it
// already exists, re-seeding it with fresh server data. Re-seeding an item
// with a pending vote fails with ErrRejectedConcurrent and leaves it as is.
func (b *Board) Seed(key ItemKey, seed Seed) (*Reconciler, error) {
	b.mu.Lock()
	r, ok := b.items[key]
	if !ok {
		opts := append([]Option{WithItem(key.String())}, b.opts...)
		r = New(seed, b.factory.Dispatcher(key), opts...)
		b.items[key] = r
		b.mu.Unlock()
		return r, nil
	}
	b.mu.Unlock()

	if err := r.Reseed(seed); err != nil {
		return r, err
	}
	return r, nil
}

func (b *Board) Get(key ItemKey) (*Reconciler, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.items[key]
	return r, ok
}

// Drop discards the item's state, as when its view goes away. A request
// still in flight resolves against the dropped reconciler.
func (b *Board) Drop(key ItemKey) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.items, key)
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
