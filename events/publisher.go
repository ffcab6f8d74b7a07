// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"context"
	"sync"

	"github.com/danielhkuo/stackit/models"
)

// VotePublisher announces recorded votes to downstream consumers.
type VotePublisher interface {
	Publish(ctx context.Context, event models.VoteEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.VoteEvent) error { return nil }
func (NopPublisher) Close() error                                     { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []models.VoteEvent
}

func (m *MemoryPublisher) Publish(_ context.Context, event models.VoteEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []models.VoteEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.VoteEvent(nil), m.events...)
}
