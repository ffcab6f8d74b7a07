// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reconciler outcomes
const (
	OutcomeApplied    = "applied"
	OutcomeConfirmed  = "confirmed"
	OutcomeRolledBack = "rolled_back"
	OutcomeRejected   = "rejected"
)

// ServerMetrics tracks votes recorded by the API server.
type ServerMetrics struct {
	VotesRecorded *prometheus.CounterVec
	VotesRejected *prometheus.CounterVec
	VoteLatency   *prometheus.HistogramVec
}

// NewServerMetrics registers the server collectors on reg.
// Registering twice on the same registerer panics, so tests pass a fresh
// prometheus.NewRegistry().
func NewServerMetrics(reg prometheus.Registerer, namespace string) *ServerMetrics {
	factory := promauto.With(reg)
	return &ServerMetrics{
		VotesRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "votes_recorded_total",
				Help:      "Total number of votes recorded, by item kind and resulting direction",
			},
			[]string{"kind", "user_vote"},
		),
		VotesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "votes_rejected_total",
				Help:      "Total number of vote requests rejected, by item kind and reason",
			},
			[]string{"kind", "reason"},
		),
		VoteLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "server",
				Name:      "vote_duration_seconds",
				Help:      "Histogram of vote transaction durations",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"kind"},
		),
	}
}

// ReconcilerMetrics tracks optimistic vote reconciliation on the client.
type ReconcilerMetrics struct {
	Events *prometheus.CounterVec
}

func NewReconcilerMetrics(reg prometheus.Registerer, namespace string) *ReconcilerMetrics {
	return &ReconcilerMetrics{
		Events: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconciler",
				Name:      "events_total",
				Help:      "Optimistic vote events by outcome (applied, confirmed, rolled_back, rejected)",
			},
			[]string{"outcome"},
		),
	}
}

// Observe increments the counter for outcome. Safe on a nil receiver.
func (m *ReconcilerMetrics) Observe(outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(outcome).Inc()
}
