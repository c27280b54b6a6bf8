// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package store declares the persistence contracts the ingestion pipeline,
// the identity resolver and the funnel engine depend on.
//
// Two implementations exist: internal/database (DuckDB, the default) and
// internal/database/postgres (PostgreSQL via pgx). Both enforce uniqueness
// in the storage layer and translate driver errors into the sentinel errors
// below, so callers never inspect driver-specific messages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/leadflow/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateEvent is returned by InsertEvent when the event_id already
	// exists. The ingest transaction treats it as "ignored".
	ErrDuplicateEvent = errors.New("store: duplicate event_id")

	// ErrConflict is returned when a write lost a race: a unique key on a
	// lead or identity was taken by a concurrent transaction, or the
	// database aborted the transaction on a write-write conflict. The
	// whole transaction may be retried.
	ErrConflict = errors.New("store: write conflict")
)

// Time bases for EventQuery.
const (
	TimeBasisOccurred = "occurred_at"
	TimeBasisReceived = "received_at"
)

// EventQuery selects events for reporting. The range is half-open [From, To).
type EventQuery struct {
	Names     []string
	From      time.Time
	To        time.Time
	TimeBasis string // TimeBasisOccurred when empty
}

// LeadTx is the lead side of an ingest transaction.
type LeadTx interface {
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	FindLeadByIdentity(ctx context.Context, kind models.IdentityKind, value string) (*models.Lead, error)
	CreateLead(ctx context.Context, lead *models.Lead) error
	UpdateLead(ctx context.Context, lead *models.Lead) error
	// LinkIdentity inserts a binding. A binding that already exists, for
	// any lead, yields ErrConflict.
	LinkIdentity(ctx context.Context, identity *models.LeadIdentity) error
	AppendTimeline(ctx context.Context, entry *models.LeadTimelineEvent) error
}

// Tx is everything one ingest transaction may touch.
type Tx interface {
	LeadTx
	EventExists(ctx context.Context, eventID string) (bool, error)
	InsertEvent(ctx context.Context, event *models.AnalyticsEvent) error
}

// EventReader serves the funnel engine.
type EventReader interface {
	ListEvents(ctx context.Context, q EventQuery) ([]models.AnalyticsEvent, error)
}

// LeadReader serves the lead endpoints.
type LeadReader interface {
	GetLead(ctx context.Context, id string) (*models.Lead, error)
	ListIdentities(ctx context.Context, leadID string) ([]models.LeadIdentity, error)
	ListTimeline(ctx context.Context, leadID string) ([]models.LeadTimelineEvent, error)
}

// Store is a complete event store.
type Store interface {
	EventReader
	LeadReader

	// EventExists is the non-transactional idempotency pre-check.
	EventExists(ctx context.Context, eventID string) (bool, error)

	// CountEvents returns how many rows carry eventID. Used by health
	// tooling and tests; always 0 or 1.
	CountEvents(ctx context.Context, eventID string) (int, error)

	// WithTx runs fn in a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise. Commit failures caused by
	// concurrent writers are reported as ErrConflict.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Ping(ctx context.Context) error
	Close() error
}

// NormalizeTimeBasis returns a column-safe time basis.
func NormalizeTimeBasis(basis string) string {
	if basis == TimeBasisReceived {
		return TimeBasisReceived
	}
	return TimeBasisOccurred
}
