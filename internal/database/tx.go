// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/store"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a single DuckDB transaction.
func (db *DB) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	sqlTx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Warn().Err(rbErr).Msg("Failed to roll back transaction")
		}
	}()

	if err := fn(&duckTx{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return classifyError("commit", err)
	}
	committed = true
	return nil
}

// duckTx implements store.Tx on a *sql.Tx.
type duckTx struct {
	q *sql.Tx
}

var _ store.Tx = (*duckTx)(nil)

func (t *duckTx) EventExists(ctx context.Context, eventID string) (bool, error) {
	n, err := countEvents(ctx, t.q, eventID)
	return n > 0, err
}

func (t *duckTx) InsertEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	return insertEvent(ctx, t.q, event)
}

func (t *duckTx) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return getLead(ctx, t.q, id)
}

func (t *duckTx) FindLeadByIdentity(ctx context.Context, kind models.IdentityKind, value string) (*models.Lead, error) {
	return findLeadByIdentity(ctx, t.q, kind, value)
}

func (t *duckTx) CreateLead(ctx context.Context, lead *models.Lead) error {
	return createLead(ctx, t.q, lead)
}

func (t *duckTx) UpdateLead(ctx context.Context, lead *models.Lead) error {
	return updateLead(ctx, t.q, lead)
}

func (t *duckTx) LinkIdentity(ctx context.Context, identity *models.LeadIdentity) error {
	return linkIdentity(ctx, t.q, identity)
}

func (t *duckTx) AppendTimeline(ctx context.Context, entry *models.LeadTimelineEvent) error {
	return appendTimeline(ctx, t.q, entry)
}
