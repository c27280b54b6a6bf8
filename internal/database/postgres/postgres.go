// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package postgres implements store.Store on PostgreSQL through a pgx
// connection pool. It is selected with DATABASE_DRIVER=postgres and shares
// its semantics with the DuckDB store: primary keys enforce uniqueness and
// SQLSTATE codes are translated to store sentinels.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/store"
)

const initSQL = `
CREATE TABLE IF NOT EXISTS analytics_events (
	event_id       TEXT PRIMARY KEY,
	schema_version TEXT NOT NULL,
	event_name     TEXT NOT NULL,
	event_version  INTEGER NOT NULL,
	occurred_at    TIMESTAMPTZ NOT NULL,
	received_at    TIMESTAMPTZ NOT NULL,
	source         TEXT NOT NULL,
	environment    TEXT NOT NULL,
	session_id     TEXT,
	anonymous_id   TEXT,
	user_id        TEXT,
	lead_id        TEXT,
	page_path      TEXT,
	page_title     TEXT,
	referrer       TEXT,
	entry_point    TEXT,
	utm_source     TEXT,
	utm_medium     TEXT,
	utm_campaign   TEXT,
	utm_content    TEXT,
	utm_term       TEXT,
	properties     JSONB
);
CREATE INDEX IF NOT EXISTS idx_events_name_occurred ON analytics_events (event_name, occurred_at);
CREATE INDEX IF NOT EXISTS idx_events_name_received ON analytics_events (event_name, received_at);

CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	source       TEXT NOT NULL,
	topic_code   TEXT,
	utm_source   TEXT,
	utm_medium   TEXT,
	utm_campaign TEXT,
	utm_content  TEXT,
	utm_term     TEXT,
	entry_point  TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS lead_identities (
	kind       TEXT NOT NULL,
	value      TEXT NOT NULL,
	lead_id    TEXT NOT NULL REFERENCES leads (id),
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (kind, value)
);
CREATE INDEX IF NOT EXISTS idx_identities_lead ON lead_identities (lead_id);

CREATE TABLE IF NOT EXISTS lead_timeline_events (
	id           TEXT PRIMARY KEY,
	lead_id      TEXT NOT NULL REFERENCES leads (id),
	event_id     TEXT NOT NULL,
	event_name   TEXT NOT NULL,
	source       TEXT NOT NULL,
	properties   JSONB,
	deep_link_id TEXT,
	occurred_at  TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_timeline_lead ON lead_timeline_events (lead_id);
`

const connectAttempts = 5

var _ store.Store = (*Store)(nil)

// Store is the PostgreSQL event store.
type Store struct {
	pool *pgxpool.Pool
}

// New establishes a pool, pings it and runs the schema SQL.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgxpool config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				break
			}
			pool.Close()
		}
		logging.Warn().Err(err).Int("attempt", attempt).Msg("Failed to connect to postgres")
		if attempt == connectAttempts {
			return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", connectAttempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := pool.Exec(initCtx, initSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run init sql: %w", err)
	}

	logging.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Msg("PostgreSQL event store ready")

	return &Store{pool: pool}, nil
}

// Ping checks if the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// WithTx runs fn in a READ COMMITTED transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	pgTx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logging.Warn().Err(rbErr).Msg("Failed to roll back transaction")
		}
	}()

	if err := fn(&pgTxAdapter{q: pgTx}); err != nil {
		return err
	}
	if err := pgTx.Commit(ctx); err != nil {
		return classifyError("commit", err)
	}
	return nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// SQLSTATE codes the store translates.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return true
	}
	return false
}

func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isRetryable(err) {
		return fmt.Errorf("%s: %w: %v", op, store.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
