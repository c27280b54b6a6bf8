// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package database implements the DuckDB event store.

DB satisfies store.Store. It owns four tables:

  - analytics_events: immutable event rows keyed by event_id
  - leads: one row per lead, updated in place (status, topic, first-touch UTM)
  - lead_identities: insert-only (kind, value) -> lead_id bindings
  - lead_timeline_events: append-only per-lead history

Uniqueness is enforced by primary keys, never by read-then-write checks
alone. Constraint and write-write conflict errors raised by DuckDB are
translated to store.ErrDuplicateEvent and store.ErrConflict so the ingest
pipeline can decide between "ignored" and "retry" without looking at
driver messages.

Usage:

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	err = db.WithTx(ctx, func(tx store.Tx) error {
	    return tx.InsertEvent(ctx, event)
	})

Thread Safety:

DB is safe for concurrent use. Every method takes its own connection from
the database/sql pool.
*/
package database
