// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package database

import (
	"context"
	"fmt"
)

// Timestamps are stored as TIMESTAMP in UTC. Nested structures (properties)
// are stored as JSON text.
//
// leads carries only its primary key: DuckDB re-checks every unique index on
// UPDATE, and lead rows are the one table updated in place.
var schemaStatements = []struct {
	name string
	sql  string
}{
	{"analytics_events", `CREATE TABLE IF NOT EXISTS analytics_events (
		event_id VARCHAR PRIMARY KEY,
		schema_version VARCHAR NOT NULL,
		event_name VARCHAR NOT NULL,
		event_version INTEGER NOT NULL,
		occurred_at TIMESTAMP NOT NULL,
		received_at TIMESTAMP NOT NULL,
		source VARCHAR NOT NULL,
		environment VARCHAR NOT NULL,
		session_id VARCHAR,
		anonymous_id VARCHAR,
		user_id VARCHAR,
		lead_id VARCHAR,
		page_path VARCHAR,
		page_title VARCHAR,
		referrer VARCHAR,
		entry_point VARCHAR,
		utm_source VARCHAR,
		utm_medium VARCHAR,
		utm_campaign VARCHAR,
		utm_content VARCHAR,
		utm_term VARCHAR,
		properties VARCHAR
	)`},
	{"leads", `CREATE TABLE IF NOT EXISTS leads (
		id VARCHAR PRIMARY KEY,
		status VARCHAR NOT NULL,
		source VARCHAR NOT NULL,
		topic_code VARCHAR,
		utm_source VARCHAR,
		utm_medium VARCHAR,
		utm_campaign VARCHAR,
		utm_content VARCHAR,
		utm_term VARCHAR,
		entry_point VARCHAR,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`},
	{"lead_identities", `CREATE TABLE IF NOT EXISTS lead_identities (
		kind VARCHAR NOT NULL,
		value VARCHAR NOT NULL,
		lead_id VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (kind, value)
	)`},
	{"lead_timeline_events", `CREATE TABLE IF NOT EXISTS lead_timeline_events (
		id VARCHAR PRIMARY KEY,
		lead_id VARCHAR NOT NULL,
		event_id VARCHAR NOT NULL,
		event_name VARCHAR NOT NULL,
		source VARCHAR NOT NULL,
		properties VARCHAR,
		deep_link_id VARCHAR,
		occurred_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`},
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_events_name_occurred ON analytics_events(event_name, occurred_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_name_received ON analytics_events(event_name, received_at)`,
	`CREATE INDEX IF NOT EXISTS idx_identities_lead ON lead_identities(lead_id)`,
	`CREATE INDEX IF NOT EXISTS idx_timeline_lead ON lead_timeline_events(lead_id)`,
}

func (db *DB) createTables(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create table %s: %w", stmt.name, err)
		}
	}
	return nil
}

func (db *DB) createIndexes(ctx context.Context) error {
	for _, stmt := range indexStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
