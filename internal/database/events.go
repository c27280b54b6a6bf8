// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/store"
)

const eventColumns = `event_id, schema_version, event_name, event_version, occurred_at, received_at,
	source, environment, session_id, anonymous_id, user_id, lead_id,
	page_path, page_title, referrer,
	entry_point, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
	properties`

// EventExists reports whether an event with eventID is stored.
func (db *DB) EventExists(ctx context.Context, eventID string) (bool, error) {
	n, err := db.CountEvents(ctx, eventID)
	return n > 0, err
}

// CountEvents returns how many rows carry eventID.
func (db *DB) CountEvents(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return countEvents(ctx, db.conn, eventID)
}

// ListEvents returns events whose name is in q.Names (all names when empty)
// and whose time basis falls in [q.From, q.To), oldest first.
func (db *DB) ListEvents(ctx context.Context, q store.EventQuery) ([]models.AnalyticsEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	column := store.NormalizeTimeBasis(q.TimeBasis)

	var sb strings.Builder
	args := make([]any, 0, len(q.Names)+2)
	sb.WriteString("SELECT ")
	sb.WriteString(eventColumns)
	sb.WriteString(" FROM analytics_events WHERE ")
	sb.WriteString(column)
	sb.WriteString(" >= ? AND ")
	sb.WriteString(column)
	sb.WriteString(" < ?")
	args = append(args, q.From.UTC(), q.To.UTC())

	if len(q.Names) > 0 {
		sb.WriteString(" AND event_name IN (")
		for i, name := range q.Names {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("?")
			args = append(args, name)
		}
		sb.WriteString(")")
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(column)
	sb.WriteString(", event_id")

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var events []models.AnalyticsEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// GetEvent returns one stored event.
func (db *DB) GetEvent(ctx context.Context, eventID string) (*models.AnalyticsEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM analytics_events WHERE event_id = ?", eventID)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	return event, err
}

func countEvents(ctx context.Context, q querier, eventID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM analytics_events WHERE event_id = ?", eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

func insertEvent(ctx context.Context, q querier, e *models.AnalyticsEvent) error {
	props, err := encodeProperties(e.Properties)
	if err != nil {
		return err
	}

	var page models.Page
	if e.Page != nil {
		page = *e.Page
	}
	var acq models.Acquisition
	if e.Acquisition != nil {
		acq = *e.Acquisition
	}

	_, err = q.ExecContext(ctx, `INSERT INTO analytics_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.SchemaVersion, e.EventName, e.EventVersion, e.OccurredAt.UTC(), e.ReceivedAt.UTC(),
		e.Source, e.Environment, nullString(e.SessionID), nullString(e.AnonymousID), nullString(e.UserID), nullString(e.LeadID),
		nullString(page.PagePath), nullString(page.PageTitle), nullString(page.Referrer),
		nullString(acq.EntryPoint), nullString(acq.UTMSource), nullString(acq.UTMMedium),
		nullString(acq.UTMCampaign), nullString(acq.UTMContent), nullString(acq.UTMTerm),
		props,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", store.ErrDuplicateEvent, e.EventID)
		}
		return classifyError("insert event", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.AnalyticsEvent, error) {
	var (
		e                                                     models.AnalyticsEvent
		sessionID, anonymousID, userID, leadID                sql.NullString
		pagePath, pageTitle, referrer                         sql.NullString
		entryPoint, utmSource, utmMedium, utmCampaign, utmCon sql.NullString
		utmTerm, props                                        sql.NullString
	)
	err := row.Scan(
		&e.EventID, &e.SchemaVersion, &e.EventName, &e.EventVersion, &e.OccurredAt, &e.ReceivedAt,
		&e.Source, &e.Environment, &sessionID, &anonymousID, &userID, &leadID,
		&pagePath, &pageTitle, &referrer,
		&entryPoint, &utmSource, &utmMedium, &utmCampaign, &utmCon, &utmTerm,
		&props,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	e.OccurredAt = e.OccurredAt.UTC()
	e.ReceivedAt = e.ReceivedAt.UTC()
	e.SessionID = sessionID.String
	e.AnonymousID = anonymousID.String
	e.UserID = userID.String
	e.LeadID = leadID.String

	page := models.Page{PagePath: pagePath.String, PageTitle: pageTitle.String, Referrer: referrer.String}
	if page != (models.Page{}) {
		e.Page = &page
	}
	acq := models.Acquisition{
		EntryPoint:  entryPoint.String,
		UTMSource:   utmSource.String,
		UTMMedium:   utmMedium.String,
		UTMCampaign: utmCampaign.String,
		UTMContent:  utmCon.String,
		UTMTerm:     utmTerm.String,
	}
	if acq != (models.Acquisition{}) {
		e.Acquisition = &acq
	}

	if e.Properties, err = decodeProperties(props); err != nil {
		return nil, fmt.Errorf("event %s: %w", e.EventID, err)
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func encodeProperties(v payload.Value) (sql.NullString, error) {
	if v.IsNull() {
		return sql.NullString{}, nil
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode properties: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeProperties(s sql.NullString) (payload.Value, error) {
	if !s.Valid || s.String == "" {
		return payload.NullValue(), nil
	}
	v, err := payload.Parse([]byte(s.String))
	if err != nil {
		return payload.NullValue(), fmt.Errorf("failed to decode properties: %w", err)
	}
	return v, nil
}
