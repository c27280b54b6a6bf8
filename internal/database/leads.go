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

	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

const leadColumns = `l.id, l.status, l.source, l.topic_code,
	l.utm_source, l.utm_medium, l.utm_campaign, l.utm_content, l.utm_term, l.entry_point,
	l.created_at, l.updated_at`

// GetLead returns a lead by ID.
func (db *DB) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return getLead(ctx, db.conn, id)
}

// ListIdentities returns every identifier bound to a lead.
func (db *DB) ListIdentities(ctx context.Context, leadID string) ([]models.LeadIdentity, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT kind, value, lead_id, created_at
		FROM lead_identities WHERE lead_id = ?
		ORDER BY created_at, kind, value`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var identities []models.LeadIdentity
	for rows.Next() {
		var (
			identity models.LeadIdentity
			kind     string
		)
		if err := rows.Scan(&kind, &identity.Value, &identity.LeadID, &identity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identity.Kind = models.IdentityKind(kind)
		identity.CreatedAt = identity.CreatedAt.UTC()
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identities: %w", err)
	}
	return identities, nil
}

// ListTimeline returns a lead's timeline, oldest first.
func (db *DB) ListTimeline(ctx context.Context, leadID string) ([]models.LeadTimelineEvent, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT id, lead_id, event_id, event_name, source,
		properties, deep_link_id, occurred_at, created_at
		FROM lead_timeline_events WHERE lead_id = ?
		ORDER BY occurred_at, created_at, id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var entries []models.LeadTimelineEvent
	for rows.Next() {
		var (
			entry             models.LeadTimelineEvent
			props, deepLinkID sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.EventID, &entry.EventName, &entry.Source,
			&props, &deepLinkID, &entry.OccurredAt, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		if entry.Properties, err = decodeProperties(props); err != nil {
			return nil, err
		}
		entry.DeepLinkID = deepLinkID.String
		entry.OccurredAt = entry.OccurredAt.UTC()
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating timeline: %w", err)
	}
	return entries, nil
}

func getLead(ctx context.Context, q querier, id string) (*models.Lead, error) {
	row := q.QueryRowContext(ctx, "SELECT "+leadColumns+" FROM leads l WHERE l.id = ?", id)
	return scanLead(row)
}

func findLeadByIdentity(ctx context.Context, q querier, kind models.IdentityKind, value string) (*models.Lead, error) {
	row := q.QueryRowContext(ctx, "SELECT "+leadColumns+` FROM lead_identities i
		JOIN leads l ON l.id = i.lead_id
		WHERE i.kind = ? AND i.value = ?`, string(kind), value)
	return scanLead(row)
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		lead           models.Lead
		status, source string
		topic          sql.NullString
		utmSource      sql.NullString
		utmMedium      sql.NullString
		utmCampaign    sql.NullString
		utmContent     sql.NullString
		utmTerm        sql.NullString
		entryPoint     sql.NullString
	)
	err := row.Scan(&lead.ID, &status, &source, &topic,
		&utmSource, &utmMedium, &utmCampaign, &utmContent, &utmTerm, &entryPoint,
		&lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	lead.Status = taxonomy.LeadStatus(status)
	lead.Source = taxonomy.LeadSource(source)
	lead.TopicCode = topic.String
	lead.UTM = models.UTM{
		Source:     utmSource.String,
		Medium:     utmMedium.String,
		Campaign:   utmCampaign.String,
		Content:    utmContent.String,
		Term:       utmTerm.String,
		EntryPoint: entryPoint.String,
	}
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return &lead, nil
}

func createLead(ctx context.Context, q querier, lead *models.Lead) error {
	_, err := q.ExecContext(ctx, `INSERT INTO leads (id, status, source, topic_code,
		utm_source, utm_medium, utm_campaign, utm_content, utm_term, entry_point,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, string(lead.Status), string(lead.Source), nullString(lead.TopicCode),
		nullString(lead.UTM.Source), nullString(lead.UTM.Medium), nullString(lead.UTM.Campaign),
		nullString(lead.UTM.Content), nullString(lead.UTM.Term), nullString(lead.UTM.EntryPoint),
		lead.CreatedAt.UTC(), lead.UpdatedAt.UTC(),
	)
	return classifyError("insert lead", err)
}

func updateLead(ctx context.Context, q querier, lead *models.Lead) error {
	res, err := q.ExecContext(ctx, `UPDATE leads SET status = ?, source = ?, topic_code = ?,
		utm_source = ?, utm_medium = ?, utm_campaign = ?, utm_content = ?, utm_term = ?, entry_point = ?,
		updated_at = ?
		WHERE id = ?`,
		string(lead.Status), string(lead.Source), nullString(lead.TopicCode),
		nullString(lead.UTM.Source), nullString(lead.UTM.Medium), nullString(lead.UTM.Campaign),
		nullString(lead.UTM.Content), nullString(lead.UTM.Term), nullString(lead.UTM.EntryPoint),
		lead.UpdatedAt.UTC(), lead.ID,
	)
	if err != nil {
		return classifyError("update lead", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func linkIdentity(ctx context.Context, q querier, identity *models.LeadIdentity) error {
	_, err := q.ExecContext(ctx, `INSERT INTO lead_identities (kind, value, lead_id, created_at)
		VALUES (?, ?, ?, ?)`,
		string(identity.Kind), identity.Value, identity.LeadID, identity.CreatedAt.UTC(),
	)
	return classifyError("link identity", err)
}

func appendTimeline(ctx context.Context, q querier, entry *models.LeadTimelineEvent) error {
	props, err := encodeProperties(entry.Properties)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `INSERT INTO lead_timeline_events (id, lead_id, event_id, event_name,
		source, properties, deep_link_id, occurred_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.LeadID, entry.EventID, entry.EventName,
		entry.Source, props, nullString(entry.DeepLinkID), entry.OccurredAt.UTC(), entry.CreatedAt.UTC(),
	)
	return classifyError("append timeline", err)
}
