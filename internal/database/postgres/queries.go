// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

const eventColumns = `event_id, schema_version, event_name, event_version, occurred_at, received_at,
	source, environment, session_id, anonymous_id, user_id, lead_id,
	page_path, page_title, referrer,
	entry_point, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
	properties::text`

const leadColumns = `l.id, l.status, l.source, l.topic_code,
	l.utm_source, l.utm_medium, l.utm_campaign, l.utm_content, l.utm_term, l.entry_point,
	l.created_at, l.updated_at`

// pgTxAdapter implements store.Tx on a pgx.Tx.
type pgTxAdapter struct {
	q pgx.Tx
}

var _ store.Tx = (*pgTxAdapter)(nil)

func (t *pgTxAdapter) EventExists(ctx context.Context, eventID string) (bool, error) {
	n, err := countEvents(ctx, t.q, eventID)
	return n > 0, err
}

func (t *pgTxAdapter) InsertEvent(ctx context.Context, e *models.AnalyticsEvent) error {
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

	_, err = t.q.Exec(ctx, `INSERT INTO analytics_events (event_id, schema_version, event_name, event_version,
		occurred_at, received_at, source, environment, session_id, anonymous_id, user_id, lead_id,
		page_path, page_title, referrer, entry_point, utm_source, utm_medium, utm_campaign, utm_content, utm_term,
		properties)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22::text::jsonb)`,
		e.EventID, e.SchemaVersion, e.EventName, e.EventVersion, e.OccurredAt.UTC(), e.ReceivedAt.UTC(),
		e.Source, e.Environment, nullable(e.SessionID), nullable(e.AnonymousID), nullable(e.UserID), nullable(e.LeadID),
		nullable(page.PagePath), nullable(page.PageTitle), nullable(page.Referrer),
		nullable(acq.EntryPoint), nullable(acq.UTMSource), nullable(acq.UTMMedium),
		nullable(acq.UTMCampaign), nullable(acq.UTMContent), nullable(acq.UTMTerm),
		props,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", store.ErrDuplicateEvent, e.EventID)
		}
		return classifyError("insert event", err)
	}
	return nil
}

func (t *pgTxAdapter) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return getLead(ctx, t.q, id)
}

func (t *pgTxAdapter) FindLeadByIdentity(ctx context.Context, kind models.IdentityKind, value string) (*models.Lead, error) {
	row := t.q.QueryRow(ctx, "SELECT "+leadColumns+` FROM lead_identities i
		JOIN leads l ON l.id = i.lead_id
		WHERE i.kind = $1 AND i.value = $2`, string(kind), value)
	return scanLead(row)
}

func (t *pgTxAdapter) CreateLead(ctx context.Context, lead *models.Lead) error {
	_, err := t.q.Exec(ctx, `INSERT INTO leads (id, status, source, topic_code,
		utm_source, utm_medium, utm_campaign, utm_content, utm_term, entry_point, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		lead.ID, string(lead.Status), string(lead.Source), nullable(lead.TopicCode),
		nullable(lead.UTM.Source), nullable(lead.UTM.Medium), nullable(lead.UTM.Campaign),
		nullable(lead.UTM.Content), nullable(lead.UTM.Term), nullable(lead.UTM.EntryPoint),
		lead.CreatedAt.UTC(), lead.UpdatedAt.UTC(),
	)
	return classifyError("insert lead", err)
}

func (t *pgTxAdapter) UpdateLead(ctx context.Context, lead *models.Lead) error {
	tag, err := t.q.Exec(ctx, `UPDATE leads SET status = $1, source = $2, topic_code = $3,
		utm_source = $4, utm_medium = $5, utm_campaign = $6, utm_content = $7, utm_term = $8, entry_point = $9,
		updated_at = $10
		WHERE id = $11`,
		string(lead.Status), string(lead.Source), nullable(lead.TopicCode),
		nullable(lead.UTM.Source), nullable(lead.UTM.Medium), nullable(lead.UTM.Campaign),
		nullable(lead.UTM.Content), nullable(lead.UTM.Term), nullable(lead.UTM.EntryPoint),
		lead.UpdatedAt.UTC(), lead.ID,
	)
	if err != nil {
		return classifyError("update lead", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTxAdapter) LinkIdentity(ctx context.Context, identity *models.LeadIdentity) error {
	_, err := t.q.Exec(ctx, `INSERT INTO lead_identities (kind, value, lead_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(identity.Kind), identity.Value, identity.LeadID, identity.CreatedAt.UTC(),
	)
	return classifyError("link identity", err)
}

func (t *pgTxAdapter) AppendTimeline(ctx context.Context, entry *models.LeadTimelineEvent) error {
	props, err := encodeProperties(entry.Properties)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `INSERT INTO lead_timeline_events (id, lead_id, event_id, event_name,
		source, properties, deep_link_id, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::text::jsonb, $7, $8, $9)`,
		entry.ID, entry.LeadID, entry.EventID, entry.EventName,
		entry.Source, props, nullable(entry.DeepLinkID), entry.OccurredAt.UTC(), entry.CreatedAt.UTC(),
	)
	return classifyError("append timeline", err)
}

// EventExists reports whether an event with eventID is stored.
func (s *Store) EventExists(ctx context.Context, eventID string) (bool, error) {
	n, err := s.CountEvents(ctx, eventID)
	return n > 0, err
}

// CountEvents returns how many rows carry eventID.
func (s *Store) CountEvents(ctx context.Context, eventID string) (int, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return countEvents(ctx, s.pool, eventID)
}

// ListEvents returns matching events in [q.From, q.To), oldest first.
func (s *Store) ListEvents(ctx context.Context, q store.EventQuery) ([]models.AnalyticsEvent, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	column := store.NormalizeTimeBasis(q.TimeBasis)
	var sb strings.Builder
	sb.WriteString("SELECT " + eventColumns + " FROM analytics_events WHERE ")
	sb.WriteString(column + " >= $1 AND " + column + " < $2")
	args := []any{q.From.UTC(), q.To.UTC()}
	if len(q.Names) > 0 {
		sb.WriteString(" AND event_name = ANY($3)")
		args = append(args, q.Names)
	}
	sb.WriteString(" ORDER BY " + column + ", event_id")

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

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

// GetLead returns a lead by ID.
func (s *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	return getLead(ctx, s.pool, id)
}

// ListIdentities returns every identifier bound to a lead.
func (s *Store) ListIdentities(ctx context.Context, leadID string) ([]models.LeadIdentity, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT kind, value, lead_id, created_at
		FROM lead_identities WHERE lead_id = $1 ORDER BY created_at, kind, value`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	defer rows.Close()

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
	return identities, rows.Err()
}

// ListTimeline returns a lead's timeline, oldest first.
func (s *Store) ListTimeline(ctx context.Context, leadID string) ([]models.LeadTimelineEvent, error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, lead_id, event_id, event_name, source,
		properties::text, deep_link_id, occurred_at, created_at
		FROM lead_timeline_events WHERE lead_id = $1
		ORDER BY occurred_at, created_at, id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	var entries []models.LeadTimelineEvent
	for rows.Next() {
		var (
			entry             models.LeadTimelineEvent
			props, deepLinkID *string
		)
		if err := rows.Scan(&entry.ID, &entry.LeadID, &entry.EventID, &entry.EventName, &entry.Source,
			&props, &deepLinkID, &entry.OccurredAt, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		if entry.Properties, err = decodeProperties(props); err != nil {
			return nil, err
		}
		entry.DeepLinkID = deref(deepLinkID)
		entry.OccurredAt = entry.OccurredAt.UTC()
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func countEvents(ctx context.Context, q querier, eventID string) (int, error) {
	var n int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM analytics_events WHERE event_id = $1", eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return int(n), nil
}

func getLead(ctx context.Context, q querier, id string) (*models.Lead, error) {
	return scanLead(q.QueryRow(ctx, "SELECT "+leadColumns+" FROM leads l WHERE l.id = $1", id))
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	var (
		lead                                  models.Lead
		status, source                        string
		topic, utmSource, utmMedium           *string
		utmCampaign, utmContent, utmTerm, ent *string
	)
	err := row.Scan(&lead.ID, &status, &source, &topic,
		&utmSource, &utmMedium, &utmCampaign, &utmContent, &utmTerm, &ent,
		&lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}
	lead.Status = taxonomy.LeadStatus(status)
	lead.Source = taxonomy.LeadSource(source)
	lead.TopicCode = deref(topic)
	lead.UTM = models.UTM{
		Source:     deref(utmSource),
		Medium:     deref(utmMedium),
		Campaign:   deref(utmCampaign),
		Content:    deref(utmContent),
		Term:       deref(utmTerm),
		EntryPoint: deref(ent),
	}
	lead.CreatedAt = lead.CreatedAt.UTC()
	lead.UpdatedAt = lead.UpdatedAt.UTC()
	return &lead, nil
}

func scanEvent(row pgx.Row) (*models.AnalyticsEvent, error) {
	var (
		e                                             models.AnalyticsEvent
		occurred, received                            time.Time
		sessionID, anonymousID, userID, leadID        *string
		pagePath, pageTitle, referrer, entryPoint     *string
		utmSource, utmMedium, utmCampaign, utmContent *string
		utmTerm, props                                *string
	)
	err := row.Scan(
		&e.EventID, &e.SchemaVersion, &e.EventName, &e.EventVersion, &occurred, &received,
		&e.Source, &e.Environment, &sessionID, &anonymousID, &userID, &leadID,
		&pagePath, &pageTitle, &referrer,
		&entryPoint, &utmSource, &utmMedium, &utmCampaign, &utmContent, &utmTerm,
		&props,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	e.OccurredAt = occurred.UTC()
	e.ReceivedAt = received.UTC()
	e.SessionID = deref(sessionID)
	e.AnonymousID = deref(anonymousID)
	e.UserID = deref(userID)
	e.LeadID = deref(leadID)

	page := models.Page{PagePath: deref(pagePath), PageTitle: deref(pageTitle), Referrer: deref(referrer)}
	if page != (models.Page{}) {
		e.Page = &page
	}
	acq := models.Acquisition{
		EntryPoint:  deref(entryPoint),
		UTMSource:   deref(utmSource),
		UTMMedium:   deref(utmMedium),
		UTMCampaign: deref(utmCampaign),
		UTMContent:  deref(utmContent),
		UTMTerm:     deref(utmTerm),
	}
	if acq != (models.Acquisition{}) {
		e.Acquisition = &acq
	}
	if e.Properties, err = decodeProperties(props); err != nil {
		return nil, fmt.Errorf("event %s: %w", e.EventID, err)
	}
	return &e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func encodeProperties(v payload.Value) (*string, error) {
	if v.IsNull() {
		return nil, nil
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	s := string(data)
	return &s, nil
}

func decodeProperties(s *string) (payload.Value, error) {
	if s == nil || *s == "" {
		return payload.NullValue(), nil
	}
	v, err := payload.Parse([]byte(*s))
	if err != nil {
		return payload.NullValue(), fmt.Errorf("failed to decode properties: %w", err)
	}
	return v, nil
}
