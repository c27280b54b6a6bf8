// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package identity stitches analytics events to durable Leads.
//
// Resolution runs inside the ingest transaction. It never takes
// application locks: uniqueness of lead ids and (kind, value) identity
// bindings is enforced by the store, and a lost race surfaces as
// store.ErrConflict so the caller can re-run the whole transaction.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// Property keys read from the event payload.
const (
	TopicCodeKey  = "topic_code"
	DeepLinkIDKey = "deep_link_id"
)

// Request is everything the resolver needs from one event.
type Request struct {
	LeadID      string
	AnonymousID string
	UserID      string

	EventID     string
	EventName   string
	EventSource string
	TopicCode   string
	UTM         models.UTM

	// Timeline payload
	Properties payload.Value
	DeepLinkID string
	OccurredAt time.Time
}

// RequestFromEvent builds a Request from a validated event.
func RequestFromEvent(e *models.AnalyticsEvent) Request {
	return Request{
		LeadID:      e.LeadID,
		AnonymousID: e.AnonymousID,
		UserID:      e.UserID,
		EventID:     e.EventID,
		EventName:   e.EventName,
		EventSource: e.Source,
		TopicCode:   strings.TrimSpace(e.Properties.StringField(TopicCodeKey)),
		UTM:         NormalizeUTM(e.Acquisition),
		Properties:  e.Properties,
		DeepLinkID:  strings.TrimSpace(e.Properties.StringField(DeepLinkIDKey)),
		OccurredAt:  e.OccurredAt,
	}
}

// Qualifies reports whether an event resolves identity at all: it either
// names a lead explicitly or is contact-producing.
func Qualifies(leadID, eventName string) bool {
	return strings.TrimSpace(leadID) != "" || taxonomy.IsContactProducing(eventName)
}

// NormalizeUTM trims and lower-cases acquisition values.
func NormalizeUTM(a *models.Acquisition) models.UTM {
	if a == nil {
		return models.UTM{}
	}
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return models.UTM{
		Source:     norm(a.UTMSource),
		Medium:     norm(a.UTMMedium),
		Campaign:   norm(a.UTMCampaign),
		Content:    norm(a.UTMContent),
		Term:       norm(a.UTMTerm),
		EntryPoint: norm(a.EntryPoint),
	}
}

// Resolver finds or creates the Lead for an event.
type Resolver struct {
	now   func() time.Time
	newID func() string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithIDGenerator overrides lead and timeline id generation.
func WithIDGenerator(newID func() string) Option {
	return func(r *Resolver) { r.newID = newID }
}

// NewResolver creates a Resolver using uuid v4 ids and the wall clock.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the id of the Lead the event belongs to, creating,
// linking and updating as needed, and appends one timeline entry.
//
// Order, first match wins: explicit lead id, anonymous_id binding,
// user_id binding, new Lead.
func (r *Resolver) Resolve(ctx context.Context, tx store.LeadTx, req Request) (string, error) {
	now := r.now().UTC()
	bound := make(map[models.IdentityKind]string, 2)
	created := false

	var lead *models.Lead
	if id := strings.TrimSpace(req.LeadID); id != "" {
		existing, err := tx.GetLead(ctx, id)
		switch {
		case err == nil:
			lead = existing
		case errors.Is(err, store.ErrNotFound):
			lead = r.newLead(id, req, now)
			if err := tx.CreateLead(ctx, lead); err != nil {
				return "", fmt.Errorf("create lead %s: %w", id, err)
			}
			created = true
		default:
			return "", fmt.Errorf("get lead: %w", err)
		}
	}

	for _, ident := range identities(req) {
		found, err := tx.FindLeadByIdentity(ctx, ident.Kind, ident.Value)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("find lead by %s: %w", ident.Kind, err)
		}
		bound[ident.Kind] = found.ID
		if lead == nil {
			lead = found
		}
	}

	if lead == nil {
		lead = r.newLead(r.newID(), req, now)
		if err := tx.CreateLead(ctx, lead); err != nil {
			return "", fmt.Errorf("create lead: %w", err)
		}
		created = true
	}

	for _, ident := range identities(req) {
		owner, ok := bound[ident.Kind]
		if ok {
			if owner != lead.ID {
				logging.Debug().
					Str("kind", string(ident.Kind)).
					Str("lead_id", logging.SanitizeID(lead.ID)).
					Str("bound_lead_id", logging.SanitizeID(owner)).
					Msg("Identifier already bound to another lead, keeping binding")
			}
			continue
		}
		if err := tx.LinkIdentity(ctx, &models.LeadIdentity{
			Kind:      ident.Kind,
			Value:     ident.Value,
			LeadID:    lead.ID,
			CreatedAt: now,
		}); err != nil {
			return "", fmt.Errorf("link %s: %w", ident.Kind, err)
		}
	}

	if !created && applyEvent(lead, req) {
		lead.UpdatedAt = now
		if err := tx.UpdateLead(ctx, lead); err != nil {
			return "", fmt.Errorf("update lead: %w", err)
		}
	}

	if err := tx.AppendTimeline(ctx, &models.LeadTimelineEvent{
		ID:         r.newID(),
		LeadID:     lead.ID,
		EventID:    req.EventID,
		EventName:  req.EventName,
		Source:     req.EventSource,
		Properties: req.Properties,
		DeepLinkID: req.DeepLinkID,
		OccurredAt: req.OccurredAt.UTC(),
		CreatedAt:  now,
	}); err != nil {
		return "", fmt.Errorf("append timeline: %w", err)
	}

	return lead.ID, nil
}

// Lookup returns the Lead already bound to the event's anonymous_id or,
// failing that, its user_id. It never writes: no Lead is created, no
// identity is linked and no timeline entry is appended. An event with no
// bound identifier yields "".
func (r *Resolver) Lookup(ctx context.Context, tx store.LeadTx, req Request) (string, error) {
	for _, ident := range identities(req) {
		found, err := tx.FindLeadByIdentity(ctx, ident.Kind, ident.Value)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("find lead by %s: %w", ident.Kind, err)
		}
		return found.ID, nil
	}
	return "", nil
}

func (r *Resolver) newLead(id string, req Request, now time.Time) *models.Lead {
	return &models.Lead{
		ID:        id,
		Status:    taxonomy.StatusForEvent(req.EventName),
		Source:    taxonomy.InferLeadSource(req.EventName, req.EventSource),
		TopicCode: req.TopicCode,
		UTM:       req.UTM,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// applyEvent folds an event into an existing lead and reports whether
// anything changed. Status only advances; topic and first-touch UTM are
// filled once.
func applyEvent(lead *models.Lead, req Request) bool {
	changed := false

	if next := taxonomy.AdvanceStatus(lead.Status, taxonomy.StatusForEvent(req.EventName)); next != lead.Status {
		lead.Status = next
		changed = true
	}
	if lead.TopicCode == "" && req.TopicCode != "" {
		lead.TopicCode = req.TopicCode
		changed = true
	}
	if lead.UTM.IsZero() && !req.UTM.IsZero() {
		lead.UTM = req.UTM
		changed = true
	}
	return changed
}

func identities(req Request) []models.LeadIdentity {
	var out []models.LeadIdentity
	if v := strings.TrimSpace(req.AnonymousID); v != "" {
		out = append(out, models.LeadIdentity{Kind: models.IdentityAnonymous, Value: v})
	}
	if v := strings.TrimSpace(req.UserID); v != "" {
		out = append(out, models.LeadIdentity{Kind: models.IdentityUser, Value: v})
	}
	return out
}
