// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package models

import (
	"time"

	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// UTM is normalized first-touch attribution. Values are trimmed and
// lower-cased; empty means absent.
type UTM struct {
	Source     string `json:"utm_source,omitempty"`
	Medium     string `json:"utm_medium,omitempty"`
	Campaign   string `json:"utm_campaign,omitempty"`
	Content    string `json:"utm_content,omitempty"`
	Term       string `json:"utm_term,omitempty"`
	EntryPoint string `json:"entry_point,omitempty"`
}

// IsZero reports whether no attribution is present.
func (u UTM) IsZero() bool {
	return u == UTM{}
}

// Lead is the durable identity aggregate for one prospective client.
//
// A Lead is reachable through its own ID and through every LeadIdentity
// bound to it. Status only moves forward in rank; TopicCode and UTM are
// filled once and never overwritten.
type Lead struct {
	ID        string              `json:"id"`
	Status    taxonomy.LeadStatus `json:"status"`
	Source    taxonomy.LeadSource `json:"source"`
	TopicCode string              `json:"topic_code,omitempty"`
	UTM       UTM                 `json:"utm"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// IdentityKind names a correlation key type.
type IdentityKind string

// Identity kinds that resolve to a Lead besides its own ID.
const (
	IdentityAnonymous IdentityKind = "anonymous_id"
	IdentityUser      IdentityKind = "user_id"
)

// LeadIdentity binds one identifier value to a Lead. Bindings are
// insert-only: an identifier never moves to a different Lead.
type LeadIdentity struct {
	Kind      IdentityKind `json:"kind"`
	Value     string       `json:"value"`
	LeadID    string       `json:"lead_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// LeadTimelineEvent is one append-only entry of a Lead's history, written in
// the same transaction as the AnalyticsEvent that caused it.
type LeadTimelineEvent struct {
	ID         string        `json:"id"`
	LeadID     string        `json:"lead_id"`
	EventID    string        `json:"event_id"`
	EventName  string        `json:"event_name"`
	Source     string        `json:"source"`
	Properties payload.Value `json:"properties"`
	DeepLinkID string        `json:"deep_link_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
	CreatedAt  time.Time     `json:"created_at"`
}

// LeadDetail is a Lead with every identifier bound to it.
type LeadDetail struct {
	Lead
	Identities []LeadIdentity `json:"identities"`
}
