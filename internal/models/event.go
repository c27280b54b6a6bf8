// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package models

import (
	"time"

	"github.com/tomtom215/leadflow/internal/payload"
)

// Page is low-cardinality page context attached to an event.
type Page struct {
	PagePath  string `json:"page_path,omitempty" validate:"omitempty,max=2048"`
	PageTitle string `json:"page_title,omitempty" validate:"omitempty,max=512"`
	Referrer  string `json:"referrer,omitempty" validate:"omitempty,max=2048"`
}

// Acquisition carries the entry point and UTM parameters of the visit.
type Acquisition struct {
	EntryPoint  string `json:"entry_point,omitempty" validate:"omitempty,max=128"`
	UTMSource   string `json:"utm_source,omitempty" validate:"omitempty,max=256"`
	UTMMedium   string `json:"utm_medium,omitempty" validate:"omitempty,max=256"`
	UTMCampaign string `json:"utm_campaign,omitempty" validate:"omitempty,max=256"`
	UTMContent  string `json:"utm_content,omitempty" validate:"omitempty,max=256"`
	UTMTerm     string `json:"utm_term,omitempty" validate:"omitempty,max=256"`
}

// IngestRequest is the body of POST /api/v1/analytics/ingest.
//
// Shape rules live in the validate tags and are checked with
// go-playground/validator. Taxonomy membership and privacy rules are
// checked separately by the privacy package because they need the full
// violation list rather than the first failing tag.
type IngestRequest struct {
	SchemaVersion string        `json:"schema_version" validate:"required,max=16"`
	EventName     string        `json:"event_name" validate:"required,max=64"`
	EventVersion  int           `json:"event_version" validate:"required,min=1"`
	EventID       string        `json:"event_id" validate:"required,max=128"`
	OccurredAt    string        `json:"occurred_at" validate:"required,max=64"`
	Source        string        `json:"source" validate:"required,max=32"`
	Environment   string        `json:"environment" validate:"required,max=32"`
	SessionID     string        `json:"session_id,omitempty" validate:"omitempty,max=128"`
	AnonymousID   string        `json:"anonymous_id,omitempty" validate:"omitempty,max=128"`
	UserID        string        `json:"user_id,omitempty" validate:"omitempty,max=128"`
	LeadID        string        `json:"lead_id,omitempty" validate:"omitempty,max=128"`
	Page          *Page         `json:"page,omitempty"`
	Acquisition   *Acquisition  `json:"acquisition,omitempty"`
	Properties    payload.Value `json:"properties"`
}

// AnalyticsEvent is an event as stored. It is never updated after insert.
type AnalyticsEvent struct {
	EventID       string        `json:"event_id"`
	SchemaVersion string        `json:"schema_version"`
	EventName     string        `json:"event_name"`
	EventVersion  int           `json:"event_version"`
	OccurredAt    time.Time     `json:"occurred_at"`
	ReceivedAt    time.Time     `json:"received_at"`
	Source        string        `json:"source"`
	Environment   string        `json:"environment"`
	SessionID     string        `json:"session_id,omitempty"`
	AnonymousID   string        `json:"anonymous_id,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	LeadID        string        `json:"lead_id,omitempty"`
	Page          *Page         `json:"page,omitempty"`
	Acquisition   *Acquisition  `json:"acquisition,omitempty"`
	Properties    payload.Value `json:"properties"`
}

// IngestStatus is the outcome of a successful ingest call.
type IngestStatus string

// Ingest statuses. Ignored only ever means "duplicate event_id".
const (
	IngestStatusOK      IngestStatus = "ok"
	IngestStatusIgnored IngestStatus = "ignored"
)

// IngestResult is returned for both ok and ignored outcomes. LeadID is null
// when no lead was resolved or the event was a duplicate.
type IngestResult struct {
	Status IngestStatus `json:"status"`
	LeadID *string      `json:"lead_id"`
}

// Batch item statuses in addition to ok and ignored.
const (
	BatchStatusRejected = "rejected"
	BatchStatusError    = "error"
)

// BatchItemResult is the outcome of one item of a batch ingest.
type BatchItemResult struct {
	Index      int       `json:"index"`
	Status     string    `json:"status"`
	LeadID     *string   `json:"lead_id"`
	Error      *APIError `json:"error,omitempty"`
	Violations []string  `json:"violations,omitempty"`
}

// EventIngested is published after an ingest transaction commits.
type EventIngested struct {
	EventID    string    `json:"event_id"`
	EventName  string    `json:"event_name"`
	LeadID     string    `json:"lead_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	ReceivedAt time.Time `json:"received_at"`
}
