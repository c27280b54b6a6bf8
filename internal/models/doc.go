// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package models defines the data structures shared across Leadflow.

Model groups:

 1. Ingestion:
    - IngestRequest: the wire shape of POST /api/v1/analytics/ingest
    - AnalyticsEvent: the immutable stored event
    - IngestResult, BatchItemResult: ingestion outcomes

 2. Identity:
    - Lead: the durable identity aggregate
    - LeadTimelineEvent: append-only per-lead history
    - UTM: first-touch acquisition attribution

 3. Reporting:
    - BookingFunnelReport: ordered distinct-lead step counts and conversions
    - InteractiveFunnelReport: per-quiz and per-navigator breakdowns

 4. API envelope:
    - APIResponse, APIError, Metadata

Optional identifiers (session_id, anonymous_id, user_id, lead_id) are plain
strings in Go; the empty string means absent and is stored as NULL.
*/
package models
