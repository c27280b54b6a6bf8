// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package funnel computes the read-side reports over the event log.

# Reports

Booking funnel: distinct leads that produced each of booking_start,
booking_slot_selected, booking_paid and booking_confirmed inside a range,
optionally filtered by the service_slug property, with the conversion rate
between consecutive steps. Every step and every conversion is always present.
A zero denominator yields a rate of exactly 0.

Interactive funnel: per quiz_slug, distinct run_id starts and completes,
distinct runs per question_index and abandonment counts per
abandoned_at_question. Per navigator_slug, starts, completes and per
step_index totals with a per-choice_id distribution.

# Design

BookingSteps and Interactive are pure functions over []models.AnalyticsEvent.
Engine loads the relevant events for a Range from a store.EventReader,
feeds them to those functions and caches the result. Nothing is
precomputed, so any historical range can be replayed.

Ranges are half-open [From, To) and filter on occurred_at unless the engine
is built WithTimeBasis(store.TimeBasisReceived).
*/
package funnel
