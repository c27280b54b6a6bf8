// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package logging provides the zerolog-based structured logging used across
// Leadflow.
//
// A single global logger is configured once at startup with Init and then
// used through package-level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("event_id", id).Msg("Event ingested")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Publish failed")
//
// Ctx adds the request and correlation identifiers stored on the context by
// the HTTP middleware, so every line written while handling an ingest request
// can be joined back to that request.
//
// Two adapters bridge zerolog into libraries that expect a different logger:
//
//   - SlogHandler implements slog.Handler for the suture supervisor hook.
//   - WatermillAdapter implements watermill.LoggerAdapter for the event bus.
//
// Identifiers such as anonymous_id and user_id are pseudonymous but still
// correlatable, so log call sites pass them through SanitizeID.
package logging
