// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package ingest

import (
	"errors"
	"strings"
)

var (
	// ErrUnsupportedSchema is returned when schema_version is not the
	// configured version.
	ErrUnsupportedSchema = errors.New("unsupported schema_version")

	// ErrMissingEventID is returned when event_id is blank.
	ErrMissingEventID = errors.New("event_id is required")

	// ErrInvalidTimestamp is returned when occurred_at cannot be parsed or
	// lies too far in the future.
	ErrInvalidTimestamp = errors.New("invalid occurred_at")

	// ErrTooManyConflicts is returned when the ingest transaction kept
	// losing storage races after every retry.
	ErrTooManyConflicts = errors.New("too many storage conflicts")

	// ErrEmptyBatch is returned for a batch without items.
	ErrEmptyBatch = errors.New("batch is empty")

	// ErrBatchTooLarge is returned for a batch above the configured size.
	ErrBatchTooLarge = errors.New("batch too large")
)

// ValidationError carries every request-shape and payload violation of one
// event, rendered as field:path:kind strings.
type ValidationError struct {
	Violations []string
	// Kinds holds one entry per violation, for metrics.
	Kinds []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, ", ")
}

// IsClientError reports whether err was caused by the request rather than
// by the server.
func IsClientError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrUnsupportedSchema) ||
		errors.Is(err, ErrMissingEventID) ||
		errors.Is(err, ErrInvalidTimestamp) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrBatchTooLarge)
}
