// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package database

import (
	"errors"
	"testing"

	"github.com/tomtom215/leadflow/internal/store"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantConflict bool
	}{
		{"nil", nil, false},
		{"duplicate key", errors.New(`Constraint Error: Duplicate key "kind: user_id, value: u" violates primary key constraint`), true},
		{"commit violation", errors.New("TransactionContext Error: Failed to commit: PRIMARY KEY or UNIQUE constraint violated: duplicate key"), true},
		{"write conflict", errors.New("TransactionContext Error: Catalog write-write conflict on alter"), true},
		{"update conflict", errors.New("Transaction conflict: cannot update a table that has been altered"), true},
		{"tuple conflict", errors.New("Conflict on update"), true},
		{"not null", errors.New(`Constraint Error: NOT NULL constraint failed: analytics_events.event_name`), false},
		{"check", errors.New(`Constraint Error: CHECK constraint failed: leads`), false},
		{"other", errors.New("IO Error: disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError("op", tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("classifyError(nil) = %v", got)
				}
				return
			}
			if errors.Is(got, store.ErrConflict) != tt.wantConflict {
				t.Errorf("classifyError(%q) conflict = %v, want %v", tt.err, !tt.wantConflict, tt.wantConflict)
			}
			if !tt.wantConflict && !errors.Is(got, tt.err) {
				t.Errorf("classifyError() lost the wrapped error: %v", got)
			}
		})
	}
}

func TestCloseHelpers(t *testing.T) {
	closeWithLog(nil, "nil")
	closeQuietly(nil)

	c := &countingCloser{err: errors.New("close failed")}
	closeWithLog(c, "test")
	closeQuietly(c)
	if c.calls != 2 {
		t.Errorf("Close called %d times, want 2", c.calls)
	}
}

type countingCloser struct {
	calls int
	err   error
}

func (c *countingCloser) Close() error {
	c.calls++
	return c.err
}
