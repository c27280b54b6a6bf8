// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMaxBodyBytes(t *testing.T) {
	tests := []struct {
		name      string
		limit     int64
		body      string
		wantLimit bool
	}{
		{"under limit", 16, "short", false},
		{"exactly at limit", 5, "12345", false},
		{"over limit", 4, "12345", true},
		{"disabled", 0, strings.Repeat("a", 4096), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readErr error
			var read string
			handler := MaxBodyBytes(tt.limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				read, readErr = string(data), err
			}))

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			handler.ServeHTTP(httptest.NewRecorder(), req)

			var maxErr *http.MaxBytesError
			if tt.wantLimit {
				if !errors.As(readErr, &maxErr) {
					t.Fatalf("Expected *http.MaxBytesError, got %v", readErr)
				}
				if maxErr.Limit != tt.limit {
					t.Errorf("Expected limit %d, got %d", tt.limit, maxErr.Limit)
				}
				return
			}
			if readErr != nil {
				t.Fatalf("Unexpected read error: %v", readErr)
			}
			if read != tt.body {
				t.Errorf("Expected body %q, got %q", tt.body, read)
			}
		})
	}
}
