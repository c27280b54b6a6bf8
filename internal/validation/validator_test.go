// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/leadflow/internal/models"
)

func validRequest() *models.IngestRequest {
	return &models.IngestRequest{
		SchemaVersion: "1",
		EventName:     "booking_start",
		EventVersion:  1,
		EventID:       "evt-1",
		OccurredAt:    "2026-10-18T10:00:00Z",
		Source:        "web",
		Environment:   "production",
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()
	if err := ValidateStruct(validRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStruct_MissingFields(t *testing.T) {
	t.Parallel()
	req := validRequest()
	req.EventName = ""
	req.EventVersion = 0
	req.Environment = ""

	err := ValidateStruct(req)
	if err == nil {
		t.Fatal("expected error")
	}

	got := map[string]string{}
	for _, fe := range err.Errors() {
		got[fe.Path()] = fe.Tag()
	}
	want := map[string]string{
		"event_name":    "required",
		"event_version": "required",
		"environment":   "required",
	}
	for path, tag := range want {
		if got[path] != tag {
			t.Errorf("field %s: tag = %q, want %q (all: %v)", path, got[path], tag, got)
		}
	}
	if !strings.Contains(err.Error(), "event_name is required") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestValidateStruct_NestedPath(t *testing.T) {
	t.Parallel()
	req := validRequest()
	req.Page = &models.Page{PagePath: strings.Repeat("p", 2049)}
	req.EventVersion = -1

	err := ValidateStruct(req)
	if err == nil {
		t.Fatal("expected error")
	}

	var paths []string
	for _, fe := range err.Errors() {
		paths = append(paths, fe.Path()+":"+fe.Tag())
	}
	joined := strings.Join(paths, ",")
	if !strings.Contains(joined, "page.page_path:max") {
		t.Errorf("expected page.page_path:max in %s", joined)
	}
	if !strings.Contains(joined, "event_version:min") {
		t.Errorf("expected event_version:min in %s", joined)
	}
	if !strings.Contains(err.Error(), "page.page_path must be at most 2048 characters") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
