// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package taxonomy

import "testing"

func TestIsKnownEvent(t *testing.T) {
	t.Parallel()
	for _, n := range EventNames() {
		if !IsKnownEvent(string(n)) {
			t.Errorf("IsKnownEvent(%q) = false", n)
		}
	}
	for _, n := range []string{"", "Booking_Start", "booking_strat", "pageview"} {
		if IsKnownEvent(n) {
			t.Errorf("IsKnownEvent(%q) = true, want false", n)
		}
	}
}

func TestIsContactProducing(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want bool
	}{
		{"booking_start", true},
		{"booking_paid", true},
		{"start_quiz", true},
		{"navigator_step_completed", true},
		{"waitlist_submitted", true},
		{"question_submitted", true},
		{"cta_tg_click", true},
		{"page_view", false},
		{"cta_click", false},
		{"resource_view", false},
		{"unknown_event", false},
	}
	for _, tt := range tests {
		if got := IsContactProducing(tt.name); got != tt.want {
			t.Errorf("IsContactProducing(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsKnownSource(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"web", "backend", "telegram", "admin"} {
		if !IsKnownSource(s) {
			t.Errorf("IsKnownSource(%q) = false", s)
		}
	}
	for _, s := range []string{"", "WEB", "ios", "email"} {
		if IsKnownSource(s) {
			t.Errorf("IsKnownSource(%q) = true", s)
		}
	}
}

func TestIsForbiddenKey(t *testing.T) {
	t.Parallel()
	for _, k := range []string{"email", "EMAIL", "Phone", "first_name", "tg_id", "diary_text", "note"} {
		if !IsForbiddenKey(k) {
			t.Errorf("IsForbiddenKey(%q) = false", k)
		}
	}
	for _, k := range []string{"email_verified_at", "service_slug", "notes_count", "username_length"} {
		if IsForbiddenKey(k) {
			t.Errorf("IsForbiddenKey(%q) = true", k)
		}
	}
}

func TestIsSafeKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key  string
		want bool
	}{
		{"id", true},
		{"slug", true},
		{"token", true},
		{"key", true},
		{"run_id", true},
		{"service_slug", true},
		{"paid_at", true},
		{"paid_at_utc", true},
		{"Run_ID", true},
		{"idx", false},
		{"comment", false},
		{"identifier", false},
		{"at", false},
	}
	for _, tt := range tests {
		if got := IsSafeKey(tt.key); got != tt.want {
			t.Errorf("IsSafeKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestInferLeadSource(t *testing.T) {
	t.Parallel()
	tests := []struct {
		event, source string
		want          LeadSource
	}{
		{"tg_subscribe_confirmed", "web", LeadSourceTelegram},
		{"cta_tg_click", "web", LeadSourceTelegram},
		{"booking_start", "telegram", LeadSourceTelegram},
		{"start_quiz", "web", LeadSourceQuiz},
		{"navigator_step_completed", "web", LeadSourceQuiz},
		{"thermometer_start", "web", LeadSourceQuiz},
		{"waitlist_submitted", "web", LeadSourceWaitlist},
		{"question_submitted", "backend", LeadSourceQuestion},
		{"booking_paid", "backend", LeadSourceBooking},
		{"payment_failed", "backend", LeadSourceBooking},
		{"service_selected", "web", LeadSourceBooking},
		{"page_view", "web", LeadSourceBooking},
	}
	for _, tt := range tests {
		if got := InferLeadSource(tt.event, tt.source); got != tt.want {
			t.Errorf("InferLeadSource(%q, %q) = %q, want %q", tt.event, tt.source, got, tt.want)
		}
	}
}

func TestAdvanceStatus(t *testing.T) {
	t.Parallel()
	if got := AdvanceStatus(LeadStatusPaid, StatusForEvent("booking_start")); got != LeadStatusPaid {
		t.Errorf("status regressed to %q", got)
	}
	if got := AdvanceStatus(LeadStatusNew, StatusForEvent("booking_confirmed")); got != LeadStatusConfirmed {
		t.Errorf("AdvanceStatus = %q, want confirmed", got)
	}
	if got := StatusForEvent("page_view"); got != LeadStatusNew {
		t.Errorf("StatusForEvent(page_view) = %q", got)
	}
	if LeadStatus("bogus").Rank() >= LeadStatusNew.Rank() {
		t.Error("unknown status should rank below new")
	}
}

func TestBookingFunnelSteps(t *testing.T) {
	t.Parallel()
	want := []string{"booking_start", "booking_slot_selected", "booking_paid", "booking_confirmed"}
	got := Strings(BookingFunnelSteps)
	if len(got) != len(want) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got[i], want[i])
		}
	}
}
