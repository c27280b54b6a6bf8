// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/database"
	"github.com/tomtom215/leadflow/internal/funnel"
	"github.com/tomtom215/leadflow/internal/ingest"
	"github.com/tomtom215/leadflow/internal/models"
)

// testDBSemaphore serializes DuckDB usage across tests in this package.
var testDBSemaphore = make(chan struct{}, 1)

type stack struct {
	db   *database.DB
	http http.Handler
	day  string
	at   string
}

// newStack wires a real in-memory DuckDB store, ingest service and funnel
// engine behind the router.
func newStack(t *testing.T) *stack {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "1GB",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	svc := ingest.NewService(db, cfg.Ingest)
	engine := funnel.NewEngine(db)

	mw := DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	handler := NewHandler(svc, engine, db, cfg)

	occurred := time.Now().UTC().Add(-time.Minute)
	return &stack{
		db:   db,
		http: NewRouter(handler, NewChiMiddleware(mw)).SetupChi(),
		day:  occurred.Format("2006-01-02"),
		at:   occurred.Format(time.RFC3339),
	}
}

func (s *stack) post(t *testing.T, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)
	return rec
}

func (s *stack) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// event renders an ingest body. extra is spliced in verbatim and must
// start with a comma when non-empty.
func (s *stack) event(name, eventID, extra string) string {
	return fmt.Sprintf(`{
		"schema_version": "1",
		"event_name": %q,
		"event_version": 1,
		"event_id": %q,
		"occurred_at": %q,
		"source": "web",
		"environment": "test"%s
	}`, name, eventID, s.at, extra)
}

func ingestResult(t *testing.T, rec *httptest.ResponseRecorder) models.IngestResult {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res models.IngestResult
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	return res
}

func TestEndToEnd_BookingFunnelWithStitching(t *testing.T) {
	s := newStack(t)

	first := ingestResult(t, s.post(t, "/api/v1/analytics/ingest", s.event("booking_start", "evt-1",
		`, "anonymous_id": "anon-1", "properties": {"service_slug": "primary_consultation"}`)))
	assert.Equal(t, models.IngestStatusOK, first.Status)
	require.NotNil(t, first.LeadID)
	leadID := *first.LeadID

	second := ingestResult(t, s.post(t, "/api/v1/analytics/ingest", s.event("booking_paid", "evt-2",
		fmt.Sprintf(`, "lead_id": %q`, leadID))))
	assert.Equal(t, models.IngestStatusOK, second.Status)
	require.NotNil(t, second.LeadID)
	assert.Equal(t, leadID, *second.LeadID)

	rec := s.get(t, "/api/v1/analytics/funnels/booking?from="+s.day+"&to="+s.day)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.BookingFunnelReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &report))
	assert.Equal(t, []models.FunnelStep{
		{Event: "booking_start", Count: 1},
		{Event: "booking_slot_selected", Count: 0},
		{Event: "booking_paid", Count: 1},
		{Event: "booking_confirmed", Count: 0},
	}, report.Steps)
	require.Len(t, report.Conversion, 3)
	assert.Equal(t, 0.0, report.Conversion[0].Rate)
	assert.Equal(t, 0.0, report.Conversion[1].Rate, "division by zero must yield 0")

	rec = s.get(t, "/api/v1/leads/"+leadID)
	require.Equal(t, http.StatusOK, rec.Code)
	var lead models.LeadDetail
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &lead))
	assert.Equal(t, leadID, lead.ID)
	assert.NotEmpty(t, lead.Identities)

	rec = s.get(t, "/api/v1/leads/"+leadID+"/timeline")
	require.Equal(t, http.StatusOK, rec.Code)
	var timeline []models.LeadTimelineEvent
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &timeline))
	require.Len(t, timeline, 2)
	assert.ElementsMatch(t, []string{"evt-1", "evt-2"}, []string{timeline[0].EventID, timeline[1].EventID})
}

func TestEndToEnd_DuplicateEventIgnored(t *testing.T) {
	s := newStack(t)
	body := s.event("booking_start", "evt-dup", `, "anonymous_id": "anon-dup"`)

	first := ingestResult(t, s.post(t, "/api/v1/analytics/ingest", body))
	assert.Equal(t, models.IngestStatusOK, first.Status)

	second := ingestResult(t, s.post(t, "/api/v1/analytics/ingest", body))
	assert.Equal(t, models.IngestStatusIgnored, second.Status)
	assert.Nil(t, second.LeadID)

	n, err := s.db.CountEvents(context.Background(), "evt-dup")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEndToEnd_PIIRejected(t *testing.T) {
	s := newStack(t)

	rec := s.post(t, "/api/v1/analytics/ingest", s.event("page_view", "evt-pii",
		`, "properties": {"email": "a@b.com"}`))

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, models.ErrCodeValidationFailed, env.Error.Code)
	assert.Contains(t, env.Error.Details["violations"], "properties:email:forbidden_key")

	n, err := s.db.CountEvents(context.Background(), "evt-pii")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEndToEnd_QuizCompletionRate(t *testing.T) {
	s := newStack(t)

	quiz := func(name, eventID, runID string) string {
		return s.event(name, eventID, fmt.Sprintf(`, "properties": {"quiz_slug": "sleep", "run_id": %q}`, runID))
	}
	for _, body := range []string{
		quiz("start_quiz", "q-1", "run-1"),
		quiz("start_quiz", "q-2", "run-2"),
		quiz("complete_quiz", "q-3", "run-1"),
	} {
		ingestResult(t, s.post(t, "/api/v1/analytics/ingest", body))
	}

	rec := s.get(t, "/api/v1/analytics/funnels/interactive?from="+s.day+"&to="+s.day)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report models.InteractiveFunnelReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &report))
	require.Len(t, report.Quizzes, 1)
	q := report.Quizzes[0]
	assert.Equal(t, "sleep", q.QuizSlug)
	assert.Equal(t, 2, q.Starts)
	assert.Equal(t, 1, q.Completes)
	assert.Equal(t, 0.5, q.CompletionRate)
	assert.NotNil(t, report.Navigators)
}

func TestEndToEnd_Batch(t *testing.T) {
	s := newStack(t)

	body := "[" + strings.Join([]string{
		s.event("booking_start", "b-1", `, "anonymous_id": "anon-b"`),
		s.event("booking_start", "b-1", `, "anonymous_id": "anon-b"`),
		s.event("page_view", "b-2", `, "properties": {"phone": "+100"}`),
		s.event("not_an_event", "b-3", ""),
	}, ",") + "]"

	rec := s.post(t, "/api/v1/analytics/ingest/batch", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp BatchIngestResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &resp))
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 1, resp.Ignored)
	assert.Equal(t, 2, resp.Rejected)
	assert.Zero(t, resp.Failed)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, models.BatchStatusRejected, resp.Results[2].Status)
	assert.Contains(t, resp.Results[2].Violations, "properties:phone:forbidden_key")
}

func TestEndToEnd_ReadinessWithStore(t *testing.T) {
	s := newStack(t)
	rec := s.get(t, "/api/v1/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}
