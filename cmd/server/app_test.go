// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package main

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
	"github.com/tomtom215/leadflow/internal/models"
)

func testAppConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			Timeout:         5 * time.Second,
			ShutdownTimeout: time.Second,
			Environment:     "development",
		},
		Database: config.DatabaseConfig{
			Driver:    config.DriverDuckDB,
			Path:      ":memory:",
			MaxMemory: "1GB",
		},
		Ingest: config.IngestConfig{
			SchemaVersion:      "1",
			MaxConflictRetries: 3,
			MaxBodyBytes:       64 << 10,
			MaxBatchSize:       10,
		},
		Reporting: config.ReportingConfig{
			TimeBasis:        config.TimeBasisOccurred,
			CacheTTL:         time.Hour,
			DefaultRangeDays: 30,
			MaxRangeDays:     366,
		},
		EventBus: config.EventBusConfig{
			Enabled: true,
			Driver:  config.BusDriverMemory,
			Topic:   "analytics.events.ingested",
		},
		Security: config.SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitDisabled: true,
		},
	}
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func bookingStarts(t *testing.T, h http.Handler, day string) int {
	t.Helper()
	rec := serve(t, h, http.MethodGet, "/api/v1/analytics/funnels/booking?from="+day+"&to="+day, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var report models.BookingFunnelReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.NotEmpty(t, report.Steps)
	return report.Steps[0].Count
}

func TestApp_WiresPipelineAndInvalidatesReports(t *testing.T) {
	cfg := testAppConfig()

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NotNil(t, a.bus)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := a.tree.ServeBackground(ctx)
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	select {
	case <-a.bus.Consumer.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("cache invalidator did not subscribe")
	}

	h := a.server.Handler
	occurred := time.Now().UTC().Add(-time.Minute)
	day := occurred.Format("2006-01-02")
	ingest := func(eventID, anon string) {
		body := fmt.Sprintf(`{
			"schema_version": "1",
			"event_name": "booking_start",
			"event_version": 1,
			"event_id": %q,
			"occurred_at": %q,
			"source": "web",
			"environment": "test",
			"anonymous_id": %q
		}`, eventID, occurred.Format(time.RFC3339), anon)
		rec := serve(t, h, http.MethodPost, "/api/v1/analytics/ingest", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	ingest("evt-1", "anon-1")
	require.Equal(t, 1, bookingStarts(t, h, day))

	// The report is cached for an hour; only the bus can make it fresh.
	ingest("evt-2", "anon-2")
	assert.Eventually(t, func() bool {
		return bookingStarts(t, h, day) == 2
	}, 5*time.Second, 20*time.Millisecond)

	live := serve(t, h, http.MethodGet, "/api/v1/health/live", "")
	assert.Equal(t, http.StatusOK, live.Code)
	ready := serve(t, h, http.MethodGet, "/api/v1/health/ready", "")
	assert.Equal(t, http.StatusOK, ready.Code)
}

func TestApp_WithoutEventBus(t *testing.T) {
	cfg := testAppConfig()
	cfg.EventBus.Enabled = false

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.bus)
	assert.Equal(t, "127.0.0.1:0", a.server.Addr)
}

func TestOpenStore_InvalidPostgresDSN(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := openStore(ctx, &config.DatabaseConfig{
		Driver:      config.DriverPostgres,
		PostgresDSN: "://not a dsn",
	})
	assert.Error(t, err)
}
