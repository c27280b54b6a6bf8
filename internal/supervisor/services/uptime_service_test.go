// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestUptimeService_Reports(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_uptime_seconds"})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	svc := NewUptimeService(gauge, start, time.Hour)
	svc.now = func() time.Time { return start.Add(90 * time.Second) }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(time.Second)
	for testutil.ToFloat64(gauge) != 90 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := testutil.ToFloat64(gauge); got != 90 {
		t.Errorf("expected 90 seconds, got %v", got)
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUptimeService_Defaults(t *testing.T) {
	svc := NewUptimeService(prometheus.NewGauge(prometheus.GaugeOpts{Name: "x"}), time.Now(), 0)
	if svc.interval != 15*time.Second {
		t.Errorf("expected default interval 15s, got %v", svc.interval)
	}
	if svc.String() != "uptime-reporter" {
		t.Errorf("unexpected name %q", svc.String())
	}
}
