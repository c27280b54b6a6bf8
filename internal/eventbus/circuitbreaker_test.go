// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package eventbus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/leadflow/internal/metrics"
)

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test-breaker"))

	if cb == nil {
		t.Fatal("Expected non-nil circuit breaker")
	}
	if cb.Name() != "test-breaker" {
		t.Errorf("Expected name=test-breaker, got %s", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("Expected initial state=closed, got %s", cb.State())
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "open-test",
		MaxRequests:      1,
		Interval:         time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})

	testErr := errors.New("fail")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, testErr })
		if !errors.Is(err, testErr) {
			t.Fatalf("attempt %d: expected %v, got %v", i, testErr, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("Expected state=open, got %s", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) { return "unreachable", nil })
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected ErrOpenState, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("open-test")); got != 2 {
		t.Errorf("Expected breaker gauge=2, got %v", got)
	}
}

func TestCircuitBreakerDefaultThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "zero-threshold", Timeout: time.Minute})

	testErr := errors.New("fail")
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("Expected breaker to stay closed below default threshold, got %s", cb.State())
	}

	_, _ = cb.Execute(func() (interface{}, error) { return nil, testErr })
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("Expected breaker to open at default threshold, got %s", cb.State())
	}
}

func TestStateValue(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := stateValue(tt.state); got != tt.want {
			t.Errorf("stateValue(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
