// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest Metrics
	IngestEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_ingest_events_total",
			Help: "Total number of ingest calls by outcome",
		},
		[]string{"status"}, // ok, ignored, rejected, error
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_ingest_duration_seconds",
			Help:    "Duration of ingest calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	IngestViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_ingest_violations_total",
			Help: "Total number of payload violations by kind",
		},
		[]string{"kind"},
	)

	IngestConflictRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_ingest_conflict_retries_total",
			Help: "Total number of ingest transactions re-run after a storage conflict",
		},
	)

	LeadsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_leads_resolved_total",
			Help: "Total number of events attached to a lead",
		},
		[]string{"event_name"},
	)

	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_store_query_duration_seconds",
			Help:    "Duration of event store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_store_query_errors_total",
			Help: "Total number of event store errors",
		},
		[]string{"operation", "error_type"},
	)

	// Report Metrics
	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_report_duration_seconds",
			Help:    "Duration of funnel report computation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"report"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_cache_hits_total",
			Help: "Total number of report cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_cache_misses_total",
			Help: "Total number of report cache misses",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_cache_invalidations_total",
			Help: "Total number of report cache clears",
		},
		[]string{"cache_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadflow_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_api_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Event Bus Metrics
	EventBusPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_eventbus_published_total",
			Help: "Total number of EventIngested messages published",
		},
	)

	EventBusPublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_eventbus_publish_failures_total",
			Help: "Total number of EventIngested publish failures",
		},
		[]string{"reason"}, // circuit_open, error
	)

	EventBusConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_eventbus_consumed_total",
			Help: "Total number of EventIngested messages handled",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadflow_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Application Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "leadflow_app_info",
			Help: "Application build information",
		},
		[]string{"version", "go_version", "store_driver"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadflow_app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordIngest records the outcome and latency of one ingest call
func RecordIngest(status string, duration time.Duration) {
	IngestEventsTotal.WithLabelValues(status).Inc()
	IngestDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordViolations counts payload violations by kind
func RecordViolations(kinds []string) {
	for _, kind := range kinds {
		IngestViolations.WithLabelValues(kind).Inc()
	}
}

// RecordDBQuery records an event store operation
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheLookup records a hit or miss for a cache
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordCircuitBreakerTransition records a state change and the new state
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// errorType buckets an error message into a low-cardinality label.
func errorType(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "conflict"):
		return "conflict"
	case strings.Contains(msg, "duplicate"):
		return "duplicate"
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "context canceled"):
		return "canceled"
	case strings.Contains(msg, "not found"):
		return "not_found"
	default:
		return "other"
	}
}
