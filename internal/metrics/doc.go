// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and
exposed by the HTTP server at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Ingest:
  - leadflow_ingest_events_total{status}: ok, ignored, rejected, error
  - leadflow_ingest_duration_seconds{status}
  - leadflow_ingest_violations_total{kind}: forbidden_key, email, phone, ...
  - leadflow_ingest_conflict_retries_total
  - leadflow_leads_resolved_total{event_name}

Store, reports and cache:
  - leadflow_store_query_duration_seconds{operation}
  - leadflow_store_query_errors_total{operation, error_type}
  - leadflow_report_duration_seconds{report}
  - leadflow_cache_{hits,misses,invalidations}_total{cache_type}

HTTP and event bus:
  - leadflow_api_requests_total{method, endpoint, status_code}
  - leadflow_api_request_duration_seconds{method, endpoint}
  - leadflow_api_active_requests
  - leadflow_api_rate_limit_hits_total{endpoint}
  - leadflow_eventbus_published_total, leadflow_eventbus_consumed_total
  - leadflow_eventbus_publish_failures_total{reason}
  - leadflow_circuit_breaker_state{name}, leadflow_circuit_breaker_transitions_total

Label values are bounded: endpoints are chi route patterns, event names come
from the closed taxonomy and error types are bucketed.
*/
package metrics
