// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: assigns or propagates X-Request-ID and seeds the logging
    context with request and correlation ids
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for report responses of at least CompressionMinSize
    bytes
  - MaxBodyBytes: request body cap, surfaced to handlers as
    *http.MaxBytesError

RequestID, PrometheusMetrics and Compression are http.HandlerFunc
decorators; the api package adapts them to chi with a small wrapper.
MaxBodyBytes is a standard func(http.Handler) http.Handler and is mounted
with r.Use.

See Also:

  - internal/api: router and handlers
  - internal/metrics: Prometheus metric definitions
*/
package middleware
