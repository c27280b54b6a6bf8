// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package main is the leadflow server.

Leadflow accepts behavioral analytics events over HTTP, stitches them to
leads, and serves booking and interactive funnel reports.

# Startup

 1. Configuration: koanf v2 (defaults, optional config.yaml, environment)
 2. Logging: zerolog, JSON or console
 3. Store: DuckDB (default) or PostgreSQL, selected by DB_DRIVER
 4. Report cache and, if EVENTBUS_ENABLED, the event bus (memory or NATS)
 5. Ingest service, funnel engine, chi router
 6. Supervisor tree: cache invalidator, HTTP server, uptime reporter

# Supervision

	RootSupervisor ("leadflow")
	├── MessagingSupervisor ("messaging-layer")
	│   └── report-cache-invalidator
	└── APISupervisor ("api-layer")
	    ├── http-server
	    └── uptime-reporter

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for up
to SHUTDOWN_TIMEOUT, then the event bus, report cache and store are
closed in that order.

# Example

	export DB_DRIVER=duckdb
	export DUCKDB_PATH=/data/leadflow.duckdb
	export EVENTBUS_DRIVER=nats
	export NATS_URL=nats://nats:4222
	./leadflow
*/
package main
