// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package config loads and validates Leadflow configuration.

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, or config.yaml / /etc/leadflow/config.yaml)
 3. Environment variables

Environment variables use flat legacy-style names that are mapped onto the
nested keys, for example:

	HTTP_PORT              -> server.port
	DB_DRIVER              -> database.driver
	DUCKDB_PATH            -> database.path
	POSTGRES_DSN           -> database.postgres_dsn
	INGEST_SCHEMA_VERSION  -> ingest.schema_version
	REPORTING_TIME_BASIS   -> reporting.time_basis
	EVENTBUS_DRIVER        -> eventbus.driver
	NATS_URL               -> eventbus.nats_url
	CORS_ORIGINS           -> security.cors_origins (comma separated)
	LOG_LEVEL              -> logging.level

Unknown variables are ignored. Validate runs after unmarshaling and rejects
configurations the server could not start with.
*/
package config
