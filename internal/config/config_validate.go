// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateReporting(); err != nil {
		return err
	}
	if err := c.validateEventBus(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DB_DRIVER=duckdb")
		}
		if c.Database.Threads < 0 {
			return fmt.Errorf("DUCKDB_THREADS must not be negative")
		}
	case DriverPostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		u, err := url.Parse(c.Database.PostgresDSN)
		if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			return fmt.Errorf("POSTGRES_DSN must be a postgres:// URL")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("POSTGRES_MAX_CONNS must be at least 1")
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("POSTGRES_MIN_CONNS must be between 0 and POSTGRES_MAX_CONNS")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverDuckDB, DriverPostgres, c.Database.Driver)
	}
	return nil
}

func (c *Config) validateIngest() error {
	if strings.TrimSpace(c.Ingest.SchemaVersion) == "" {
		return fmt.Errorf("INGEST_SCHEMA_VERSION must not be empty")
	}
	if c.Ingest.MaxConflictRetries < 1 {
		return fmt.Errorf("INGEST_MAX_RETRIES must be at least 1")
	}
	if c.Ingest.MaxBodyBytes < 1024 {
		return fmt.Errorf("INGEST_MAX_BODY_BYTES must be at least 1024")
	}
	if c.Ingest.MaxBatchSize < 1 {
		return fmt.Errorf("INGEST_MAX_BATCH_SIZE must be at least 1")
	}
	if c.Ingest.MaxFutureSkew < 0 {
		return fmt.Errorf("INGEST_MAX_FUTURE_SKEW must not be negative")
	}
	return nil
}

func (c *Config) validateReporting() error {
	if c.Reporting.TimeBasis != TimeBasisOccurred && c.Reporting.TimeBasis != TimeBasisReceived {
		return fmt.Errorf("REPORTING_TIME_BASIS must be %q or %q, got %q",
			TimeBasisOccurred, TimeBasisReceived, c.Reporting.TimeBasis)
	}
	if c.Reporting.CacheTTL < 0 {
		return fmt.Errorf("REPORTING_CACHE_TTL must not be negative")
	}
	if c.Reporting.DefaultRangeDays < 1 {
		return fmt.Errorf("REPORTING_RANGE_DAYS must be at least 1")
	}
	if c.Reporting.MaxRangeDays < c.Reporting.DefaultRangeDays {
		return fmt.Errorf("reporting.max_range_days must be >= reporting.default_range_days")
	}
	return nil
}

func (c *Config) validateEventBus() error {
	if !c.EventBus.Enabled {
		return nil
	}
	if c.EventBus.Topic == "" {
		return fmt.Errorf("EVENTBUS_TOPIC must not be empty when the event bus is enabled")
	}
	switch c.EventBus.Driver {
	case BusDriverMemory:
		return nil
	case BusDriverNATS:
		u, err := url.Parse(c.EventBus.NATSURL)
		if err != nil || u.Scheme != "nats" || u.Host == "" {
			return fmt.Errorf("NATS_URL must be a nats:// URL, got %q", c.EventBus.NATSURL)
		}
		return nil
	default:
		return fmt.Errorf("EVENTBUS_DRIVER must be %q or %q, got %q", BusDriverMemory, BusDriverNATS, c.EventBus.Driver)
	}
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.IngestRateLimit < 1 || c.Security.ReportRateLimit < 1 {
		return fmt.Errorf("rate limits must be at least 1 request per window")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.Server.Environment == "production" {
		for _, o := range c.Security.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
