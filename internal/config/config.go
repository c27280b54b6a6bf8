// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Reporting ReportingConfig `koanf:"reporting"`
	EventBus  EventBusConfig  `koanf:"eventbus"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Store drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and tunes the event store.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`

	// DuckDB
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// PostgreSQL
	PostgresDSN     string        `koanf:"postgres_dsn"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	// SchemaVersion is the only payload schema_version accepted.
	SchemaVersion string `koanf:"schema_version"`

	// MaxConflictRetries bounds how often one ingest transaction is re-run
	// after losing a race on a lead or identity insert.
	MaxConflictRetries int `koanf:"max_conflict_retries"`

	MaxBodyBytes int64 `koanf:"max_body_bytes"`
	MaxBatchSize int   `koanf:"max_batch_size"`

	// MaxFutureSkew rejects occurred_at values further than this ahead of
	// the server clock. Zero disables the check.
	MaxFutureSkew time.Duration `koanf:"max_future_skew"`
}

// Report time bases.
const (
	TimeBasisOccurred = "occurred_at"
	TimeBasisReceived = "received_at"
)

// ReportingConfig controls the funnel endpoints.
type ReportingConfig struct {
	TimeBasis        string        `koanf:"time_basis"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
	DefaultRangeDays int           `koanf:"default_range_days"`
	MaxRangeDays     int           `koanf:"max_range_days"`
}

// Event bus drivers.
const (
	BusDriverMemory = "memory"
	BusDriverNATS   = "nats"
)

// EventBusConfig controls post-commit EventIngested notifications.
type EventBusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Driver  string `koanf:"driver"`
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic"`

	// QueueGroup load-balances NATS consumers across instances. Empty
	// means every instance receives every message, which is what cache
	// invalidation needs.
	QueueGroup    string        `koanf:"queue_group"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`

	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	IngestRateLimit   int           `koanf:"ingest_rate_limit"`
	ReportRateLimit   int           `koanf:"report_rate_limit"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
