// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/leadflow/config.yaml",
	"/etc/leadflow/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:          DriverDuckDB,
			Path:            "/data/leadflow.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			MaxConns:        20,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			ConnectTimeout:  10 * time.Second,
		},
		Ingest: IngestConfig{
			SchemaVersion:      "1",
			MaxConflictRetries: 3,
			MaxBodyBytes:       64 << 10,
			MaxBatchSize:       100,
			MaxFutureSkew:      0,
		},
		Reporting: ReportingConfig{
			TimeBasis:        TimeBasisOccurred,
			CacheTTL:         time.Minute,
			DefaultRangeDays: 30,
			MaxRangeDays:     366,
		},
		EventBus: EventBusConfig{
			Enabled:                 true,
			Driver:                  BusDriverMemory,
			NATSURL:                 "nats://127.0.0.1:4222",
			Topic:                   "analytics.events.ingested",
			QueueGroup:              "",
			MaxReconnects:           -1,
			ReconnectWait:           2 * time.Second,
			BreakerFailureThreshold: 5,
			BreakerTimeout:          30 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			IngestRateLimit: 600,
			ReportRateLimit: 60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers (defaults, YAML file,
// environment) and validates the result. Precedence is ENV > file > defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			continue
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envKeyMap = map[string]string{
	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_timeout":           "server.timeout",
	"shutdown_timeout":       "server.shutdown_timeout",
	"environment":            "server.environment",
	"db_driver":              "database.driver",
	"duckdb_path":            "database.path",
	"duckdb_max_memory":      "database.max_memory",
	"duckdb_threads":         "database.threads",
	"postgres_dsn":           "database.postgres_dsn",
	"postgres_max_conns":     "database.max_conns",
	"postgres_min_conns":     "database.min_conns",
	"ingest_schema_version":  "ingest.schema_version",
	"ingest_max_retries":     "ingest.max_conflict_retries",
	"ingest_max_body_bytes":  "ingest.max_body_bytes",
	"ingest_max_batch_size":  "ingest.max_batch_size",
	"ingest_max_future_skew": "ingest.max_future_skew",
	"reporting_time_basis":   "reporting.time_basis",
	"reporting_cache_ttl":    "reporting.cache_ttl",
	"reporting_range_days":   "reporting.default_range_days",
	"eventbus_enabled":       "eventbus.enabled",
	"eventbus_driver":        "eventbus.driver",
	"eventbus_topic":         "eventbus.topic",
	"nats_url":               "eventbus.nats_url",
	"nats_queue_group":       "eventbus.queue_group",
	"cors_origins":           "security.cors_origins",
	"rate_limit_disabled":    "security.rate_limit_disabled",
	"ingest_rate_limit":      "security.ingest_rate_limit",
	"report_rate_limit":      "security.report_rate_limit",
	"rate_limit_window":      "security.rate_limit_window",
	"log_level":              "logging.level",
	"log_format":             "logging.format",
	"log_caller":             "logging.caller",
}

// envTransformFunc maps environment variable names onto koanf paths.
// Returning "" drops the variable.
//
//	HTTP_PORT   -> server.port
//	DUCKDB_PATH -> database.path
func envTransformFunc(key string) string {
	return envKeyMap[strings.ToLower(key)]
}
