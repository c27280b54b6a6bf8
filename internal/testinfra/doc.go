// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to start the external services the
// event store and event bus can run against:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    s, err := postgres.New(ctx, &config.DatabaseConfig{PostgresDSN: pg.DSN})
//	    // ...
//	}
//
// # CI Considerations
//
// These tests require Docker and network access and only build with the
// integration tag:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable.
package testinfra
