// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/tomtom215/leadflow/internal/api"
	"github.com/tomtom215/leadflow/internal/cache"
	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/database"
	"github.com/tomtom215/leadflow/internal/database/postgres"
	"github.com/tomtom215/leadflow/internal/eventbus"
	"github.com/tomtom215/leadflow/internal/funnel"
	"github.com/tomtom215/leadflow/internal/ingest"
	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/metrics"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/supervisor"
	"github.com/tomtom215/leadflow/internal/supervisor/services"
)

// app owns everything main has to close after the tree stops.
type app struct {
	store   store.Store
	reports *cache.Cache
	bus     *eventbus.Bus
	tree    *supervisor.SupervisorTree
	server  *http.Server
}

// newApp wires store, cache, event bus, pipeline, HTTP and supervisor.
// On error everything opened so far is closed.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.store, err = openStore(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	metrics.AppInfo.WithLabelValues(version, runtime.Version(), cfg.Database.Driver).Set(1)

	a.reports = cache.New(cfg.Reporting.CacheTTL, cache.WithName("reports"))

	var ingestOpts []ingest.Option
	if cfg.EventBus.Enabled {
		a.bus, err = eventbus.New(cfg.EventBus, a.reports)
		if err != nil {
			return nil, fmt.Errorf("event bus: %w", err)
		}
		ingestOpts = append(ingestOpts, ingest.WithPublisher(a.bus.Publisher))
	}

	ingester := ingest.NewService(a.store, cfg.Ingest, ingestOpts...)
	reports := funnel.NewEngine(a.store,
		funnel.WithCache(a.reports),
		funnel.WithTimeBasis(cfg.Reporting.TimeBasis),
	)

	handler := api.NewHandler(ingester, reports, a.store, cfg)
	mw := api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security))
	router := api.NewRouter(handler, mw)

	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	a.tree, err = supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("supervisor tree: %w", err)
	}

	if a.bus != nil {
		a.tree.AddMessagingService(a.bus.Consumer)
	}
	a.tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout))
	a.tree.AddAPIService(services.NewUptimeService(metrics.AppUptime, time.Now(), 0))

	logging.Info().Str("addr", a.server.Addr).Msg("Services added to supervisor tree")
	return a, nil
}

// openStore opens the configured event store.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		st, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logging.Info().Msg("PostgreSQL store initialized")
		return st, nil
	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("open duckdb store: %w", err)
		}
		logging.Info().Str("path", cfg.Path).Msg("DuckDB store initialized")
		return db, nil
	}
}

// Close releases resources in reverse order of creation. The bus goes
// first so no publish races a closed store.
func (a *app) Close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if a.reports != nil {
		a.reports.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}
}
