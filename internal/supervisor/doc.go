// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package supervisor runs leadflow's long-lived services under suture v4.

# Tree

	RootSupervisor ("leadflow")
	├── MessagingSupervisor ("messaging-layer")
	│   └── report-cache-invalidator (if EVENTBUS_ENABLED)
	└── APISupervisor ("api-layer")
	    ├── http-server
	    └── uptime-reporter

Each layer counts failures on its own. A subscriber that cannot reach NATS
backs off inside the messaging layer and never restarts the HTTP server.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(bus.Consumer)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Return values

A service's Serve should:
  - return ctx.Err() once ctx is canceled
  - return an error to be restarted with backoff
  - return suture.ErrDoNotRestart to stop permanently

The store is not a service. Its connections are owned by the database
packages and closed by main after the tree stops.
*/
package supervisor
