// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package services adapts leadflow components to suture.Service.

  - HTTPServerService: ListenAndServe plus graceful Shutdown on cancel
  - UptimeService: periodic uptime gauge for /metrics

The event bus consumer (eventbus.Consumer) already implements
suture.Service and is added to the tree directly.

Every Serve returns ctx.Err() after cancellation. Any other error makes
the supervisor restart the service with backoff.
*/
package services
