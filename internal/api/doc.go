// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package api provides the HTTP layer: a chi router, its middleware stack and
the handlers for ingestion, funnel reports, lead lookups and health probes.

Endpoints:

	POST /api/v1/analytics/ingest            one event, 201 {status, lead_id}
	POST /api/v1/analytics/ingest/batch      JSON array, 200 per-item results
	GET  /api/v1/analytics/funnels/booking   ?from=&to=&service_slug=
	GET  /api/v1/analytics/funnels/interactive ?from=&to=
	GET  /api/v1/leads/{id}                  lead with bound identities
	GET  /api/v1/leads/{id}/timeline         ordered timeline
	GET  /api/v1/health/live
	GET  /api/v1/health/ready                503 when the store is unreachable
	GET  /metrics                            Prometheus exposition

Every JSON response uses the models.APIResponse envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "...", "request_id": "...", "query_time_ms": 3},
	  "error": {"code": "VALIDATION_FAILED", "message": "...", "details": {...}}
	}

Middleware, outermost first: request id and request logging, RealIP,
Recoverer, CORS (go-chi/cors). Route groups add per-IP rate limits
(go-chi/httprate, separate budgets for ingest, reports and probes), security
headers, Prometheus request metrics, body size caps on ingest and gzip on
reports.

Handlers depend on the Ingester, Reporter and Pinger interfaces, satisfied
by *ingest.Service, *funnel.Engine and store.Store respectively.

Usage:

	handler := api.NewHandler(ingestSvc, engine, st, cfg)
	mw := api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security))
	srv := &http.Server{Handler: api.NewRouter(handler, mw).SetupChi()}
*/
package api
