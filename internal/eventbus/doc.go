// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package eventbus carries post-commit EventIngested notifications over
Watermill.

The ingest service publishes one message per committed event. A supervised
Consumer reads the same topic and clears the funnel report cache. The bus is
not on the ingestion correctness path: a publish failure is logged and the
ingest call still succeeds.

# Transports

  - memory (default): an in-process gochannel pub/sub
  - nats: core NATS subjects via watermill-nats, for multi-instance
    deployments where every instance must drop its own cache

# Resilience

Publishing goes through a gobreaker circuit breaker so a dead NATS server
costs one fast failure per request instead of a timeout. The consumer
router recovers panics and retries handler errors with exponential backoff.
Each Consumer.Serve builds a fresh subscriber and router, so suture can
restart it after a failure.
*/
package eventbus
