// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package eventbus

import (
	"errors"
	"fmt"

	"github.com/tomtom215/leadflow/internal/cache"
	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/logging"
)

// InvalidatorName names the cache invalidation consumer in logs and suture.
const InvalidatorName = "report-cache-invalidator"

// Bus bundles the post-commit publisher and the cache invalidation consumer.
type Bus struct {
	Publisher *Publisher
	Consumer  *Consumer
	transport *Transport
}

// New builds the event bus described by cfg. The returned Consumer must be
// added to the supervisor tree; the Publisher is handed to the ingest
// service.
func New(cfg config.EventBusConfig, reports cache.Cacher) (*Bus, error) {
	logger := logging.NewWatermillAdapter()

	transport, err := NewTransport(cfg, logger)
	if err != nil {
		return nil, err
	}

	breakerCfg := DefaultCircuitBreakerConfig("eventbus-publisher")
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}

	publisher := NewPublisher(transport.Publisher, cfg.Topic, NewCircuitBreaker(breakerCfg))
	consumer := NewConsumer(InvalidatorName, cfg.Topic, transport.NewSubscriber, NewCacheInvalidator(reports).Handle, logger)

	logging.Info().
		Str("driver", cfg.Driver).
		Str("topic", cfg.Topic).
		Msg("Event bus configured")

	return &Bus{
		Publisher: publisher,
		Consumer:  consumer,
		transport: transport,
	}, nil
}

// Close shuts down the publisher and the shared transport.
func (b *Bus) Close() error {
	var errs []error
	if err := b.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := b.transport.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close transport: %w", err))
	}
	return errors.Join(errs...)
}
