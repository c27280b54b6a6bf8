// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package eventbus

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/leadflow/internal/cache"
	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/metrics"
	"github.com/tomtom215/leadflow/internal/models"
)

// CacheInvalidator clears the report cache on every EventIngested message.
type CacheInvalidator struct {
	cache cache.Cacher
}

// NewCacheInvalidator creates a handler clearing c.
func NewCacheInvalidator(c cache.Cacher) *CacheInvalidator {
	return &CacheInvalidator{cache: c}
}

// Handle is a message.NoPublishHandlerFunc. Malformed payloads are logged and
// acked; retrying them would never succeed.
func (h *CacheInvalidator) Handle(msg *message.Message) error {
	var evt models.EventIngested
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		logging.Warn().
			Err(err).
			Str("message_uuid", msg.UUID).
			Msg("Dropping malformed EventIngested message")
		return nil
	}

	h.cache.Clear()
	metrics.EventBusConsumed.Inc()

	logging.Debug().
		Str("event_id", logging.SanitizeID(evt.EventID)).
		Str("event_name", evt.EventName).
		Msg("Report cache invalidated")
	return nil
}
