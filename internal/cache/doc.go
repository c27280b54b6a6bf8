// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

/*
Package cache provides a thread-safe in-memory TTL cache for funnel reports.

Funnel reports are recomputed from the event log on every miss, so the cache
only trades freshness for query load. Entries expire after the configured
reporting.cache_ttl and the whole cache is cleared whenever the event bus
delivers an EventIngested message.

# Usage

	reports := cache.New(time.Minute, cache.WithName("funnel"))
	key := cache.GenerateKey("booking", params)
	if v, ok := reports.Get(key); ok {
	    return v.(*models.BookingFunnelReport), nil
	}
	report := build()
	reports.Set(key, report)

Expiry is checked lazily on Get. WithCleanupInterval adds a background sweep
for long-lived processes; Close stops it.

# Metrics

Hits, misses and clears are exported as leadflow_cache_hits_total,
leadflow_cache_misses_total and leadflow_cache_invalidations_total labelled
with the cache name.
*/
package cache
