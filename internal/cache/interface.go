// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package cache

// Cacher is the part of Cache the report engine and the event bus use.
// Tests substitute their own implementation.
type Cacher interface {
	// Get returns the value and true if found and not expired.
	Get(key string) (interface{}, bool)

	// Set stores a value with the default TTL.
	Set(key string, value interface{})

	// Clear removes all entries.
	Clear()
}

var _ Cacher = (*Cache)(nil)

// Noop is a Cacher that never stores anything. Used when report caching is
// disabled.
type Noop struct{}

// Get always misses.
func (Noop) Get(string) (interface{}, bool) { return nil, false }

// Set discards the value.
func (Noop) Set(string, interface{}) {}

// Clear does nothing.
func (Noop) Clear() {}
