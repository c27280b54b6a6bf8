// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package funnel

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/leadflow/internal/cache"
	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/metrics"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// Report names, used as cache key prefixes and metric labels.
const (
	ReportBooking     = "booking"
	ReportInteractive = "interactive"
)

// Reader is the read side of the store the engine needs.
type Reader interface {
	store.EventReader
	store.LeadReader
}

// Engine answers funnel and lead queries from the event store.
type Engine struct {
	reader    Reader
	cache     cache.Cacher
	timeBasis string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCache caches reports in c. Without it every call hits the store.
func WithCache(c cache.Cacher) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithTimeBasis selects which timestamp the range filters on:
// store.TimeBasisOccurred (default) or store.TimeBasisReceived.
func WithTimeBasis(basis string) EngineOption {
	return func(e *Engine) { e.timeBasis = store.NormalizeTimeBasis(basis) }
}

// NewEngine creates a report engine over r.
func NewEngine(r Reader, opts ...EngineOption) *Engine {
	e := &Engine{
		reader:    r,
		cache:     cache.Noop{},
		timeBasis: store.TimeBasisOccurred,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TimeBasis returns the timestamp column reports filter on.
func (e *Engine) TimeBasis() string { return e.timeBasis }

type bookingKey struct {
	From        time.Time
	To          time.Time
	ServiceSlug string
	TimeBasis   string
}

// BookingFunnel counts distinct leads per booking step inside rng.
func (e *Engine) BookingFunnel(ctx context.Context, rng Range, filter BookingFilter) (*models.BookingFunnelReport, error) {
	key := cache.GenerateKey(ReportBooking, bookingKey{rng.From, rng.To, filter.ServiceSlug, e.timeBasis})
	if v, ok := e.cache.Get(key); ok {
		if report, ok := v.(*models.BookingFunnelReport); ok {
			return report, nil
		}
	}

	start := time.Now()
	events, err := e.reader.ListEvents(ctx, store.EventQuery{
		Names:     taxonomy.Strings(taxonomy.BookingFunnelSteps),
		From:      rng.From,
		To:        rng.To,
		TimeBasis: e.timeBasis,
	})
	if err != nil {
		return nil, fmt.Errorf("list booking events: %w", err)
	}

	steps, conversion := BookingSteps(events, filter)
	report := &models.BookingFunnelReport{
		From:        rng.From,
		To:          rng.To,
		ServiceSlug: filter.ServiceSlug,
		Steps:       steps,
		Conversion:  conversion,
	}
	metrics.ReportDuration.WithLabelValues(ReportBooking).Observe(time.Since(start).Seconds())

	logging.CtxDebug(ctx).
		Int("events", len(events)).
		Str("service_slug", logging.SanitizeValue(filter.ServiceSlug)).
		Dur("duration", time.Since(start)).
		Msg("Booking funnel computed")

	e.cache.Set(key, report)
	return report, nil
}

type interactiveKey struct {
	From      time.Time
	To        time.Time
	TimeBasis string
}

// InteractiveFunnel builds per-quiz and per-navigator breakdowns inside rng.
func (e *Engine) InteractiveFunnel(ctx context.Context, rng Range) (*models.InteractiveFunnelReport, error) {
	key := cache.GenerateKey(ReportInteractive, interactiveKey{rng.From, rng.To, e.timeBasis})
	if v, ok := e.cache.Get(key); ok {
		if report, ok := v.(*models.InteractiveFunnelReport); ok {
			return report, nil
		}
	}

	start := time.Now()
	events, err := e.reader.ListEvents(ctx, store.EventQuery{
		Names:     taxonomy.Strings(taxonomy.InteractiveEvents),
		From:      rng.From,
		To:        rng.To,
		TimeBasis: e.timeBasis,
	})
	if err != nil {
		return nil, fmt.Errorf("list interactive events: %w", err)
	}

	quizzes, navigators := Interactive(events)
	report := &models.InteractiveFunnelReport{
		From:       rng.From,
		To:         rng.To,
		Quizzes:    quizzes,
		Navigators: navigators,
	}
	metrics.ReportDuration.WithLabelValues(ReportInteractive).Observe(time.Since(start).Seconds())

	logging.CtxDebug(ctx).
		Int("events", len(events)).
		Int("quizzes", len(quizzes)).
		Int("navigators", len(navigators)).
		Dur("duration", time.Since(start)).
		Msg("Interactive funnel computed")

	e.cache.Set(key, report)
	return report, nil
}

// GetLead returns a lead and its bound identifiers. Unknown ids yield
// store.ErrNotFound.
func (e *Engine) GetLead(ctx context.Context, id string) (*models.LeadDetail, error) {
	lead, err := e.reader.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}
	identities, err := e.reader.ListIdentities(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	if identities == nil {
		identities = []models.LeadIdentity{}
	}
	return &models.LeadDetail{Lead: *lead, Identities: identities}, nil
}

// LeadTimeline returns a lead's timeline ordered by occurred_at then
// created_at. Unknown ids yield store.ErrNotFound.
func (e *Engine) LeadTimeline(ctx context.Context, id string) ([]models.LeadTimelineEvent, error) {
	if _, err := e.reader.GetLead(ctx, id); err != nil {
		return nil, err
	}
	entries, err := e.reader.ListTimeline(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	if entries == nil {
		entries = []models.LeadTimelineEvent{}
	}
	return entries, nil
}

// Invalidate drops every cached report.
func (e *Engine) Invalidate() {
	e.cache.Clear()
}
