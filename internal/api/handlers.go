// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"context"
	"time"

	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/funnel"
	"github.com/tomtom215/leadflow/internal/models"
)

// Ingester accepts analytics events. Implemented by *ingest.Service.
type Ingester interface {
	Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResult, error)
	IngestBatch(ctx context.Context, reqs []*models.IngestRequest) ([]models.BatchItemResult, error)
}

// Reporter answers funnel and lead queries. Implemented by *funnel.Engine.
type Reporter interface {
	BookingFunnel(ctx context.Context, rng funnel.Range, filter funnel.BookingFilter) (*models.BookingFunnelReport, error)
	InteractiveFunnel(ctx context.Context, rng funnel.Range) (*models.InteractiveFunnelReport, error)
	GetLead(ctx context.Context, id string) (*models.LeadDetail, error)
	LeadTimeline(ctx context.Context, id string) ([]models.LeadTimelineEvent, error)
}

// Pinger reports whether the event store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_ingest.go: single and batch ingest
//   - handlers_funnels.go: booking and interactive funnels
//   - handlers_leads.go: lead detail and timeline
//   - handlers_health.go: liveness and readiness probes
type Handler struct {
	ingest    Ingester
	reports   Reporter
	db        Pinger
	ingestCfg config.IngestConfig
	rangeOpts funnel.RangeOptions
	cacheTTL  time.Duration
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a new API handler. cfg supplies body and batch
// limits, the default and maximum report range, and the report cache TTL
// used for Cache-Control.
func NewHandler(ing Ingester, reports Reporter, db Pinger, cfg *config.Config) *Handler {
	return &Handler{
		ingest:    ing,
		reports:   reports,
		db:        db,
		ingestCfg: cfg.Ingest,
		rangeOpts: funnel.RangeOptions{
			DefaultDays: cfg.Reporting.DefaultRangeDays,
			MaxDays:     cfg.Reporting.MaxRangeDays,
		},
		cacheTTL:  cfg.Reporting.CacheTTL,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// batchBodyLimit bounds a batch body at one full event per allowed item.
func (h *Handler) batchBodyLimit() int64 {
	if h.ingestCfg.MaxBodyBytes <= 0 || h.ingestCfg.MaxBatchSize <= 0 {
		return h.ingestCfg.MaxBodyBytes
	}
	return h.ingestCfg.MaxBodyBytes * int64(h.ingestCfg.MaxBatchSize)
}
