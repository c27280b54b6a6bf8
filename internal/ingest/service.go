// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

// Package ingest is the ingestion orchestrator: it validates one analytics
// event, deduplicates it by event_id, stitches it to a Lead and stores
// everything in a single transaction.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/identity"
	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/metrics"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/privacy"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/validation"
)

// Metric statuses in addition to ok and ignored.
const (
	statusRejected = "rejected"
	statusError    = "error"
)

// Publisher receives a notification after every committed event.
type Publisher interface {
	PublishEventIngested(ctx context.Context, event models.EventIngested) error
}

// Service runs the ingestion pipeline.
type Service struct {
	store     store.Store
	resolver  *identity.Resolver
	publisher Publisher
	cfg       config.IngestConfig
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the post-commit publisher. Without one nothing is
// published.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the received_at clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithResolver overrides the identity resolver.
func WithResolver(r *identity.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// NewService creates an ingestion Service.
func NewService(st store.Store, cfg config.IngestConfig, opts ...Option) *Service {
	s := &Service{
		store:    st,
		resolver: identity.NewResolver(),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.SchemaVersion == "" {
		s.cfg.SchemaVersion = "1"
	}
	return s
}

// Ingest stores one event. Duplicates of an already stored event_id return
// status ignored without validation or side effects.
func (s *Service) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResult, error) {
	start := time.Now()
	result, err := s.ingest(ctx, req)

	status := statusError
	switch {
	case err == nil:
		status = string(result.Status)
	case IsClientError(err):
		status = statusRejected
	}
	metrics.RecordIngest(status, time.Since(start))

	return result, err
}

func (s *Service) ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrMissingEventID)
	}
	if strings.TrimSpace(req.SchemaVersion) != s.cfg.SchemaVersion {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchema, truncate(req.SchemaVersion, 16))
	}
	eventID := strings.TrimSpace(req.EventID)
	if eventID == "" {
		return nil, ErrMissingEventID
	}

	log := logging.Ctx(ctx).With().
		Str("event_id", logging.SanitizeID(eventID)).
		Str("event_name", logging.SanitizeValue(req.EventName)).
		Logger()

	exists, err := s.store.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("check event_id: %w", err)
	}
	if exists {
		log.Debug().Msg("Duplicate event ignored")
		return ignored(), nil
	}

	if verr := validate(req); verr != nil {
		metrics.RecordViolations(verr.Kinds)
		log.Warn().Strs("violations", verr.Violations).Msg("Event rejected")
		return nil, verr
	}

	occurredAt, err := ParseOccurredAt(req.OccurredAt)
	if err != nil {
		return nil, err
	}
	receivedAt := s.now().UTC()
	if s.cfg.MaxFutureSkew > 0 && occurredAt.After(receivedAt.Add(s.cfg.MaxFutureSkew)) {
		return nil, fmt.Errorf("%w: more than %s in the future", ErrInvalidTimestamp, s.cfg.MaxFutureSkew)
	}

	event := buildEvent(req, eventID, occurredAt, receivedAt)

	leadID, dup, err := s.persist(ctx, event)
	if err != nil {
		return nil, err
	}
	if dup {
		log.Debug().Msg("Duplicate event ignored after race")
		return ignored(), nil
	}

	event.LeadID = leadID
	if leadID != "" {
		metrics.LeadsResolved.WithLabelValues(event.EventName).Inc()
	}
	log.Debug().Str("lead_id", logging.SanitizeID(leadID)).Msg("Event ingested")

	s.publish(ctx, event)

	result := &models.IngestResult{Status: models.IngestStatusOK}
	if leadID != "" {
		result.LeadID = &leadID
	}
	return result, nil
}

// persist runs the ingest transaction, retrying it when it loses a storage
// race. dup reports that another writer stored the same event_id first.
func (s *Service) persist(ctx context.Context, event *models.AnalyticsEvent) (leadID string, dup bool, err error) {
	for attempt := 0; ; attempt++ {
		leadID, dup, err = s.persistOnce(ctx, event)
		switch {
		case err == nil:
			return leadID, dup, nil
		case errors.Is(err, store.ErrDuplicateEvent):
			return "", true, nil
		case errors.Is(err, store.ErrConflict) && attempt < s.cfg.MaxConflictRetries:
			metrics.IngestConflictRetries.Inc()
			logging.CtxDebug(ctx).Err(err).Int("attempt", attempt+1).Msg("Ingest transaction conflict, retrying")
			continue
		case errors.Is(err, store.ErrConflict):
			return "", false, fmt.Errorf("%w after %d attempts: %v", ErrTooManyConflicts, attempt+1, err)
		default:
			return "", false, fmt.Errorf("store event: %w", err)
		}
	}
}

func (s *Service) persistOnce(ctx context.Context, event *models.AnalyticsEvent) (string, bool, error) {
	var (
		leadID string
		dup    bool
	)
	start := time.Now()
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		exists, err := tx.EventExists(ctx, event.EventID)
		if err != nil {
			return err
		}
		if exists {
			dup = true
			return nil
		}

		req := identity.RequestFromEvent(event)
		if identity.Qualifies(event.LeadID, event.EventName) {
			leadID, err = s.resolver.Resolve(ctx, tx, req)
		} else {
			leadID, err = s.resolver.Lookup(ctx, tx, req)
		}
		if err != nil {
			return err
		}

		stored := *event
		stored.LeadID = leadID
		return tx.InsertEvent(ctx, &stored)
	})
	metrics.RecordDBQuery("ingest_tx", time.Since(start), err)
	if err != nil {
		return "", false, err
	}
	return leadID, dup, nil
}

// publish is best effort: a failure is logged and never fails the request.
func (s *Service) publish(ctx context.Context, event *models.AnalyticsEvent) {
	if s.publisher == nil {
		return
	}
	msg := models.EventIngested{
		EventID:    event.EventID,
		EventName:  event.EventName,
		LeadID:     event.LeadID,
		OccurredAt: event.OccurredAt,
		ReceivedAt: event.ReceivedAt,
	}
	if err := s.publisher.PublishEventIngested(ctx, msg); err != nil {
		logging.CtxWarn(ctx).Err(err).
			Str("event_id", logging.SanitizeID(event.EventID)).
			Msg("Failed to publish EventIngested")
	}
}

// validate checks the request shape and the payload and returns every
// problem at once.
func validate(req *models.IngestRequest) *ValidationError {
	var verr ValidationError

	if shapeErr := validation.ValidateStruct(req); shapeErr != nil {
		for _, fe := range shapeErr.Errors() {
			verr.Violations = append(verr.Violations, fe.Path()+":"+fe.Tag())
			verr.Kinds = append(verr.Kinds, fe.Tag())
		}
	}

	result := privacy.Validate(req.EventName, req.Source, req.Properties)
	for _, v := range result.Violations {
		verr.Violations = append(verr.Violations, v.String())
		verr.Kinds = append(verr.Kinds, string(v.Kind))
	}

	if len(verr.Violations) == 0 {
		return nil
	}
	return &verr
}

func buildEvent(req *models.IngestRequest, eventID string, occurredAt, receivedAt time.Time) *models.AnalyticsEvent {
	return &models.AnalyticsEvent{
		EventID:       eventID,
		SchemaVersion: strings.TrimSpace(req.SchemaVersion),
		EventName:     req.EventName,
		EventVersion:  req.EventVersion,
		OccurredAt:    occurredAt,
		ReceivedAt:    receivedAt,
		Source:        req.Source,
		Environment:   req.Environment,
		SessionID:     strings.TrimSpace(req.SessionID),
		AnonymousID:   strings.TrimSpace(req.AnonymousID),
		UserID:        strings.TrimSpace(req.UserID),
		LeadID:        strings.TrimSpace(req.LeadID),
		Page:          req.Page,
		Acquisition:   req.Acquisition,
		Properties:    req.Properties,
	}
}

func ignored() *models.IngestResult {
	return &models.IngestResult{Status: models.IngestStatusIgnored}
}
