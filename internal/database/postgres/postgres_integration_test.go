// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/store"
	"github.com/tomtom215/leadflow/internal/taxonomy"
	"github.com/tomtom215/leadflow/internal/testinfra"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { testinfra.CleanupContainer(t, ctx, pg) })

	s, err := New(ctx, &config.DatabaseConfig{
		Driver:         config.DriverPostgres,
		PostgresDSN:    pg.DSN,
		MaxConns:       4,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	event := &models.AnalyticsEvent{
		EventID:       "evt-1",
		SchemaVersion: taxonomy.DefaultSchemaVersion,
		EventName:     string(taxonomy.EventBookingStart),
		EventVersion:  1,
		OccurredAt:    base,
		ReceivedAt:    base.Add(time.Second),
		Source:        "web",
		Environment:   "test",
		LeadID:        "lead-1",
		Acquisition:   &models.Acquisition{UTMSource: "newsletter"},
		Properties:    payload.Map(map[string]payload.Value{"service_slug": payload.StringValue("intro")}),
	}
	lead := &models.Lead{
		ID: "lead-1", Status: taxonomy.LeadStatusBookingStarted, Source: taxonomy.LeadSourceBooking,
		CreatedAt: base, UpdatedAt: base,
	}

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.CreateLead(ctx, lead); err != nil {
			return err
		}
		if err := tx.LinkIdentity(ctx, &models.LeadIdentity{
			Kind: models.IdentityAnonymous, Value: "anon-1", LeadID: "lead-1", CreatedAt: base,
		}); err != nil {
			return err
		}
		if err := tx.AppendTimeline(ctx, &models.LeadTimelineEvent{
			ID: "tl-1", LeadID: "lead-1", EventID: "evt-1", EventName: event.EventName,
			Source: "web", Properties: event.Properties, OccurredAt: base, CreatedAt: base,
		}); err != nil {
			return err
		}
		return tx.InsertEvent(ctx, event)
	})
	require.NoError(t, err)

	t.Run("duplicate event", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error { return tx.InsertEvent(ctx, event) })
		assert.True(t, errors.Is(err, store.ErrDuplicateEvent), "got %v", err)
		n, err := s.CountEvents(ctx, "evt-1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("identity conflict", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.LinkIdentity(ctx, &models.LeadIdentity{
				Kind: models.IdentityAnonymous, Value: "anon-1", LeadID: "lead-1", CreatedAt: base,
			})
		})
		assert.True(t, errors.Is(err, store.ErrConflict), "got %v", err)
	})

	t.Run("reads", func(t *testing.T) {
		got, err := s.GetLead(ctx, "lead-1")
		require.NoError(t, err)
		assert.Equal(t, taxonomy.LeadStatusBookingStarted, got.Status)

		ids, err := s.ListIdentities(ctx, "lead-1")
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, "anon-1", ids[0].Value)

		timeline, err := s.ListTimeline(ctx, "lead-1")
		require.NoError(t, err)
		require.Len(t, timeline, 1)
		assert.Equal(t, "intro", timeline[0].Properties.StringField("service_slug"))

		events, err := s.ListEvents(ctx, store.EventQuery{
			Names: []string{event.EventName}, From: base, To: base.Add(time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "newsletter", events[0].Acquisition.UTMSource)
		assert.True(t, events[0].OccurredAt.Equal(base))

		_, err = s.GetLead(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
