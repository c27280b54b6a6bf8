// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/leadflow/internal/config"
	"github.com/tomtom215/leadflow/internal/database"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/payload"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// testDBSemaphore serializes DuckDB usage across tests in this package.
var testDBSemaphore = make(chan struct{}, 1)

func setupPipeline(t *testing.T, retries int) (*Service, *database.DB) {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{
		Driver:    config.DriverDuckDB,
		Path:      ":memory:",
		MaxMemory: "1GB",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	cfg.MaxConflictRetries = retries
	return NewService(db, cfg), db
}

func TestPipeline_IdempotentIngest(t *testing.T) {
	svc, db := setupPipeline(t, 3)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, validRequest("evt-1"))
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusOK, first.Status)
	require.NotNil(t, first.LeadID)

	second, err := svc.Ingest(ctx, validRequest("evt-1"))
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusIgnored, second.Status)
	assert.Nil(t, second.LeadID)

	n, err := db.CountEvents(ctx, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	timeline, err := db.ListTimeline(ctx, *first.LeadID)
	require.NoError(t, err)
	assert.Len(t, timeline, 1, "a duplicate must not append to the timeline")
}

func TestPipeline_PIIRejectedAndNotStored(t *testing.T) {
	svc, db := setupPipeline(t, 3)
	ctx := context.Background()

	req := validRequest("evt-pii")
	req.Properties = payload.Map(map[string]payload.Value{
		"service_slug": payload.StringValue("intro"),
		"contact": payload.Map(map[string]payload.Value{
			"email": payload.StringValue("someone@example.com"),
		}),
	})

	_, err := svc.Ingest(ctx, req)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, []string{"properties:contact.email:forbidden_key"}, verr.Violations)

	exists, err := db.EventExists(ctx, "evt-pii")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPipeline_MonotonicStitching(t *testing.T) {
	svc, db := setupPipeline(t, 3)
	ctx := context.Background()

	quiz := validRequest("evt-a")
	quiz.EventName = string(taxonomy.EventQuizStart)
	quiz.AnonymousID = "anon-1"
	quiz.Acquisition = &models.Acquisition{UTMSource: "Instagram"}
	resA, err := svc.Ingest(ctx, quiz)
	require.NoError(t, err)
	require.NotNil(t, resA.LeadID)
	leadID := *resA.LeadID

	booking := validRequest("evt-b")
	booking.AnonymousID = "anon-1"
	booking.UserID = "user-1"
	booking.Acquisition = &models.Acquisition{UTMSource: "google"}
	resB, err := svc.Ingest(ctx, booking)
	require.NoError(t, err)
	require.NotNil(t, resB.LeadID)
	assert.Equal(t, leadID, *resB.LeadID)

	paid := validRequest("evt-c")
	paid.EventName = string(taxonomy.EventBookingPaid)
	paid.Source = "backend"
	paid.AnonymousID = ""
	paid.UserID = "user-1"
	resC, err := svc.Ingest(ctx, paid)
	require.NoError(t, err)
	require.NotNil(t, resC.LeadID)
	assert.Equal(t, leadID, *resC.LeadID)

	lead, err := db.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.LeadStatusPaid, lead.Status)
	assert.Equal(t, taxonomy.LeadSourceQuiz, lead.Source)
	assert.Equal(t, "instagram", lead.UTM.Source, "first touch is never overwritten")

	ids, err := db.ListIdentities(ctx, leadID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	timeline, err := db.ListTimeline(ctx, leadID)
	require.NoError(t, err)
	assert.Len(t, timeline, 3)

	// A later quiz event must not regress the status.
	again := validRequest("evt-d")
	again.EventName = string(taxonomy.EventQuizComplete)
	again.UserID = "user-1"
	again.AnonymousID = ""
	_, err = svc.Ingest(ctx, again)
	require.NoError(t, err)
	lead, err = db.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.LeadStatusPaid, lead.Status)
}

func TestPipeline_NonContactEventHasNoLead(t *testing.T) {
	svc, db := setupPipeline(t, 3)
	ctx := context.Background()

	req := validRequest("evt-pv")
	req.EventName = string(taxonomy.EventPageView)
	res, err := svc.Ingest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.IngestStatusOK, res.Status)
	assert.Nil(t, res.LeadID)

	stored, err := db.GetEvent(ctx, "evt-pv")
	require.NoError(t, err)
	assert.Empty(t, stored.LeadID)
}

func TestPipeline_NonContactEventJoinsBoundLead(t *testing.T) {
	svc, db := setupPipeline(t, 3)
	ctx := context.Background()

	start, err := svc.Ingest(ctx, validRequest("evt-start"))
	require.NoError(t, err)
	require.NotNil(t, start.LeadID)
	leadID := *start.LeadID

	view := validRequest("evt-view")
	view.EventName = string(taxonomy.EventPageView)
	res, err := svc.Ingest(ctx, view)
	require.NoError(t, err)
	require.NotNil(t, res.LeadID)
	assert.Equal(t, leadID, *res.LeadID)

	stored, err := db.GetEvent(ctx, "evt-view")
	require.NoError(t, err)
	assert.Equal(t, leadID, stored.LeadID)

	// Joining a lead does not stitch: no new binding and no timeline entry.
	click := validRequest("evt-click")
	click.EventName = string(taxonomy.EventPageView)
	click.UserID = "user-9"
	res, err = svc.Ingest(ctx, click)
	require.NoError(t, err)
	require.NotNil(t, res.LeadID)
	assert.Equal(t, leadID, *res.LeadID)

	ids, err := db.ListIdentities(ctx, leadID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	timeline, err := db.ListTimeline(ctx, leadID)
	require.NoError(t, err)
	assert.Len(t, timeline, 1)
}

func TestPipeline_ExplicitLeadID(t *testing.T) {
	svc, db := setupPipeline(t, 3)
	ctx := context.Background()

	req := validRequest("evt-x")
	req.EventName = string(taxonomy.EventPageView)
	req.LeadID = "lead-explicit"
	res, err := svc.Ingest(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res.LeadID)
	assert.Equal(t, "lead-explicit", *res.LeadID)

	lead, err := db.GetLead(ctx, "lead-explicit")
	require.NoError(t, err)
	assert.Equal(t, taxonomy.LeadStatusNew, lead.Status)
}

func TestPipeline_ConcurrentDuplicates(t *testing.T) {
	svc, db := setupPipeline(t, 10)
	ctx := context.Background()

	const workers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		ignored int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Ingest(ctx, validRequest("evt-same"))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Status == models.IngestStatusOK {
				ok++
			} else {
				ignored++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, ignored)
	n, err := db.CountEvents(ctx, "evt-same")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPipeline_ConcurrentSameAnonymousID(t *testing.T) {
	svc, _ := setupPipeline(t, 10)
	ctx := context.Background()

	const workers = 4
	leadIDs := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := validRequest(fmt.Sprintf("evt-%d", i))
			req.AnonymousID = "anon-shared"
			res, err := svc.Ingest(ctx, req)
			if assert.NoError(t, err) && assert.NotNil(t, res.LeadID) {
				leadIDs[i] = *res.LeadID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, leadIDs[0], leadIDs[i], "all events sharing an anonymous_id resolve to one lead")
	}
}

func TestPipeline_Batch(t *testing.T) {
	svc, _ := setupPipeline(t, 3)
	ctx := context.Background()

	bad := validRequest("evt-b2")
	bad.Properties = payload.Map(map[string]payload.Value{"phone": payload.StringValue("1")})
	wrongSchema := validRequest("evt-b3")
	wrongSchema.SchemaVersion = "9"

	results, err := svc.IngestBatch(ctx, []*models.IngestRequest{
		validRequest("evt-b1"),
		bad,
		wrongSchema,
		validRequest("evt-b1"),
	})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "ok", results[0].Status)
	assert.NotNil(t, results[0].LeadID)

	assert.Equal(t, models.BatchStatusRejected, results[1].Status)
	assert.Equal(t, []string{"properties:phone:forbidden_key"}, results[1].Violations)
	assert.Equal(t, models.ErrCodeValidationFailed, results[1].Error.Code)

	assert.Equal(t, models.BatchStatusRejected, results[2].Status)
	assert.Equal(t, models.ErrCodeBadRequest, results[2].Error.Code)

	assert.Equal(t, "ignored", results[3].Status)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
	}
}
