// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tomtom215/leadflow/internal/funnel"
	"github.com/tomtom215/leadflow/internal/models"
)

// MockIngester is a testify mock of Ingester.
type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.IngestResult)
	return res, args.Error(1)
}

func (m *MockIngester) IngestBatch(ctx context.Context, reqs []*models.IngestRequest) ([]models.BatchItemResult, error) {
	args := m.Called(ctx, reqs)
	res, _ := args.Get(0).([]models.BatchItemResult)
	return res, args.Error(1)
}

// MockReporter is a testify mock of Reporter.
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) BookingFunnel(ctx context.Context, rng funnel.Range, filter funnel.BookingFilter) (*models.BookingFunnelReport, error) {
	args := m.Called(ctx, rng, filter)
	report, _ := args.Get(0).(*models.BookingFunnelReport)
	return report, args.Error(1)
}

func (m *MockReporter) InteractiveFunnel(ctx context.Context, rng funnel.Range) (*models.InteractiveFunnelReport, error) {
	args := m.Called(ctx, rng)
	report, _ := args.Get(0).(*models.InteractiveFunnelReport)
	return report, args.Error(1)
}

func (m *MockReporter) GetLead(ctx context.Context, id string) (*models.LeadDetail, error) {
	args := m.Called(ctx, id)
	lead, _ := args.Get(0).(*models.LeadDetail)
	return lead, args.Error(1)
}

func (m *MockReporter) LeadTimeline(ctx context.Context, id string) ([]models.LeadTimelineEvent, error) {
	args := m.Called(ctx, id)
	entries, _ := args.Get(0).([]models.LeadTimelineEvent)
	return entries, args.Error(1)
}

// MockPinger is a testify mock of Pinger.
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
