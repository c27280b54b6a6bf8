// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package funnel

import (
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/taxonomy"
)

// ServiceSlugKey is the property the booking funnel filter matches.
const ServiceSlugKey = "service_slug"

// BookingFilter narrows the booking funnel. Zero value means no filter.
type BookingFilter struct {
	ServiceSlug string `json:"service_slug,omitempty"`
}

func (f BookingFilter) matches(e *models.AnalyticsEvent) bool {
	if f.ServiceSlug == "" {
		return true
	}
	return e.Properties.StringField(ServiceSlugKey) == f.ServiceSlug
}

// BookingSteps counts distinct leads per booking step and derives the
// step-to-step conversion. Every step is present, in declared order, even
// when its count is zero. Events without a lead do not count.
//
// The input is expected to be already restricted to the report range.
func BookingSteps(events []models.AnalyticsEvent, filter BookingFilter) ([]models.FunnelStep, []models.FunnelConversion) {
	leads := make(map[string]map[string]struct{}, len(taxonomy.BookingFunnelSteps))
	for _, step := range taxonomy.BookingFunnelSteps {
		leads[string(step)] = make(map[string]struct{})
	}

	for i := range events {
		e := &events[i]
		seen, ok := leads[e.EventName]
		if !ok || e.LeadID == "" || !filter.matches(e) {
			continue
		}
		seen[e.LeadID] = struct{}{}
	}

	steps := make([]models.FunnelStep, len(taxonomy.BookingFunnelSteps))
	for i, step := range taxonomy.BookingFunnelSteps {
		steps[i] = models.FunnelStep{Event: string(step), Count: len(leads[string(step)])}
	}

	return steps, Conversions(steps)
}

// Conversions returns one rate per consecutive pair of steps.
func Conversions(steps []models.FunnelStep) []models.FunnelConversion {
	if len(steps) < 2 {
		return []models.FunnelConversion{}
	}
	out := make([]models.FunnelConversion, 0, len(steps)-1)
	for i := 0; i+1 < len(steps); i++ {
		out = append(out, models.FunnelConversion{
			From: steps[i].Event,
			To:   steps[i+1].Event,
			Rate: Rate(steps[i+1].Count, steps[i].Count),
		})
	}
	return out
}

// Rate returns num/den, and exactly 0 when den is 0.
func Rate(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
