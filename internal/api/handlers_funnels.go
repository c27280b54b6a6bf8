// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/leadflow/internal/funnel"
	"github.com/tomtom215/leadflow/internal/models"
)

// BookingFunnelParams are the query parameters of the booking funnel.
type BookingFunnelParams struct {
	From        string `json:"from" validate:"max=40"`
	To          string `json:"to" validate:"max=40"`
	ServiceSlug string `json:"service_slug" validate:"omitempty,max=64,printascii"`
}

// InteractiveFunnelParams are the query parameters of the interactive funnel.
type InteractiveFunnelParams struct {
	From string `json:"from" validate:"max=40"`
	To   string `json:"to" validate:"max=40"`
}

// BookingFunnel handles GET /api/v1/analytics/funnels/booking.
//
// Query: from, to (YYYY-MM-DD with to inclusive, or RFC 3339), service_slug.
func (h *Handler) BookingFunnel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	params := BookingFunnelParams{
		From:        q.Get("from"),
		To:          q.Get("to"),
		ServiceSlug: q.Get("service_slug"),
	}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	rng, ok := h.parseRange(w, r, params.From, params.To)
	if !ok {
		return
	}

	report, err := h.reports.BookingFunnel(r.Context(), rng, funnel.BookingFilter{ServiceSlug: params.ServiceSlug})
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to compute booking funnel", err)
		return
	}

	h.setReportCaching(w)
	respondSuccess(w, r, http.StatusOK, report, models.Metadata{QueryTimeMS: sinceMS(start)})
}

// InteractiveFunnel handles GET /api/v1/analytics/funnels/interactive.
func (h *Handler) InteractiveFunnel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	params := InteractiveFunnelParams{From: q.Get("from"), To: q.Get("to")}
	if apiErr := validateRequest(&params); apiErr != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
		return
	}

	rng, ok := h.parseRange(w, r, params.From, params.To)
	if !ok {
		return
	}

	report, err := h.reports.InteractiveFunnel(r.Context(), rng)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to compute interactive funnel", err)
		return
	}

	h.setReportCaching(w)
	respondSuccess(w, r, http.StatusOK, report, models.Metadata{QueryTimeMS: sinceMS(start)})
}

func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request, from, to string) (funnel.Range, bool) {
	rng, err := funnel.ParseRange(from, to, h.now(), h.rangeOpts)
	if err != nil {
		if errors.Is(err, funnel.ErrInvalidRange) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), nil)
		} else {
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to parse range", err)
		}
		return funnel.Range{}, false
	}
	return rng, true
}

// setReportCaching lets clients reuse a report for as long as the server
// cache would.
func (h *Handler) setReportCaching(w http.ResponseWriter) {
	if h.cacheTTL <= 0 {
		return
	}
	w.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", int(h.cacheTTL.Seconds())))
}
