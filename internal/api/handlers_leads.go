// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/store"
)

// GetLead handles GET /api/v1/leads/{id}.
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	lead, err := h.reports.GetLead(r.Context(), id)
	if err != nil {
		respondLeadError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, lead, models.Metadata{QueryTimeMS: sinceMS(start)})
}

// LeadTimeline handles GET /api/v1/leads/{id}/timeline.
func (h *Handler) LeadTimeline(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := leadIDParam(w, r)
	if !ok {
		return
	}

	entries, err := h.reports.LeadTimeline(r.Context(), id)
	if err != nil {
		respondLeadError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, entries, models.Metadata{QueryTimeMS: sinceMS(start)})
}

// maxLeadIDLength matches the lead_id limit of the ingest request.
const maxLeadIDLength = 128

// leadIDParam reads the {id} URL parameter. Server-minted ids are UUIDs
// but callers may supply their own, so only blank and oversized ids are
// rejected.
func leadIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || len(id) > maxLeadIDLength {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Invalid lead id", nil)
		return "", false
	}
	return id, true
}

func respondLeadError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Lead not found", nil)
		return
	}
	respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to load lead", err)
}
