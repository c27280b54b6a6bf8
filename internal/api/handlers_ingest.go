// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/leadflow/internal/ingest"
	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/models"
)

// BatchIngestResponse is the data of a batch ingest response.
type BatchIngestResponse struct {
	Results  []models.BatchItemResult `json:"results"`
	Accepted int                      `json:"accepted"`
	Ignored  int                      `json:"ignored"`
	Rejected int                      `json:"rejected"`
	Failed   int                      `json:"failed"`
}

// Ingest handles POST /api/v1/analytics/ingest.
//
// 201 with {status, lead_id} for both ok and ignored. Validation and PII
// failures are 400 VALIDATION_FAILED with the full violation list under
// details.violations; other request problems are 400 BAD_REQUEST.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, r, err)
		return
	}

	result, err := h.ingest.Ingest(r.Context(), &req)
	if err != nil {
		h.respondIngestError(w, r, &req, err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, result, models.Metadata{QueryTimeMS: sinceMS(start)})
}

func (h *Handler) respondIngestError(w http.ResponseWriter, r *http.Request, req *models.IngestRequest, err error) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		logging.CtxDebug(r.Context()).
			Str("event_id", logging.SanitizeID(req.EventID)).
			Strs("violations", verr.Violations).
			Msg("Event rejected")
		respondErrorDetails(w, r, http.StatusBadRequest, models.ErrCodeValidationFailed,
			"Event failed validation",
			map[string]interface{}{"violations": verr.Violations},
			nil)
	case ingest.IsClientError(err):
		respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), err)
	default:
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to ingest event", err)
	}
}

// IngestBatch handles POST /api/v1/analytics/ingest/batch.
//
// The body is a JSON array of ingest requests. Items are processed
// independently and the response is 200 with one result per item, in
// order. Only problems with the batch itself (empty, too large, malformed)
// fail the whole request.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var reqs []*models.IngestRequest
	if err := decodeJSON(r, &reqs); err != nil {
		respondDecodeError(w, r, err)
		return
	}
	for i, req := range reqs {
		if req == nil {
			reqs[i] = &models.IngestRequest{}
		}
	}

	results, err := h.ingest.IngestBatch(r.Context(), reqs)
	if err != nil {
		if ingest.IsClientError(err) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, err.Error(), err)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to ingest batch", err)
		return
	}

	resp := BatchIngestResponse{Results: results}
	for _, item := range results {
		switch item.Status {
		case string(models.IngestStatusOK):
			resp.Accepted++
		case string(models.IngestStatusIgnored):
			resp.Ignored++
		case models.BatchStatusRejected:
			resp.Rejected++
		default:
			resp.Failed++
		}
	}

	respondSuccess(w, r, http.StatusOK, resp, models.Metadata{QueryTimeMS: sinceMS(start)})
}
