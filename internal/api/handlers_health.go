// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/models"
)

// readinessTimeout bounds the store ping of a readiness probe.
const readinessTimeout = 2 * time.Second

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: statusSuccess,
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 only when the event store answers a ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	dbConnected := false
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			logging.CtxWarn(r.Context()).Err(err).Msg("Readiness check: store ping failed")
		} else {
			dbConnected = true
		}
	}

	status, code := "ready", http.StatusOK
	if !dbConnected {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	respondJSON(w, r, code, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database": dbConnected,
			"uptime":   time.Since(h.startTime).Seconds(),
		},
	})
}
