// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/middleware"
	"github.com/tomtom215/leadflow/internal/models"
	"github.com/tomtom215/leadflow/internal/validation"
)

// Response statuses of the envelope.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// errBodyTooLarge marks a request body that hit the MaxBodyBytes cap.
var errBodyTooLarge = errors.New("request body too large")

// respondJSON sends a JSON response with proper headers. Handlers that
// want the response cached set Cache-Control before calling; everything
// else is marked no-store. A GET whose If-None-Match matches the ETag gets
// 304 without a body.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	if response.Metadata.Timestamp.IsZero() {
		response.Metadata.Timestamp = time.Now().UTC()
	}
	if response.Metadata.RequestID == "" {
		response.Metadata.RequestID = middleware.GetRequestID(r.Context())
	}

	data, err := json.Marshal(response)
	if err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", "no-store")
	}

	if status == http.StatusOK && r.Method == http.MethodGet {
		etag := generateETag(response.Data)
		h.Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.CtxErr(r.Context(), err).Msg("Failed to write JSON response")
	}
}

// generateETag hashes the response data with FNV-1a. The envelope itself
// is excluded because its metadata changes on every request.
func generateETag(data interface{}) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	hash := uint32(2166136261)
	for _, b := range raw {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta models.Metadata) {
	respondJSON(w, r, status, &models.APIResponse{
		Status:   statusSuccess,
		Data:     data,
		Metadata: meta,
	})
}

// respondError sends an error response. A non-nil err is logged with its
// value sanitized; the client only sees message.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, code, message, nil, err)
}

// respondErrorDetails is respondError with a details object.
func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}, err error) {
	if err != nil {
		event := logging.CtxWarn(r.Context())
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("code", code).
			Int("status", status).
			Str("error", logging.SanitizeValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: statusError,
		Data:   nil,
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// decodeJSON reads one JSON document from the request body into v.
// Oversized bodies yield errBodyTooLarge; anything else that fails to parse
// is returned wrapped for a 400.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: limit %d bytes", errBodyTooLarge, maxErr.Limit)
		}
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// respondDecodeError maps a decodeJSON failure to 413 or 400.
func respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBodyTooLarge) {
		respondError(w, r, http.StatusRequestEntityTooLarge, models.ErrCodePayloadTooLarge, "Request body too large", err)
		return
	}
	respondError(w, r, http.StatusBadRequest, models.ErrCodeBadRequest, "Malformed JSON body", err)
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
func validateRequest(v interface{}) *models.APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}

	fields := make([]string, 0, len(verr.Errors()))
	for _, fe := range verr.Errors() {
		fields = append(fields, fe.Path()+":"+fe.Tag())
	}
	return &models.APIError{
		Code:    models.ErrCodeBadRequest,
		Message: verr.Error(),
		Details: map[string]interface{}{"fields": fields},
	}
}

// sinceMS returns the milliseconds elapsed since start.
func sinceMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
