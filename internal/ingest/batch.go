// Leadflow - Behavioral Analytics Ingestion and Funnel Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/leadflow

package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/leadflow/internal/logging"
	"github.com/tomtom215/leadflow/internal/models"
)

// IngestBatch ingests each request independently, in order. One failing
// item never blocks the others; the error return is reserved for problems
// with the batch itself.
func (s *Service) IngestBatch(ctx context.Context, reqs []*models.IngestRequest) ([]models.BatchItemResult, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.cfg.MaxBatchSize > 0 && len(reqs) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d items, limit %d", ErrBatchTooLarge, len(reqs), s.cfg.MaxBatchSize)
	}

	results := make([]models.BatchItemResult, len(reqs))
	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results[i] = s.ingestItem(ctx, i, req)
	}
	return results, nil
}

func (s *Service) ingestItem(ctx context.Context, index int, req *models.IngestRequest) models.BatchItemResult {
	item := models.BatchItemResult{Index: index}

	res, err := s.Ingest(ctx, req)
	if err == nil {
		item.Status = string(res.Status)
		item.LeadID = res.LeadID
		return item
	}

	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		item.Status = models.BatchStatusRejected
		item.Violations = verr.Violations
		item.Error = &models.APIError{Code: models.ErrCodeValidationFailed, Message: "payload rejected"}
	case IsClientError(err):
		item.Status = models.BatchStatusRejected
		item.Error = &models.APIError{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		logging.CtxErr(ctx, err).Int("index", index).Msg("Batch item failed")
		item.Status = models.BatchStatusError
		item.Error = &models.APIError{Code: models.ErrCodeInternal, Message: "internal error"}
	}
	return item
}
