// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelcircle/reelcircle/internal/logging"
	"github.com/reelcircle/reelcircle/internal/models"
)

// Error codes used across the API.
const (
	errCodeInvalidRequest      = "INVALID_REQUEST"
	errCodeNotFound            = "NOT_FOUND"
	errCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	errCodeInternal            = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	retryable := code == errCodeUpstreamUnavailable
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Err(err).
			Msg("api error")
	}

	respondJSON(w, r, status, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: requestIDFrom(r),
		},
		Error: &models.APIError{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	})
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data any, started time.Time) {
	respondJSON(w, r, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(started).Milliseconds(),
			RequestID:   requestIDFrom(r),
		},
	})
}

func contextWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

// validateRequest runs struct validation and converts failures into a
// client-facing error message.
func (h *Handlers) validateRequest(req any) string {
	if err := h.validate.Struct(req); err != nil {
		return err.Error()
	}
	return ""
}
