// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelcircle/reelcircle/internal/metrics"
	"github.com/reelcircle/reelcircle/internal/pick"
)

const pickTimeout = 10 * time.Second

// Pick handles POST /api/v1/pick.
//
// An empty result page is a success, not an error: 200 with zero results.
// Invalid requests map to 400, upstream outages to 503 with a Retry-After
// hint, anything else to 500.
func (h *Handlers) Pick(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req pick.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordPick(string(req.Mode), "invalid", time.Since(start), 0, 0, false)
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "malformed request body", err)
		return
	}
	if req.RequestID == "" {
		req.RequestID = requestIDFrom(r)
	}

	ctx, cancel := context.WithTimeout(r.Context(), pickTimeout)
	defer cancel()

	resp, err := h.picker.Pick(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, pick.ErrInvalidRequest):
			metrics.RecordPick(string(req.Mode), "invalid", time.Since(start), 0, 0, false)
			respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, err.Error(), nil)
		case errors.Is(err, pick.ErrUpstreamUnavailable):
			metrics.RecordPick(string(req.Mode), "upstream", time.Since(start), 0, 0, false)
			w.Header().Set("Retry-After", "5")
			respondError(w, r, http.StatusServiceUnavailable, errCodeUpstreamUnavailable, "candidate sources unavailable, retry shortly", err)
		default:
			metrics.RecordPick(string(req.Mode), "error", time.Since(start), 0, 0, false)
			respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to generate picks", err)
		}
		return
	}

	outcome := "ok"
	if len(resp.Results) == 0 {
		outcome = "empty"
	}
	metrics.RecordPick(string(req.Mode), outcome, time.Since(start),
		resp.Metadata.CandidateCount, resp.Metadata.FilteredCount, resp.Degraded)

	respondData(w, r, http.StatusOK, resp, start)
}

// PickStats handles GET /api/v1/pick/stats.
func (h *Handlers) PickStats(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, h.picker.Stats(), time.Now())
}
