// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"net/http"
	"time"
)

// HealthLive handles GET /api/v1/health/live. Process-level liveness only.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]any{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready. Ready means the database
// answers a ping.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := contextWithTimeout(r, 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, errCodeUpstreamUnavailable, "database not ready", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{"status": "ready"}, start)
}
