// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelcircle/reelcircle/internal/metrics"
)

const signalTimeout = 10 * time.Second

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// TasteVector handles GET /api/v1/users/{userID}/taste.
func (h *Handlers) TasteVector(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	vec, err := h.taste.VectorFor(ctx, userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to load taste vector", err)
		return
	}
	respondData(w, r, http.StatusOK, vec, start)
}

// GroupTaste handles GET /api/v1/taste/group?member_ids=1,2,3. It returns
// the blended vector the engine scores group picks against.
func (h *Handlers) GroupTaste(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	memberIDs, err := parseMemberIDs(r.URL.Query().Get("member_ids"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, err.Error(), nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	vec, err := h.taste.GroupVector(ctx, memberIDs)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to blend group taste", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{
		"member_ids": memberIDs,
		"vector":     vec,
	}, start)
}

func parseMemberIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, errors.New("member_ids is required")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid member id %q", p)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate member id %d", id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) < 2 {
		return nil, errors.New("member_ids needs at least two members")
	}
	return ids, nil
}

// RebuildTaste handles POST /api/v1/users/{userID}/taste/rebuild.
func (h *Handlers) RebuildTaste(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	err := h.taste.Rebuild(ctx, userID)
	metrics.RecordSnapshotRebuild("taste", "api", err)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to rebuild taste vector", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{"user_id": userID, "rebuilt": true}, start)
}

// TopCrew handles GET /api/v1/users/{userID}/crew.
func (h *Handlers) TopCrew(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	affinities, err := h.crew.TopAffinities(ctx, userID, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to load crew affinities", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{
		"user_id":    userID,
		"affinities": affinities,
		"count":      len(affinities),
	}, start)
}

// RebuildCrew handles POST /api/v1/users/{userID}/crew/rebuild.
func (h *Handlers) RebuildCrew(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	err := h.crew.Rebuild(ctx, userID)
	metrics.RecordSnapshotRebuild("crew", "api", err)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to rebuild crew affinities", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{"user_id": userID, "rebuilt": true}, start)
}

// TitleSignature handles GET /api/v1/titles/{titleID}/signature.
func (h *Handlers) TitleSignature(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	titleID, ok := urlID(r, "titleID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid title id", nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	sig, err := h.taste.SignatureFor(ctx, titleID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to compute title signature", err)
		return
	}
	respondData(w, r, http.StatusOK, sig, start)
}
