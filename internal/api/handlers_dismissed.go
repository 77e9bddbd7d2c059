// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/reelcircle/reelcircle/internal/logging"
)

// DismissRequest is the POST /dismissed body.
type DismissRequest struct {
	TitleID int64 `json:"title_id" validate:"required,gt=0"`
}

// ListDismissed handles GET /api/v1/users/{userID}/dismissed.
func (h *Handlers) ListDismissed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	dismissed, err := h.store.DismissedTitles(ctx, userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to list dismissed titles", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{
		"user_id":   userID,
		"dismissed": dismissed,
		"count":     len(dismissed),
	}, start)
}

// DismissTitle handles POST /api/v1/users/{userID}/dismissed. Dismissing is
// idempotent; a repeat dismissal succeeds without effect.
func (h *Handlers) DismissTitle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	var req DismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "malformed request body", err)
		return
	}
	if msg := h.validateRequest(&req); msg != "" {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, msg, nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	if err := h.store.Dismiss(ctx, userID, req.TitleID); err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to dismiss title", err)
		return
	}

	if h.publisher != nil {
		if err := h.publisher.PublishDismissal(ctx, userID, req.TitleID); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("failed to publish dismissal event")
		}
	}

	respondData(w, r, http.StatusCreated, map[string]any{
		"user_id":  userID,
		"title_id": req.TitleID,
	}, start)
}

// UndismissTitle handles DELETE /api/v1/users/{userID}/dismissed/{titleID}.
func (h *Handlers) UndismissTitle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}
	titleID, ok := urlID(r, "titleID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid title id", nil)
		return
	}

	ctx, cancel := contextWithTimeout(r, signalTimeout)
	defer cancel()

	if err := h.store.Undismiss(ctx, userID, titleID); err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to undismiss title", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]any{
		"user_id":  userID,
		"title_id": titleID,
	}, start)
}
