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
	"github.com/reelcircle/reelcircle/internal/models"
)

// RatingRequest is the POST /ratings body. Score is on the 0-100 scale.
type RatingRequest struct {
	TitleID int64   `json:"title_id" validate:"required,gt=0"`
	Score   float64 `json:"score" validate:"gte=0,lte=100"`
	Comment string  `json:"comment" validate:"max=2000"`
}

// UpsertRating handles POST /api/v1/users/{userID}/ratings. Re-rating a
// title replaces the previous score. Derived taste and crew snapshots are
// invalidated so the next pick reflects the new rating.
func (h *Handlers) UpsertRating(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, ok := urlID(r, "userID")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errCodeInvalidRequest, "invalid user id", nil)
		return
	}

	var req RatingRequest
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

	rating := models.Rating{
		UserID:  userID,
		TitleID: req.TitleID,
		Score:   req.Score,
		Comment: req.Comment,
		RatedAt: time.Now().UTC(),
	}
	if err := h.store.UpsertRating(ctx, rating); err != nil {
		respondError(w, r, http.StatusInternalServerError, errCodeInternal, "failed to save rating", err)
		return
	}

	h.taste.Invalidate(userID)
	h.crew.Invalidate(userID)

	// Best effort: the local invalidation above already covers this
	// instance, events fan the change out to the others.
	if h.publisher != nil {
		if err := h.publisher.PublishRating(ctx, rating); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("failed to publish rating event")
		}
	}

	respondData(w, r, http.StatusCreated, rating, start)
}
