// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelcircle/reelcircle/internal/models"
	"github.com/reelcircle/reelcircle/internal/pick"
)

// PickProvider adapts the database to the pick engine's Catalog and
// History interfaces, translating catalog outages (including an open
// circuit breaker) into the engine's retryable error class.
type PickProvider struct {
	db *DB
}

// NewPickProvider wraps a database for the pick engine.
func NewPickProvider(db *DB) *PickProvider {
	return &PickProvider{db: db}
}

// Candidates implements pick.Catalog.
func (p *PickProvider) Candidates(ctx context.Context, q pick.CandidateQuery) ([]models.Title, error) {
	titles, err := p.db.Candidates(ctx, CandidateQuery{
		MediaType:         q.MediaType,
		MaxRuntimeMinutes: q.MaxRuntimeMinutes,
		StartYear:         q.StartYear,
		EndYear:           q.EndYear,
		ContentRatings:    q.ContentRatings,
		ProviderIDs:       q.ProviderIDs,
		Limit:             q.Limit,
	})
	if err != nil {
		return nil, classify(err)
	}
	return titles, nil
}

// CreditsForTitles implements pick.Catalog.
func (p *PickProvider) CreditsForTitles(ctx context.Context, titleIDs []int64) ([]models.Credit, error) {
	credits, err := p.db.CreditsForTitles(ctx, titleIDs)
	if err != nil {
		return nil, classify(err)
	}
	return credits, nil
}

// RatedTitleIDs implements pick.History.
func (p *PickProvider) RatedTitleIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := p.db.RatedTitleIDs(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// DismissedTitleIDs implements pick.History.
func (p *PickProvider) DismissedTitleIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids, err := p.db.DismissedTitleIDs(ctx, userID)
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrCatalogUnavailable) {
		return fmt.Errorf("%w: %w", pick.ErrUpstreamUnavailable, err)
	}
	return err
}
