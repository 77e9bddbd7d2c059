// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelcircle/reelcircle/internal/metrics"
)

// RaterSource lists users whose ratings changed since a point in time.
type RaterSource interface {
	ActiveRaterIDs(ctx context.Context, since time.Time) ([]int64, error)
}

// ProfileRebuilder refreshes one user's derived profile.
type ProfileRebuilder interface {
	Rebuild(ctx context.Context, userID int64) error
}

// RebuildServiceConfig holds settings for the periodic refresher.
type RebuildServiceConfig struct {
	// Interval is the period between refresh sweeps.
	Interval time.Duration

	// Lookback bounds which users a sweep considers. Users with no
	// ratings in this window keep their cached or lazily built profiles.
	Lookback time.Duration

	// RebuildTimeout bounds a single user's rebuild.
	RebuildTimeout time.Duration
}

// RebuildService periodically rebuilds taste and crew profiles for
// recently active users. Event-driven rebuilds cover the common path;
// this sweep catches users whose events were throttled or lost.
type RebuildService struct {
	source RaterSource
	taste  ProfileRebuilder
	crew   ProfileRebuilder
	config RebuildServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRebuildService creates the periodic profile refresher.
func NewRebuildService(source RaterSource, taste, crew ProfileRebuilder, cfg RebuildServiceConfig, logger zerolog.Logger) *RebuildService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 2 * cfg.Interval
	}
	if cfg.RebuildTimeout <= 0 {
		cfg.RebuildTimeout = 30 * time.Second
	}
	return &RebuildService{
		source: source,
		taste:  taste,
		crew:   crew,
		config: cfg,
		logger: logger.With().Str("service", "rebuild").Logger(),
		name:   "rebuild-service",
	}
}

// Serve implements suture.Service. It sweeps on a ticker until the
// context is canceled. A failed sweep is logged and retried on the next
// tick rather than crashing the service.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Dur("lookback", s.config.Lookback).
		Msg("profile rebuild service starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("profile rebuild service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("profile rebuild sweep failed")
			}
		}
	}
}

func (s *RebuildService) sweep(ctx context.Context) error {
	since := time.Now().Add(-s.config.Lookback)
	userIDs, err := s.source.ActiveRaterIDs(ctx, since)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		s.logger.Debug().Msg("no active raters, skipping sweep")
		return nil
	}

	start := time.Now()
	var failed int
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.rebuildUser(ctx, userID) {
			failed++
		}
	}

	s.logger.Info().
		Int("users", len(userIDs)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("profile rebuild sweep complete")
	return nil
}

// rebuildUser refreshes both profiles for one user, reporting false if
// either rebuild failed. Failures do not abort the sweep.
func (s *RebuildService) rebuildUser(ctx context.Context, userID int64) bool {
	rebuildCtx, cancel := context.WithTimeout(ctx, s.config.RebuildTimeout)
	defer cancel()

	ok := true
	tasteErr := s.taste.Rebuild(rebuildCtx, userID)
	metrics.RecordSnapshotRebuild("taste", "periodic", tasteErr)
	if tasteErr != nil {
		s.logger.Warn().Err(tasteErr).Int64("user_id", userID).Msg("periodic taste rebuild failed")
		ok = false
	}

	crewErr := s.crew.Rebuild(rebuildCtx, userID)
	metrics.RecordSnapshotRebuild("crew", "periodic", crewErr)
	if crewErr != nil {
		s.logger.Warn().Err(crewErr).Int64("user_id", userID).Msg("periodic crew rebuild failed")
		ok = false
	}
	return ok
}

// String identifies the service in supervisor logs.
func (s *RebuildService) String() string {
	return s.name
}
