// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package mood scores how well a title fits a requested mood.
//
// Scores come from a nightly batch enrichment job and are cached in
// BadgerDB. The provider never fails a pick over missing enrichment: a
// cache miss falls back to a deterministic score computed from the title's
// genre tags, and every score is tagged with its provenance so rankings
// stay explainable.
package mood

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/reelcircle/reelcircle/internal/metrics"
	"github.com/reelcircle/reelcircle/internal/models"
)

// Source tags where a mood score came from.
type Source string

const (
	// SourceComputed is a batch-enriched score from the cache.
	SourceComputed Source = "computed"
	// SourceFallback is a deterministic genre-derived score.
	SourceFallback Source = "fallback"
)

// Score is a mood-fit value in [0,1] with provenance.
type Score struct {
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
}

const keyPrefix = "mood:"

// Provider serves mood scores.
type Provider struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewProvider wraps an open Badger handle. The caller owns the handle's
// lifecycle.
func NewProvider(db *badger.DB, logger zerolog.Logger) *Provider {
	return &Provider{
		db:     db,
		logger: logger.With().Str("component", "mood").Logger(),
	}
}

// ScoreFor returns the title's fit for one mood. Cache hits are tagged
// computed; misses fall back to the deterministic genre score. This never
// returns "no data".
func (p *Provider) ScoreFor(ctx context.Context, title *models.Title, mood string) (Score, error) {
	if err := ctx.Err(); err != nil {
		return Score{}, err
	}

	var raw []byte
	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scoreKey(title.ID, mood))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		value, perr := parseScore(raw)
		if perr != nil {
			// A corrupt cache entry degrades to fallback rather than
			// failing the pick.
			p.logger.Warn().
				Int64("title_id", title.ID).
				Str("mood", mood).
				Err(perr).
				Msg("corrupt mood cache entry, using fallback")
			return Score{Value: fallbackScore(title, mood), Source: SourceFallback}, nil
		}
		metrics.RecordCacheAccess("mood", true)
		return Score{Value: value, Source: SourceComputed}, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		metrics.RecordCacheAccess("mood", false)
		return Score{Value: fallbackScore(title, mood), Source: SourceFallback}, nil
	default:
		return Score{}, fmt.Errorf("mood cache read for title %d: %w", title.ID, err)
	}
}

// FitFor combines multiple requested moods with AND semantics: the minimum
// score across moods. Zero moods yields a zero fit: the mood term drops out
// of every candidate's score identically. The source is computed only when
// every contributing score was computed.
func (p *Provider) FitFor(ctx context.Context, title *models.Title, moods []string) (Score, error) {
	if len(moods) == 0 {
		return Score{Value: 0, Source: SourceFallback}, nil
	}

	result := Score{Value: math.Inf(1), Source: SourceComputed}
	for _, mood := range moods {
		s, err := p.ScoreFor(ctx, title, mood)
		if err != nil {
			return Score{}, err
		}
		if s.Value < result.Value {
			result.Value = s.Value
		}
		if s.Source == SourceFallback {
			result.Source = SourceFallback
		}
	}
	return result, nil
}

// Put stores one enriched score. Values are clamped to [0,1].
func (p *Provider) Put(ctx context.Context, titleID int64, mood string, value float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	err := p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(scoreKey(titleID, mood), fmt.Appendf(nil, "%g", value))
	})
	if err != nil {
		return fmt.Errorf("mood cache write for title %d: %w", titleID, err)
	}
	return nil
}

// PutBatch stores a batch of enriched scores for one title, as delivered by
// the enrichment job.
func (p *Provider) PutBatch(ctx context.Context, titleID int64, scores map[string]float64) error {
	for mood, value := range scores {
		if err := p.Put(ctx, titleID, mood, value); err != nil {
			return err
		}
	}
	return nil
}

func scoreKey(titleID int64, mood string) []byte {
	return fmt.Appendf(nil, "%s%d:%s", keyPrefix, titleID, strings.ToLower(mood))
}

func parseScore(raw []byte) (float64, error) {
	var v float64
	if _, err := fmt.Sscanf(string(raw), "%g", &v); err != nil {
		return 0, err
	}
	if v < 0 || v > 1 || math.IsNaN(v) {
		return 0, fmt.Errorf("score %f out of range", v)
	}
	return v, nil
}
