// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package pick

import (
	"fmt"
)

// Weights are the composite-score weights for one request mode.
// The composite is:
//
//	score = Taste·tasteMatch + Crew·crewAffinity + Mood·moodFit +
//	        Popularity·popularityPrior − Penalty·seenSimilarPenalty
type Weights struct {
	Taste      float64
	Crew       float64
	Mood       float64
	Popularity float64
	Penalty    float64
}

// Normalize scales the four positive signal weights to sum to 1. The
// penalty weight is a deduction, not a share, and stays untouched. All-zero
// weights normalize to equal shares.
func (w Weights) Normalize() Weights {
	sum := w.Taste + w.Crew + w.Mood + w.Popularity
	if sum <= 0 {
		return Weights{Taste: 0.25, Crew: 0.25, Mood: 0.25, Popularity: 0.25, Penalty: w.Penalty}
	}
	return Weights{
		Taste:      w.Taste / sum,
		Crew:       w.Crew / sum,
		Mood:       w.Mood / sum,
		Popularity: w.Popularity / sum,
		Penalty:    w.Penalty,
	}
}

// Config tunes the engine.
type Config struct {
	// SoloWeights and GroupWeights are the mode-specific composite weights.
	SoloWeights  Weights
	GroupWeights Weights
	// DefaultPageSize applies when the request omits a page size.
	DefaultPageSize int
	// MaxPageSize caps the requested page size.
	MaxPageSize int
	// OverfetchFactor multiplies the needed result count when querying
	// candidates so hard filters still leave a full page.
	OverfetchFactor int
	// MaxCandidates caps the catalog slice regardless of paging depth.
	MaxCandidates int
	// MaxGroupSize caps group member count.
	MaxGroupSize int
	// NeutralCrewAffinity substitutes for unknown crew affinity. Unknown is
	// never treated as zero.
	NeutralCrewAffinity float64
	// PopularityCap is the rating count treated as maximum popularity.
	PopularityCap int
	// ScoreWorkers bounds concurrent candidate scoring.
	ScoreWorkers int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SoloWeights:         Weights{Taste: 0.40, Crew: 0.20, Mood: 0.20, Popularity: 0.20, Penalty: 0.30},
		GroupWeights:        Weights{Taste: 0.35, Crew: 0.15, Mood: 0.25, Popularity: 0.25, Penalty: 0.30},
		DefaultPageSize:     10,
		MaxPageSize:         50,
		OverfetchFactor:     5,
		MaxCandidates:       1000,
		MaxGroupSize:        8,
		NeutralCrewAffinity: 0.5,
		PopularityCap:       500,
		ScoreWorkers:        8,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default page size must be positive, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("max page size (%d) must be >= default page size (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.OverfetchFactor < 1 {
		return fmt.Errorf("overfetch factor must be >= 1, got %d", c.OverfetchFactor)
	}
	if c.MaxCandidates < c.MaxPageSize {
		return fmt.Errorf("max candidates (%d) must be >= max page size (%d)", c.MaxCandidates, c.MaxPageSize)
	}
	if c.MaxGroupSize < 2 {
		return fmt.Errorf("max group size must be >= 2, got %d", c.MaxGroupSize)
	}
	if c.NeutralCrewAffinity < 0 || c.NeutralCrewAffinity > 1 {
		return fmt.Errorf("neutral crew affinity must be in [0,1], got %f", c.NeutralCrewAffinity)
	}
	if c.PopularityCap < 1 {
		return fmt.Errorf("popularity cap must be >= 1, got %d", c.PopularityCap)
	}
	if c.ScoreWorkers < 1 {
		return fmt.Errorf("score workers must be >= 1, got %d", c.ScoreWorkers)
	}
	for _, w := range []struct {
		name string
		val  Weights
	}{
		{"solo", c.SoloWeights},
		{"group", c.GroupWeights},
	} {
		if w.val.Taste < 0 || w.val.Crew < 0 || w.val.Mood < 0 || w.val.Popularity < 0 || w.val.Penalty < 0 {
			return fmt.Errorf("%s weights must be non-negative", w.name)
		}
	}
	return nil
}
