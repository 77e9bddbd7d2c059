// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package pick

import (
	"math"
	"testing"
)

func TestWeightsNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Weights
	}{
		{"defaults", DefaultConfig().SoloWeights},
		{"uneven", Weights{Taste: 3, Crew: 1, Mood: 0, Popularity: 2, Penalty: 0.4}},
		{"single signal", Weights{Mood: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := tt.in.Normalize()
			sum := got.Taste + got.Crew + got.Mood + got.Popularity
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("normalized sum = %v, want 1", sum)
			}
			if got.Penalty != tt.in.Penalty {
				t.Errorf("Penalty = %v, want untouched %v", got.Penalty, tt.in.Penalty)
			}
		})
	}
}

func TestWeightsNormalizeAllZero(t *testing.T) {
	t.Parallel()

	got := Weights{Penalty: 0.3}.Normalize()
	if got.Taste != 0.25 || got.Crew != 0.25 || got.Mood != 0.25 || got.Popularity != 0.25 {
		t.Errorf("all-zero weights normalized to %+v, want equal shares", got)
	}
	if got.Penalty != 0.3 {
		t.Errorf("Penalty = %v, want 0.3", got.Penalty)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero default page size", func(c *Config) { c.DefaultPageSize = 0 }, true},
		{"max below default", func(c *Config) { c.MaxPageSize = c.DefaultPageSize - 1 }, true},
		{"zero overfetch", func(c *Config) { c.OverfetchFactor = 0 }, true},
		{"max candidates below page", func(c *Config) { c.MaxCandidates = 10 }, true},
		{"group of one", func(c *Config) { c.MaxGroupSize = 1 }, true},
		{"neutral affinity above one", func(c *Config) { c.NeutralCrewAffinity = 1.5 }, true},
		{"zero popularity cap", func(c *Config) { c.PopularityCap = 0 }, true},
		{"zero workers", func(c *Config) { c.ScoreWorkers = 0 }, true},
		{"negative solo weight", func(c *Config) { c.SoloWeights.Taste = -0.1 }, true},
		{"negative group penalty", func(c *Config) { c.GroupWeights.Penalty = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
