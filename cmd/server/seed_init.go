// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package main

import (
	"context"

	"github.com/reelcircle/reelcircle/internal/guide"
	"github.com/reelcircle/reelcircle/internal/mood"
	"github.com/reelcircle/reelcircle/internal/store"
)

// seedDevData loads the development dataset into every store: the DuckDB
// catalog plus guide entries and mood scores for the seeded titles.
func seedDevData(ctx context.Context, db *store.DB, guideStore *guide.Store, moodProvider *mood.Provider) error {
	if err := db.SeedDevData(ctx); err != nil {
		return err
	}

	entries := []guide.Entry{
		{TitleID: 101, Severities: map[guide.Category]guide.Severity{
			guide.CategoryViolence: guide.SeverityModerate,
			guide.CategoryLanguage: guide.SeverityMild,
		}},
		{TitleID: 103, Severities: map[guide.Category]guide.Severity{
			guide.CategoryLanguage: guide.SeverityNone,
		}},
		{TitleID: 104, Severities: map[guide.Category]guide.Severity{
			guide.CategoryViolence:   guide.SeveritySevere,
			guide.CategorySexNudity:  guide.SeverityMild,
			guide.CategorySubstances: guide.SeverityModerate,
		}},
	}
	for _, e := range entries {
		if err := guideStore.Put(ctx, e); err != nil {
			return err
		}
	}

	moods := map[int64]map[string]float64{
		101: {"intense": 0.9, "cozy": 0.1, "epic": 0.7},
		102: {"thoughtful": 0.9, "intense": 0.4, "epic": 0.6},
		103: {"romantic": 0.85, "cozy": 0.8, "scary": 0.0},
		104: {"scary": 0.95, "intense": 0.8, "cozy": 0.05},
		105: {"thoughtful": 0.7, "intense": 0.5},
		106: {"funny": 0.9, "cozy": 0.95, "uplifting": 0.8},
	}
	for titleID, scores := range moods {
		if err := moodProvider.PutBatch(ctx, titleID, scores); err != nil {
			return err
		}
	}
	return nil
}
