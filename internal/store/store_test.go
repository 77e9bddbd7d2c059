// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package store

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/reelcircle/reelcircle/internal/config"
	"github.com/reelcircle/reelcircle/internal/logging"
	"github.com/reelcircle/reelcircle/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: "", MaxMemory: "512MB", Threads: 2},
		logging.NewTestLogger(io.Discard))
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRatings_UpsertAndQuery(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := models.Rating{UserID: 1, TitleID: 10, Score: 60, RatedAt: time.Now().UTC().Add(-time.Hour)}
	if err := db.UpsertRating(ctx, first); err != nil {
		t.Fatalf("UpsertRating() error: %v", err)
	}

	// Re-rating the same title replaces, never duplicates.
	second := first
	second.Score = 90
	second.RatedAt = time.Now().UTC()
	if err := db.UpsertRating(ctx, second); err != nil {
		t.Fatalf("UpsertRating() re-rate error: %v", err)
	}

	got, err := db.UserRatings(ctx, 1)
	if err != nil {
		t.Fatalf("UserRatings() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(ratings) = %d, want 1 after re-rate", len(got))
	}
	if got[0].Score != 90 {
		t.Errorf("Score = %f, want 90", got[0].Score)
	}

	byTitle, err := db.TitleRatings(ctx, 10)
	if err != nil {
		t.Fatalf("TitleRatings() error: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].UserID != 1 {
		t.Errorf("TitleRatings = %+v, want single rating by user 1", byTitle)
	}

	ids, err := db.RatedTitleIDs(ctx, 1)
	if err != nil {
		t.Fatalf("RatedTitleIDs() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 10 {
		t.Errorf("RatedTitleIDs = %v, want [10]", ids)
	}
}

func TestActiveRaterIDs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ratings := []models.Rating{
		{UserID: 1, TitleID: 10, Score: 80, RatedAt: now.Add(-time.Hour)},
		{UserID: 1, TitleID: 11, Score: 70, RatedAt: now.Add(-2 * time.Hour)},
		{UserID: 2, TitleID: 10, Score: 50, RatedAt: now.AddDate(0, 0, -30)},
		{UserID: 3, TitleID: 12, Score: 95, RatedAt: now.Add(-time.Minute)},
	}
	for _, r := range ratings {
		if err := db.UpsertRating(ctx, r); err != nil {
			t.Fatalf("UpsertRating() error: %v", err)
		}
	}

	ids, err := db.ActiveRaterIDs(ctx, now.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("ActiveRaterIDs() error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("ActiveRaterIDs = %v, want [1 3]", ids)
	}

	ids, err = db.ActiveRaterIDs(ctx, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ActiveRaterIDs() future cutoff error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ActiveRaterIDs = %v, want none past a future cutoff", ids)
	}
}

func TestCandidates_PushdownFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	titles := []models.Title{
		{ID: 1, Name: "Short Old Movie", MediaType: models.MediaTypeMovie, Year: 1985, RuntimeMinutes: 90, ContentRating: "PG", Genres: []string{"Comedy"}, ProviderIDs: []string{"a"}},
		{ID: 2, Name: "Long New Movie", MediaType: models.MediaTypeMovie, Year: 2022, RuntimeMinutes: 180, ContentRating: "R", Genres: []string{"Drama"}, ProviderIDs: []string{"b"}},
		{ID: 3, Name: "Recent Series", MediaType: models.MediaTypeSeries, Year: 2021, RuntimeMinutes: 45, ContentRating: "PG-13", Genres: []string{"Mystery"}, ProviderIDs: []string{"a", "b"}},
		{ID: 4, Name: "Mid Movie", MediaType: models.MediaTypeMovie, Year: 2010, RuntimeMinutes: 110, ContentRating: "PG-13", Genres: []string{"Action"}, ProviderIDs: []string{"b"}},
	}
	for _, title := range titles {
		if err := db.UpsertTitle(ctx, title); err != nil {
			t.Fatalf("UpsertTitle(%d) error: %v", title.ID, err)
		}
	}

	tests := []struct {
		name    string
		query   CandidateQuery
		wantIDs []int64
	}{
		{
			name:    "unconstrained returns all in id order",
			query:   CandidateQuery{Limit: 10},
			wantIDs: []int64{1, 2, 3, 4},
		},
		{
			name:    "media type filter",
			query:   CandidateQuery{MediaType: models.MediaTypeSeries, Limit: 10},
			wantIDs: []int64{3},
		},
		{
			name:    "runtime ceiling",
			query:   CandidateQuery{MaxRuntimeMinutes: 100, Limit: 10},
			wantIDs: []int64{1, 3},
		},
		{
			name:    "era window",
			query:   CandidateQuery{StartYear: 2000, EndYear: 2021, Limit: 10},
			wantIDs: []int64{3, 4},
		},
		{
			name:    "content rating whitelist",
			query:   CandidateQuery{ContentRatings: []string{"PG", "PG-13"}, Limit: 10},
			wantIDs: []int64{1, 3, 4},
		},
		{
			name:    "provider availability",
			query:   CandidateQuery{ProviderIDs: []string{"a"}, Limit: 10},
			wantIDs: []int64{1, 3},
		},
		{
			name:    "limit caps results",
			query:   CandidateQuery{Limit: 2},
			wantIDs: []int64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Candidates(ctx, tt.query)
			if err != nil {
				t.Fatalf("Candidates() error: %v", err)
			}
			ids := make([]int64, len(got))
			for i, title := range got {
				ids[i] = title.ID
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			for i := range ids {
				if ids[i] != tt.wantIDs[i] {
					t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
				}
			}
		})
	}
}

func TestTitlesByID_MissingIDsAbsent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.UpsertTitle(ctx, models.Title{
		ID: 7, Name: "Exists", MediaType: models.MediaTypeMovie, Year: 2000,
		Genres: []string{"Drama", "History"},
	})
	if err != nil {
		t.Fatalf("UpsertTitle() error: %v", err)
	}

	got, err := db.TitlesByID(ctx, []int64{7, 999})
	if err != nil {
		t.Fatalf("TitlesByID() error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[7].Name != "Exists" {
		t.Errorf("title name = %q, want %q", got[7].Name, "Exists")
	}
	if len(got[7].Genres) != 2 {
		t.Errorf("genres = %v, want 2 entries", got[7].Genres)
	}
}

func TestCreditsForTitles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	credits := []models.Credit{
		{TitleID: 1, PersonID: 100, PersonName: "Director", Role: models.RoleDirector},
		{TitleID: 1, PersonID: 101, PersonName: "Lead", Role: models.RoleActor, Billing: 1},
		{TitleID: 2, PersonID: 100, PersonName: "Director", Role: models.RoleDirector},
	}
	for _, c := range credits {
		if err := db.UpsertCredit(ctx, c); err != nil {
			t.Fatalf("UpsertCredit() error: %v", err)
		}
	}

	got, err := db.CreditsForTitles(ctx, []int64{1})
	if err != nil {
		t.Fatalf("CreditsForTitles() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(credits) = %d, want 2", len(got))
	}

	empty, err := db.CreditsForTitles(ctx, nil)
	if err != nil {
		t.Fatalf("CreditsForTitles(nil) error: %v", err)
	}
	if empty != nil {
		t.Errorf("CreditsForTitles(nil) = %v, want nil", empty)
	}
}

func TestDismissed_Lifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.Dismiss(ctx, 1, 50); err != nil {
		t.Fatalf("Dismiss() error: %v", err)
	}
	// Repeat dismissal is a no-op, not an error.
	if err := db.Dismiss(ctx, 1, 50); err != nil {
		t.Fatalf("repeat Dismiss() error: %v", err)
	}

	ids, err := db.DismissedTitleIDs(ctx, 1)
	if err != nil {
		t.Fatalf("DismissedTitleIDs() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 50 {
		t.Errorf("DismissedTitleIDs = %v, want [50]", ids)
	}

	records, err := db.DismissedTitles(ctx, 1)
	if err != nil {
		t.Fatalf("DismissedTitles() error: %v", err)
	}
	if len(records) != 1 || records[0].TitleID != 50 {
		t.Errorf("DismissedTitles = %+v, want single record for title 50", records)
	}

	if err := db.Undismiss(ctx, 1, 50); err != nil {
		t.Fatalf("Undismiss() error: %v", err)
	}
	ids, err = db.DismissedTitleIDs(ctx, 1)
	if err != nil {
		t.Fatalf("DismissedTitleIDs() after undismiss error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("DismissedTitleIDs after undismiss = %v, want empty", ids)
	}

	// Undismissing an absent record is a no-op.
	if err := db.Undismiss(ctx, 1, 50); err != nil {
		t.Fatalf("Undismiss(absent) error: %v", err)
	}
}

func TestSeedDevData_Idempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SeedDevData(ctx); err != nil {
		t.Fatalf("SeedDevData() error: %v", err)
	}
	if err := db.SeedDevData(ctx); err != nil {
		t.Fatalf("second SeedDevData() error: %v", err)
	}

	candidates, err := db.Candidates(ctx, CandidateQuery{Limit: 100})
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	if len(candidates) != 6 {
		t.Errorf("len(candidates) = %d, want 6 seeded titles", len(candidates))
	}
}
