// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package taste

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/reelcircle/reelcircle/internal/logging"
	"github.com/reelcircle/reelcircle/internal/models"
)

// --- Test doubles ---

type mockRatings struct {
	userRatings  map[int64][]models.Rating
	titleRatings map[int64][]models.Rating
	err          error
	userCalls    int
}

func (m *mockRatings) UserRatings(_ context.Context, userID int64) ([]models.Rating, error) {
	m.userCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.userRatings[userID], nil
}

func (m *mockRatings) TitleRatings(_ context.Context, titleID int64) ([]models.Rating, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.titleRatings[titleID], nil
}

type mockCatalog struct {
	titles map[int64]models.Title
	err    error
}

func (m *mockCatalog) TitlesByID(_ context.Context, ids []int64) (map[int64]models.Title, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[int64]models.Title, len(ids))
	for _, id := range ids {
		if t, ok := m.titles[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func testBuilder(ratings *mockRatings, catalog *mockCatalog) *Builder {
	return NewBuilder(DefaultConfig(), ratings, catalog, logging.NewTestLogger(io.Discard))
}

func ratedAt(daysAgo int) time.Time {
	return time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour)
}

// --- Tests ---

func TestVectorFor_EmptyForUnratedUser(t *testing.T) {
	t.Parallel()

	b := testBuilder(&mockRatings{}, &mockCatalog{})

	vec, err := b.VectorFor(context.Background(), 1)
	if err != nil {
		t.Fatalf("VectorFor() error: %v", err)
	}
	if !vec.Empty() {
		t.Errorf("vector for unrated user not empty: %+v", vec)
	}
}

func TestVectorFor_WeightsSumToOnePerGroup(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {
			{UserID: 1, TitleID: 10, Score: 90, RatedAt: ratedAt(5)},
			{UserID: 1, TitleID: 11, Score: 40, RatedAt: ratedAt(10)},
		},
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 1999, Genres: []string{"Action", "Sci-Fi"}},
		11: {ID: 11, Year: 2005, Genres: []string{"Drama"}},
	}}

	b := testBuilder(ratings, catalog)
	vec, err := b.VectorFor(context.Background(), 1)
	if err != nil {
		t.Fatalf("VectorFor() error: %v", err)
	}

	if vec.Count != 2 {
		t.Errorf("Count = %d, want 2", vec.Count)
	}
	if vec.MeanScore != 65 {
		t.Errorf("MeanScore = %f, want 65", vec.MeanScore)
	}

	var genreSum, decadeSum float64
	for k, w := range vec.Weights {
		switch {
		case strings.HasPrefix(k, "g:"):
			genreSum += w
		case strings.HasPrefix(k, "d:"):
			decadeSum += w
		}
	}
	if math.Abs(genreSum-1.0) > 1e-9 {
		t.Errorf("genre weights sum = %f, want 1", genreSum)
	}
	if math.Abs(decadeSum-1.0) > 1e-9 {
		t.Errorf("decade weights sum = %f, want 1", decadeSum)
	}

	// The 90-rated action title must outweigh the 40-rated drama.
	if vec.Weights["g:action"] <= vec.Weights["g:drama"] {
		t.Errorf("g:action (%f) should outweigh g:drama (%f)",
			vec.Weights["g:action"], vec.Weights["g:drama"])
	}
	if _, ok := vec.Weights["d:1990"]; !ok {
		t.Error("decade feature d:1990 missing")
	}
}

func TestVectorFor_CachesWithinTTL(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {{UserID: 1, TitleID: 10, Score: 80, RatedAt: ratedAt(1)}},
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 2010, Genres: []string{"Comedy"}},
	}}

	b := testBuilder(ratings, catalog)
	ctx := context.Background()

	if _, err := b.VectorFor(ctx, 1); err != nil {
		t.Fatalf("first VectorFor() error: %v", err)
	}
	if _, err := b.VectorFor(ctx, 1); err != nil {
		t.Fatalf("second VectorFor() error: %v", err)
	}

	if ratings.userCalls != 1 {
		t.Errorf("store queried %d times, want 1 (snapshot cache)", ratings.userCalls)
	}
}

func TestVectorFor_InvalidateForcesRebuild(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {{UserID: 1, TitleID: 10, Score: 80, RatedAt: ratedAt(1)}},
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 2010, Genres: []string{"Comedy"}},
	}}

	b := testBuilder(ratings, catalog)
	ctx := context.Background()

	if _, err := b.VectorFor(ctx, 1); err != nil {
		t.Fatalf("VectorFor() error: %v", err)
	}
	b.Invalidate(1)
	if _, err := b.VectorFor(ctx, 1); err != nil {
		t.Fatalf("VectorFor() after invalidate error: %v", err)
	}

	if ratings.userCalls != 2 {
		t.Errorf("store queried %d times, want 2 after invalidate", ratings.userCalls)
	}
}

func TestVectorFor_ServesStaleOnBuildFailure(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {{UserID: 1, TitleID: 10, Score: 80, RatedAt: ratedAt(1)}},
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 2010, Genres: []string{"Comedy"}},
	}}

	b := testBuilder(ratings, catalog)
	ctx := context.Background()

	vec, err := b.VectorFor(ctx, 1)
	if err != nil {
		t.Fatalf("VectorFor() error: %v", err)
	}

	// Expire the snapshot and break the store: the stale vector survives.
	b.Invalidate(1)
	if err := b.Rebuild(ctx, 1); err != nil {
		t.Fatalf("Rebuild() error: %v", err)
	}
	b.mu.Lock()
	b.snapshots[1].vec.BuiltAt = time.Now().Add(-time.Hour)
	b.mu.Unlock()
	ratings.err = errors.New("store down")

	got, err := b.VectorFor(ctx, 1)
	if err != nil {
		t.Fatalf("VectorFor() with broken store error: %v", err)
	}
	if got.Count != vec.Count {
		t.Errorf("stale vector Count = %d, want %d", got.Count, vec.Count)
	}
}

func TestGroupVector_MeanOverRatedMembersOnly(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {{UserID: 1, TitleID: 10, Score: 100, RatedAt: ratedAt(1)}},
		2: {{UserID: 2, TitleID: 11, Score: 100, RatedAt: ratedAt(1)}},
		// user 3 has no ratings
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 1990, Genres: []string{"Action"}},
		11: {ID: 11, Year: 1990, Genres: []string{"Drama"}},
	}}

	b := testBuilder(ratings, catalog)
	vec, err := b.GroupVector(context.Background(), []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("GroupVector() error: %v", err)
	}

	if vec.Empty() {
		t.Fatal("group vector empty despite rated members")
	}
	// Each member's sole genre carries full weight; the mean over the two
	// rated members must not be diluted by the unrated third.
	if math.Abs(vec.Weights["g:action"]-0.5) > 1e-9 {
		t.Errorf("g:action = %f, want 0.5", vec.Weights["g:action"])
	}
	if math.Abs(vec.Weights["g:drama"]-0.5) > 1e-9 {
		t.Errorf("g:drama = %f, want 0.5", vec.Weights["g:drama"])
	}
	// d:1990 appears in both member vectors at full weight: mean stays 1.
	if math.Abs(vec.Weights["d:1990"]-1.0) > 1e-9 {
		t.Errorf("d:1990 = %f, want 1", vec.Weights["d:1990"])
	}
}

func TestGroupVector_AllUnratedIsEmpty(t *testing.T) {
	t.Parallel()

	b := testBuilder(&mockRatings{}, &mockCatalog{})
	vec, err := b.GroupVector(context.Background(), []int64{7, 8})
	if err != nil {
		t.Fatalf("GroupVector() error: %v", err)
	}
	if !vec.Empty() {
		t.Errorf("group vector for unrated members not empty: %+v", vec)
	}
}

func TestVector_Match(t *testing.T) {
	t.Parallel()

	vec := Vector{
		Weights: map[string]float64{"g:action": 0.5, "d:1990": 0.5},
		Count:   4,
	}
	matching := models.Title{Year: 1994, Genres: []string{"Action"}}
	disjoint := models.Title{Year: 2021, Genres: []string{"Romance"}}

	if got := vec.Match(&matching); got <= 0 {
		t.Errorf("Match(matching title) = %f, want > 0", got)
	}
	if got := vec.Match(&disjoint); got != 0 {
		t.Errorf("Match(disjoint title) = %f, want 0", got)
	}

	empty := Vector{}
	if got := empty.Match(&matching); got != 0 {
		t.Errorf("empty vector Match = %f, want 0", got)
	}
}

func TestRecentGenres_WindowBound(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {
			{UserID: 1, TitleID: 10, Score: 80, RatedAt: ratedAt(5)},
			{UserID: 1, TitleID: 11, Score: 80, RatedAt: ratedAt(400)},
		},
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 2020, Genres: []string{"Horror"}},
		11: {ID: 11, Year: 2001, Genres: []string{"Western"}},
	}}

	b := testBuilder(ratings, catalog)
	recent, err := b.RecentGenres(context.Background(), 1)
	if err != nil {
		t.Fatalf("RecentGenres() error: %v", err)
	}

	if _, ok := recent["horror"]; !ok {
		t.Error("recently rated genre horror missing")
	}
	if _, ok := recent["western"]; ok {
		t.Error("genre rated outside window should not be recent")
	}
}

func TestSignatureFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		scores            []float64
		wantControversial bool
		wantUnanimous     bool
	}{
		{
			name:              "no ratings",
			scores:            nil,
			wantControversial: false,
			wantUnanimous:     false,
		},
		{
			name:              "polarized scores are controversial",
			scores:            []float64{5, 95, 10, 90},
			wantControversial: true,
			wantUnanimous:     false,
		},
		{
			name:              "everyone loves it",
			scores:            []float64{85, 92, 88},
			wantControversial: false,
			wantUnanimous:     true,
		},
		{
			name:              "two ratings suffice for unanimous",
			scores:            []float64{81, 99},
			wantControversial: false,
			wantUnanimous:     true,
		},
		{
			name:              "single high rating is not unanimous",
			scores:            []float64{95},
			wantControversial: false,
			wantUnanimous:     false,
		},
		{
			name:              "two polarized ratings not controversial",
			scores:            []float64{5, 95},
			wantControversial: false,
			wantUnanimous:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			titleRatings := make([]models.Rating, 0, len(tt.scores))
			for i, s := range tt.scores {
				titleRatings = append(titleRatings, models.Rating{
					UserID: int64(i + 1), TitleID: 42, Score: s, RatedAt: ratedAt(i),
				})
			}
			b := testBuilder(&mockRatings{
				titleRatings: map[int64][]models.Rating{42: titleRatings},
			}, &mockCatalog{})

			sig, err := b.SignatureFor(context.Background(), 42)
			if err != nil {
				t.Fatalf("SignatureFor() error: %v", err)
			}
			if sig.Count != len(tt.scores) {
				t.Errorf("Count = %d, want %d", sig.Count, len(tt.scores))
			}
			if sig.Controversial != tt.wantControversial {
				t.Errorf("Controversial = %v, want %v", sig.Controversial, tt.wantControversial)
			}
			if sig.UnanimousFavorite != tt.wantUnanimous {
				t.Errorf("UnanimousFavorite = %v, want %v", sig.UnanimousFavorite, tt.wantUnanimous)
			}
		})
	}
}

func TestBuild_ContextCancellation(t *testing.T) {
	t.Parallel()

	ratings := &mockRatings{userRatings: map[int64][]models.Rating{
		1: {{UserID: 1, TitleID: 10, Score: 80, RatedAt: ratedAt(1)}},
	}}
	catalog := &mockCatalog{titles: map[int64]models.Title{
		10: {ID: 10, Year: 2010, Genres: []string{"Comedy"}},
	}}

	b := testBuilder(ratings, catalog)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Rebuild(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("Rebuild() with cancelled ctx = %v, want context.Canceled", err)
	}
}
