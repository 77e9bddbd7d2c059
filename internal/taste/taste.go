// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package taste derives per-user taste vectors and per-title rating
// signatures from the platform's rating history.
//
// A taste vector is a normalized weight distribution over genre and
// release-decade features, weighted by rating score: highly rated titles
// pull their features up, weakly rated titles barely register. Vectors are
// built lazily, cached as immutable snapshots, and replaced atomically so
// concurrent pick requests never observe a half-built profile.
package taste

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelcircle/reelcircle/internal/metrics"
	"github.com/reelcircle/reelcircle/internal/models"
)

// Feature key prefixes. Genres and decades share one vector space so a
// single cosine covers both.
const (
	genrePrefix  = "g:"
	decadePrefix = "d:"
)

// Vector is a user's taste profile. Genre weights and decade weights each
// sum to 1 when Count > 0.
type Vector struct {
	// Weights maps feature keys ("g:<genre>", "d:<decade>") to preference
	// weights normalized within each feature group.
	Weights map[string]float64 `json:"weights"`
	// MeanScore is the user's mean rating score (0-100).
	MeanScore float64 `json:"mean_score"`
	// Count is the number of ratings the vector was built from.
	Count int `json:"count"`
	// BuiltAt is when the vector was computed.
	BuiltAt time.Time `json:"built_at"`
}

// Empty reports whether the vector carries no signal (zero ratings).
func (v *Vector) Empty() bool {
	return v == nil || v.Count == 0
}

// Match returns the cosine similarity in [0,1] between the vector and a
// title's binary feature set. Empty vectors match nothing.
func (v *Vector) Match(title *models.Title) float64 {
	if v.Empty() || len(v.Weights) == 0 {
		return 0
	}

	var dot, titleNorm float64
	for _, g := range title.Genres {
		w := v.Weights[genrePrefix+strings.ToLower(g)]
		dot += w
		titleNorm++
	}
	if d := title.Decade(); d > 0 {
		dot += v.Weights[fmt.Sprintf("%s%d", decadePrefix, d)]
		titleNorm++
	}
	if titleNorm == 0 {
		return 0
	}

	var vecNorm float64
	for _, w := range v.Weights {
		vecNorm += w * w
	}
	if vecNorm == 0 {
		return 0
	}

	return dot / (math.Sqrt(vecNorm) * math.Sqrt(titleNorm))
}

// Signature summarizes how the community rated one title.
type Signature struct {
	TitleID int64 `json:"title_id"`
	// Mean is the average score (0-100).
	Mean float64 `json:"mean"`
	// Count is the number of ratings.
	Count int `json:"count"`
	// StdDev is the score standard deviation.
	StdDev float64 `json:"std_dev"`
	// Controversial is set when scores diverge strongly (high stddev over
	// at least 3 ratings).
	Controversial bool `json:"controversial"`
	// UnanimousFavorite is set when every score clears the favorite floor
	// (at least 2 ratings).
	UnanimousFavorite bool `json:"unanimous_favorite"`
}

// RatingsSource provides the rating history the builder consumes.
type RatingsSource interface {
	// UserRatings returns all ratings by one user.
	UserRatings(ctx context.Context, userID int64) ([]models.Rating, error)
	// TitleRatings returns all ratings for one title.
	TitleRatings(ctx context.Context, titleID int64) ([]models.Rating, error)
}

// CatalogSource resolves title metadata for rated titles.
type CatalogSource interface {
	// TitlesByID returns metadata for the given title ids. Missing ids are
	// absent from the result, not an error.
	TitlesByID(ctx context.Context, ids []int64) (map[int64]models.Title, error)
}

// Config tunes the builder.
type Config struct {
	// SnapshotTTL bounds cached vector staleness before a lazy rebuild.
	SnapshotTTL time.Duration
	// RecentWindow bounds the recently-rated genre set used for the
	// seen-similar penalty.
	RecentWindow time.Duration
	// ControversialStdDev is the stddev threshold for the controversial flag.
	ControversialStdDev float64
	// UnanimousMinScore is the floor every score must clear for the
	// unanimous-favorite flag.
	UnanimousMinScore float64
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SnapshotTTL:         15 * time.Minute,
		RecentWindow:        30 * 24 * time.Hour,
		ControversialStdDev: 25.0,
		UnanimousMinScore:   80.0,
	}
}

// snapshot is an immutable build result. Replaced wholesale, never mutated.
type snapshot struct {
	vec          Vector
	recentGenres map[string]struct{}
}

// Builder computes and caches taste vectors.
type Builder struct {
	cfg     Config
	ratings RatingsSource
	catalog CatalogSource
	logger  zerolog.Logger

	mu        sync.RWMutex
	snapshots map[int64]*snapshot

	// now is injectable for tests.
	now func() time.Time
}

// NewBuilder creates a taste builder.
func NewBuilder(cfg Config, ratings RatingsSource, catalog CatalogSource, logger zerolog.Logger) *Builder {
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultConfig().SnapshotTTL
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = DefaultConfig().RecentWindow
	}
	if cfg.ControversialStdDev <= 0 {
		cfg.ControversialStdDev = DefaultConfig().ControversialStdDev
	}
	if cfg.UnanimousMinScore <= 0 {
		cfg.UnanimousMinScore = DefaultConfig().UnanimousMinScore
	}
	return &Builder{
		cfg:       cfg,
		ratings:   ratings,
		catalog:   catalog,
		logger:    logger.With().Str("component", "taste").Logger(),
		snapshots: make(map[int64]*snapshot),
		now:       time.Now,
	}
}

// VectorFor returns the user's taste vector, rebuilding lazily when the
// cached snapshot is missing or stale. A user with zero ratings gets an
// empty vector, not an error.
func (b *Builder) VectorFor(ctx context.Context, userID int64) (Vector, error) {
	snap, err := b.freshSnapshot(ctx, userID)
	if err != nil {
		return Vector{}, err
	}
	return snap.vec, nil
}

// RecentGenres returns the set of genres the user rated within the recent
// window, lowercased. Used for the seen-similar penalty.
func (b *Builder) RecentGenres(ctx context.Context, userID int64) (map[string]struct{}, error) {
	snap, err := b.freshSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.recentGenres, nil
}

// GroupVector returns the element-wise mean of the members' vectors.
// Members with zero ratings contribute nothing; if no member has a rating
// the result is empty.
func (b *Builder) GroupVector(ctx context.Context, userIDs []int64) (Vector, error) {
	var (
		sum     = make(map[string]float64)
		meanSum float64
		rated   int
		total   int
	)
	for _, id := range userIDs {
		vec, err := b.VectorFor(ctx, id)
		if err != nil {
			return Vector{}, fmt.Errorf("group member %d: %w", id, err)
		}
		if vec.Empty() {
			continue
		}
		rated++
		total += vec.Count
		meanSum += vec.MeanScore
		for k, w := range vec.Weights {
			sum[k] += w
		}
	}
	if rated == 0 {
		return Vector{BuiltAt: b.now()}, nil
	}
	for k := range sum {
		sum[k] /= float64(rated)
	}
	return Vector{
		Weights:   sum,
		MeanScore: meanSum / float64(rated),
		Count:     total,
		BuiltAt:   b.now(),
	}, nil
}

// Rebuild recomputes the user's snapshot and swaps it in. Safe to call
// concurrently and repeatedly; the last completed build wins.
func (b *Builder) Rebuild(ctx context.Context, userID int64) error {
	snap, err := b.build(ctx, userID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.snapshots[userID] = snap
	b.mu.Unlock()

	b.logger.Debug().
		Int64("user_id", userID).
		Int("ratings", snap.vec.Count).
		Int("features", len(snap.vec.Weights)).
		Msg("taste vector rebuilt")
	return nil
}

// Invalidate drops the user's cached snapshot so the next read rebuilds.
func (b *Builder) Invalidate(userID int64) {
	b.mu.Lock()
	delete(b.snapshots, userID)
	b.mu.Unlock()
}

// SignatureFor computes the community rating signature for a title.
// A title with zero ratings yields a zero-valued signature.
func (b *Builder) SignatureFor(ctx context.Context, titleID int64) (Signature, error) {
	ratings, err := b.ratings.TitleRatings(ctx, titleID)
	if err != nil {
		return Signature{}, fmt.Errorf("title ratings for %d: %w", titleID, err)
	}

	sig := Signature{TitleID: titleID, Count: len(ratings)}
	if len(ratings) == 0 {
		return sig, nil
	}

	var sum float64
	for _, r := range ratings {
		sum += r.Score
	}
	sig.Mean = sum / float64(len(ratings))

	var variance float64
	allFavorites := true
	for _, r := range ratings {
		d := r.Score - sig.Mean
		variance += d * d
		if r.Score < b.cfg.UnanimousMinScore {
			allFavorites = false
		}
	}
	sig.StdDev = math.Sqrt(variance / float64(len(ratings)))

	sig.Controversial = sig.Count >= 3 && sig.StdDev > b.cfg.ControversialStdDev
	sig.UnanimousFavorite = sig.Count >= 2 && allFavorites
	return sig, nil
}

// freshSnapshot returns a cached snapshot within TTL, building one otherwise.
func (b *Builder) freshSnapshot(ctx context.Context, userID int64) (*snapshot, error) {
	b.mu.RLock()
	snap, ok := b.snapshots[userID]
	b.mu.RUnlock()

	if ok && b.now().Sub(snap.vec.BuiltAt) < b.cfg.SnapshotTTL {
		metrics.RecordCacheAccess("taste", true)
		return snap, nil
	}
	metrics.RecordCacheAccess("taste", false)

	built, err := b.build(ctx, userID)
	metrics.RecordSnapshotRebuild("taste", "miss", err)
	if err != nil {
		// Serve a stale snapshot over failing when we have one.
		if ok {
			return snap, nil
		}
		return nil, err
	}

	b.mu.Lock()
	b.snapshots[userID] = built
	b.mu.Unlock()
	return built, nil
}

// build computes a snapshot from scratch. Runs without holding the lock so
// readers keep serving the previous snapshot during the build.
func (b *Builder) build(ctx context.Context, userID int64) (*snapshot, error) {
	ratings, err := b.ratings.UserRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user ratings for %d: %w", userID, err)
	}

	snap := &snapshot{
		vec:          Vector{Weights: make(map[string]float64), BuiltAt: b.now()},
		recentGenres: make(map[string]struct{}),
	}
	if len(ratings) == 0 {
		return snap, nil
	}

	ids := make([]int64, 0, len(ratings))
	for _, r := range ratings {
		ids = append(ids, r.TitleID)
	}
	titles, err := b.catalog.TitlesByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("titles for user %d: %w", userID, err)
	}

	recentCutoff := b.now().Add(-b.cfg.RecentWindow)
	var scoreSum float64
	for _, r := range ratings {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		title, ok := titles[r.TitleID]
		if !ok {
			continue
		}

		snap.vec.Count++
		scoreSum += r.Score

		// Score-weighted feature accumulation: a 90 pulls its genres five
		// times harder than an 18.
		weight := r.Score / 100.0
		for _, g := range title.Genres {
			snap.vec.Weights[genrePrefix+strings.ToLower(g)] += weight
		}
		if d := title.Decade(); d > 0 {
			snap.vec.Weights[fmt.Sprintf("%s%d", decadePrefix, d)] += weight
		}

		if r.RatedAt.After(recentCutoff) {
			for _, g := range title.Genres {
				snap.recentGenres[strings.ToLower(g)] = struct{}{}
			}
		}
	}

	if snap.vec.Count == 0 {
		return snap, nil
	}
	snap.vec.MeanScore = scoreSum / float64(snap.vec.Count)
	normalizeWeights(snap.vec.Weights)
	return snap, nil
}

// normalizeWeights scales each feature group to sum to 1 on its own, so a
// sparse decade history cannot tilt the genre balance or vice versa.
func normalizeWeights(m map[string]float64) {
	sums := make(map[string]float64, 2)
	for k, v := range m {
		sums[featureGroup(k)] += v
	}
	for k := range m {
		if sum := sums[featureGroup(k)]; sum > 0 {
			m[k] /= sum
		}
	}
}

func featureGroup(k string) string {
	if i := strings.IndexByte(k, ':'); i >= 0 {
		return k[:i+1]
	}
	return k
}
