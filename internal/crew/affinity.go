// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package crew maintains per-user affinity toward credited people (actors,
// directors, writers), derived from rating history.
//
// An affinity is the recency-weighted mean of the user's scores for titles
// a person is credited on, decayed exponentially by rating age. A person
// seen on fewer titles than the configured minimum stays UNKNOWN: absence
// of history is never treated as dislike.
//
// Per-user affinity maps are rebuilt as complete snapshots and swapped in
// atomically, so concurrent reads during a rebuild see either the old or
// the new state, never a mix.
package crew

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelcircle/reelcircle/internal/metrics"
	"github.com/reelcircle/reelcircle/internal/models"
)

// Affinity is one user's learned preference for one person.
type Affinity struct {
	PersonID   int64  `json:"person_id"`
	PersonName string `json:"person_name"`
	// Roles lists the roles the person held on the user's rated titles.
	Roles []models.CrewRole `json:"roles"`
	// Value is the affinity in [0,1].
	Value float64 `json:"value"`
	// Titles is the number of rated titles backing the value.
	Titles int `json:"titles"`
}

// RatingsSource provides the user's rating history.
type RatingsSource interface {
	UserRatings(ctx context.Context, userID int64) ([]models.Rating, error)
}

// CreditsSource resolves crew credits for titles.
type CreditsSource interface {
	// CreditsForTitles returns all credits for the given titles.
	CreditsForTitles(ctx context.Context, titleIDs []int64) ([]models.Credit, error)
}

// Config tunes the index.
type Config struct {
	// HalfLifeDays is the decay half-life: a rating this old counts half.
	HalfLifeDays float64
	// MinTitles is the minimum rated titles per person before the affinity
	// is known.
	MinTitles int
	// MaxBilling ignores actors billed below this position. Directors and
	// writers always count.
	MaxBilling int
	// SnapshotTTL bounds cached snapshot staleness before a lazy rebuild.
	SnapshotTTL time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		HalfLifeDays: 180,
		MinTitles:    2,
		MaxBilling:   10,
		SnapshotTTL:  15 * time.Minute,
	}
}

// userSnapshot is an immutable per-user build result.
type userSnapshot struct {
	affinities map[int64]Affinity
	builtAt    time.Time
}

// Index computes and caches crew affinities.
type Index struct {
	cfg     Config
	ratings RatingsSource
	credits CreditsSource
	logger  zerolog.Logger

	mu        sync.RWMutex
	snapshots map[int64]*userSnapshot

	now func() time.Time
}

// NewIndex creates a crew affinity index.
func NewIndex(cfg Config, ratings RatingsSource, credits CreditsSource, logger zerolog.Logger) *Index {
	def := DefaultConfig()
	if cfg.HalfLifeDays <= 0 {
		cfg.HalfLifeDays = def.HalfLifeDays
	}
	if cfg.MinTitles < 1 {
		cfg.MinTitles = def.MinTitles
	}
	if cfg.MaxBilling < 1 {
		cfg.MaxBilling = def.MaxBilling
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = def.SnapshotTTL
	}
	return &Index{
		cfg:       cfg,
		ratings:   ratings,
		credits:   credits,
		logger:    logger.With().Str("component", "crew").Logger(),
		snapshots: make(map[int64]*userSnapshot),
		now:       time.Now,
	}
}

// AffinityFor returns the user's affinity for one person. The second return
// is false when the affinity is unknown (too little history).
func (x *Index) AffinityFor(ctx context.Context, userID, personID int64) (Affinity, bool, error) {
	snap, err := x.freshSnapshot(ctx, userID)
	if err != nil {
		return Affinity{}, false, err
	}
	a, ok := snap.affinities[personID]
	return a, ok, nil
}

// TitleAffinity returns the mean affinity over the title's credited people
// the user has a KNOWN affinity for. The second return is false when no
// credited person is known; callers substitute their neutral value.
func (x *Index) TitleAffinity(ctx context.Context, userID int64, credits []models.Credit) (float64, bool, error) {
	snap, err := x.freshSnapshot(ctx, userID)
	if err != nil {
		return 0, false, err
	}

	var sum float64
	var known int
	for i := range credits {
		if !x.countsToward(&credits[i]) {
			continue
		}
		if a, ok := snap.affinities[credits[i].PersonID]; ok {
			sum += a.Value
			known++
		}
	}
	if known == 0 {
		return 0, false, nil
	}
	return sum / float64(known), true, nil
}

// TopAffinities returns the user's strongest affinities, descending by
// value with person id as the stable tie-break.
func (x *Index) TopAffinities(ctx context.Context, userID int64, limit int) ([]Affinity, error) {
	snap, err := x.freshSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]Affinity, 0, len(snap.affinities))
	for _, a := range snap.affinities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].PersonID < out[j].PersonID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Rebuild recomputes the user's snapshot and swaps it in. Idempotent; safe
// under concurrent reads.
func (x *Index) Rebuild(ctx context.Context, userID int64) error {
	snap, err := x.build(ctx, userID)
	if err != nil {
		return err
	}

	x.mu.Lock()
	x.snapshots[userID] = snap
	x.mu.Unlock()

	x.logger.Debug().
		Int64("user_id", userID).
		Int("people", len(snap.affinities)).
		Msg("crew affinities rebuilt")
	return nil
}

// Invalidate drops the user's cached snapshot so the next read rebuilds.
func (x *Index) Invalidate(userID int64) {
	x.mu.Lock()
	delete(x.snapshots, userID)
	x.mu.Unlock()
}

func (x *Index) freshSnapshot(ctx context.Context, userID int64) (*userSnapshot, error) {
	x.mu.RLock()
	snap, ok := x.snapshots[userID]
	x.mu.RUnlock()

	if ok && x.now().Sub(snap.builtAt) < x.cfg.SnapshotTTL {
		metrics.RecordCacheAccess("crew", true)
		return snap, nil
	}
	metrics.RecordCacheAccess("crew", false)

	built, err := x.build(ctx, userID)
	metrics.RecordSnapshotRebuild("crew", "miss", err)
	if err != nil {
		if ok {
			return snap, nil
		}
		return nil, err
	}

	x.mu.Lock()
	x.snapshots[userID] = built
	x.mu.Unlock()
	return built, nil
}

// accumulator gathers decayed evidence for one person during a build.
type accumulator struct {
	name        string
	roles       map[models.CrewRole]struct{}
	weightedSum float64
	weightSum   float64
	titles      int
}

// build computes a complete snapshot outside the lock.
func (x *Index) build(ctx context.Context, userID int64) (*userSnapshot, error) {
	ratings, err := x.ratings.UserRatings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user ratings for %d: %w", userID, err)
	}

	snap := &userSnapshot{affinities: make(map[int64]Affinity), builtAt: x.now()}
	if len(ratings) == 0 {
		return snap, nil
	}

	titleIDs := make([]int64, 0, len(ratings))
	byTitle := make(map[int64]models.Rating, len(ratings))
	for _, r := range ratings {
		titleIDs = append(titleIDs, r.TitleID)
		byTitle[r.TitleID] = r
	}

	credits, err := x.credits.CreditsForTitles(ctx, titleIDs)
	if err != nil {
		return nil, fmt.Errorf("credits for user %d: %w", userID, err)
	}

	now := x.now()
	acc := make(map[int64]*accumulator)
	for i := range credits {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c := &credits[i]
		if !x.countsToward(c) {
			continue
		}
		r, ok := byTitle[c.TitleID]
		if !ok {
			continue
		}

		w := decayWeight(now.Sub(r.RatedAt), x.cfg.HalfLifeDays)
		a, ok := acc[c.PersonID]
		if !ok {
			a = &accumulator{name: c.PersonName, roles: make(map[models.CrewRole]struct{})}
			acc[c.PersonID] = a
		}
		a.roles[c.Role] = struct{}{}
		a.weightedSum += w * (r.Score / 100.0)
		a.weightSum += w
		a.titles++
	}

	for personID, a := range acc {
		if a.titles < x.cfg.MinTitles || a.weightSum == 0 {
			continue
		}
		roles := make([]models.CrewRole, 0, len(a.roles))
		for role := range a.roles {
			roles = append(roles, role)
		}
		sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
		snap.affinities[personID] = Affinity{
			PersonID:   personID,
			PersonName: a.name,
			Roles:      roles,
			Value:      clamp01(a.weightedSum / a.weightSum),
			Titles:     a.titles,
		}
	}

	return snap, nil
}

// countsToward reports whether a credit contributes affinity evidence.
// Deeply billed actors are noise; directors and writers always count.
func (x *Index) countsToward(c *models.Credit) bool {
	if c.Role == models.RoleActor && c.Billing > x.cfg.MaxBilling {
		return false
	}
	return true
}

// decayWeight returns exp(-ln2 * age / halfLife): 1.0 for a fresh rating,
// 0.5 at the half-life, never zero.
func decayWeight(age time.Duration, halfLifeDays float64) float64 {
	if age < 0 {
		age = 0
	}
	days := age.Hours() / 24
	return math.Exp(-math.Ln2 * days / halfLifeDays)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
