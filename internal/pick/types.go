// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package pick is the "Tonight's Pick" orchestrator: it gathers candidates
// from the catalog, applies hard filters (dismissed, already rated, content
// ceilings, already shown), scores the survivors from the taste, crew,
// mood, and popularity signals, and returns a deterministic ranked page.
package pick

import (
	"context"
	"time"

	"github.com/reelcircle/reelcircle/internal/guide"
	"github.com/reelcircle/reelcircle/internal/models"
	"github.com/reelcircle/reelcircle/internal/mood"
	"github.com/reelcircle/reelcircle/internal/taste"
)

// Mode selects solo or group ranking.
type Mode string

const (
	ModeSolo  Mode = "solo"
	ModeGroup Mode = "group"
)

// Request describes one pick request.
type Request struct {
	// Mode is solo or group.
	Mode Mode `json:"mode"`
	// MemberIDs are the participating users. Solo: exactly one; group: two
	// to the configured maximum, no duplicates.
	MemberIDs []int64 `json:"member_ids"`
	// Constraints are the hard and soft filters.
	Constraints Constraints `json:"constraints"`
	// Page is the zero-based result page.
	Page int `json:"page"`
	// PageSize overrides the default page size; capped by configuration.
	PageSize int `json:"page_size"`
	// ExcludeTitleIDs is the caller's running set of already-shown titles.
	// Shuffle flows pass every id shown so far to avoid repeats.
	ExcludeTitleIDs []int64 `json:"exclude_title_ids"`
	// RequestID correlates the response with logs; generated when empty.
	RequestID string `json:"request_id"`
}

// Constraints filters and steers candidate selection. Zero values leave a
// dimension unconstrained.
type Constraints struct {
	// Moods steer the mood signal. Multiple moods combine with AND
	// semantics (minimum fit).
	Moods []string `json:"moods"`
	// MediaType restricts to movies or series.
	MediaType models.MediaType `json:"media_type"`
	// MaxRuntimeMinutes drops longer titles.
	MaxRuntimeMinutes int `json:"max_runtime_minutes"`
	// ContentRatingCeiling is the maximum certification, e.g. "PG-13".
	// Unrated titles pass; use severity ceilings for hard guarantees.
	ContentRatingCeiling string `json:"content_rating_ceiling"`
	// SeverityCeilings bounds content-guide categories. Titles whose cached
	// severity strictly exceeds a ceiling are excluded; titles without
	// guide data are not.
	SeverityCeilings map[guide.Category]guide.Severity `json:"severity_ceilings"`
	// EraStartYear/EraEndYear bound the release era (inclusive).
	EraStartYear int `json:"era_start_year"`
	EraEndYear   int `json:"era_end_year"`
	// ProviderIDs requires availability on at least one listed provider.
	ProviderIDs []string `json:"provider_ids"`
	// IncludeRated keeps titles the members already rated (rewatch mode).
	IncludeRated bool `json:"include_rated"`
}

// Signals breaks a composite score into its parts, for explainability.
type Signals struct {
	// TasteMatch is the taste-vector similarity in [0,1].
	TasteMatch float64 `json:"taste_match"`
	// CrewAffinity is the crew signal in [0,1]; neutral when unknown.
	CrewAffinity float64 `json:"crew_affinity"`
	// CrewKnown reports whether any credited person had a known affinity.
	CrewKnown bool `json:"crew_known"`
	// MoodFit is the mood signal in [0,1].
	MoodFit float64 `json:"mood_fit"`
	// MoodSource is computed or fallback.
	MoodSource mood.Source `json:"mood_source"`
	// Popularity is the log-scaled rating-count prior in [0,1].
	Popularity float64 `json:"popularity"`
	// Penalty is the seen-similar-recently deduction in [0,1].
	Penalty float64 `json:"penalty"`
}

// RankedTitle is one scored result.
type RankedTitle struct {
	Title models.Title `json:"title"`
	// Score is the composite score used for ranking.
	Score float64 `json:"score"`
	// MinMemberScore is the weakest member's composite (group fairness
	// tie-break; equals Score in solo mode).
	MinMemberScore float64 `json:"min_member_score"`
	// Signals are the member-averaged component values.
	Signals Signals `json:"signals"`
	// Reason is a short human explanation of the dominant signal.
	Reason string `json:"reason,omitempty"`
}

// Response is a ranked result page.
type Response struct {
	Results []RankedTitle `json:"results"`
	Page    int           `json:"page"`
	HasMore bool          `json:"has_more"`
	// Degraded is set when no member carried any taste signal and the
	// ranking fell back to popularity and mood.
	Degraded  bool             `json:"degraded,omitempty"`
	RequestID string           `json:"request_id"`
	Metadata  ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries pick execution details.
type ResponseMetadata struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Duration    time.Duration `json:"duration"`
	// CandidateCount is the catalog slice size before hard filters.
	CandidateCount int `json:"candidate_count"`
	// FilteredCount is how many candidates hard filters removed.
	FilteredCount int `json:"filtered_count"`
}

// CandidateQuery is the engine's view of the cheap pushdown filters. The
// store adapts it to its own query type.
type CandidateQuery struct {
	MediaType         models.MediaType
	MaxRuntimeMinutes int
	StartYear         int
	EndYear           int
	ContentRatings    []string
	ProviderIDs       []string
	Limit             int
}

// Catalog supplies candidates and their credits. Implementations wrap
// transient failures (including open circuit breakers) in
// ErrUpstreamUnavailable.
type Catalog interface {
	Candidates(ctx context.Context, q CandidateQuery) ([]models.Title, error)
	CreditsForTitles(ctx context.Context, titleIDs []int64) ([]models.Credit, error)
}

// History supplies per-user exclusion sets.
type History interface {
	RatedTitleIDs(ctx context.Context, userID int64) ([]int64, error)
	DismissedTitleIDs(ctx context.Context, userID int64) ([]int64, error)
}

// TasteSource supplies taste vectors and signatures.
type TasteSource interface {
	VectorFor(ctx context.Context, userID int64) (taste.Vector, error)
	RecentGenres(ctx context.Context, userID int64) (map[string]struct{}, error)
	SignatureFor(ctx context.Context, titleID int64) (taste.Signature, error)
}

// CrewSource supplies per-title crew affinity.
type CrewSource interface {
	// TitleAffinity returns the member's mean affinity over the title's
	// known credited people; ok=false when none is known.
	TitleAffinity(ctx context.Context, userID int64, credits []models.Credit) (float64, bool, error)
}

// MoodSource supplies mood fit.
type MoodSource interface {
	FitFor(ctx context.Context, title *models.Title, moods []string) (mood.Score, error)
}

// GuideSource applies content-guide ceilings.
type GuideSource interface {
	Excluded(ctx context.Context, titleID int64, ceilings map[guide.Category]guide.Severity) (bool, error)
}
