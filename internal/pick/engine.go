// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package pick

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelcircle/reelcircle/internal/guide"
	"github.com/reelcircle/reelcircle/internal/models"
	"github.com/reelcircle/reelcircle/internal/mood"
	"github.com/reelcircle/reelcircle/internal/taste"
)

// contentRatingRank orders certifications. Unrated titles rank below every
// ceiling and always pass; severity ceilings are the strict mechanism.
var contentRatingRank = map[string]int{
	"G": 0, "TV-Y": 0, "TV-G": 0,
	"PG": 1, "TV-PG": 1,
	"PG-13": 2, "TV-14": 2,
	"R": 3, "TV-MA": 3,
	"NC-17": 4,
}

// Dependencies are the engine's signal and data providers.
type Dependencies struct {
	Catalog Catalog
	History History
	Taste   TasteSource
	Crew    CrewSource
	Mood    MoodSource
	Guide   GuideSource
}

// Stats are cumulative engine counters.
type Stats struct {
	Picks      int64 `json:"picks"`
	EmptyPicks int64 `json:"empty_picks"`
	Failures   int64 `json:"failures"`
}

// Engine orchestrates candidate selection and ranking.
type Engine struct {
	cfg    Config
	deps   Dependencies
	logger zerolog.Logger

	picks      atomic.Int64
	emptyPicks atomic.Int64
	failures   atomic.Int64
}

// New creates an engine after validating config and dependencies.
func New(cfg Config, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if deps.Catalog == nil || deps.History == nil || deps.Taste == nil ||
		deps.Crew == nil || deps.Mood == nil || deps.Guide == nil {
		return nil, errors.New("all engine dependencies are required")
	}
	return &Engine{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With().Str("component", "pick").Logger(),
	}, nil
}

// Stats returns cumulative counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Picks:      e.picks.Load(),
		EmptyPicks: e.emptyPicks.Load(),
		Failures:   e.failures.Load(),
	}
}

// Pick runs one request end to end. Identical requests against unchanged
// data return identical pages. Cancellation aborts with the context error
// and no partial result; an empty page is a valid response, not an error.
func (e *Engine) Pick(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if err := e.prepareRequest(&req); err != nil {
		e.failures.Add(1)
		return nil, err
	}

	resp, err := e.pick(ctx, req, start)
	if err != nil {
		e.failures.Add(1)
		e.logger.Error().
			Err(err).
			Str("request_id", req.RequestID).
			Str("mode", string(req.Mode)).
			Msg("pick failed")
		return nil, err
	}

	e.picks.Add(1)
	if len(resp.Results) == 0 {
		e.emptyPicks.Add(1)
	}
	e.logger.Debug().
		Str("request_id", req.RequestID).
		Str("mode", string(req.Mode)).
		Int("results", len(resp.Results)).
		Int("candidates", resp.Metadata.CandidateCount).
		Bool("degraded", resp.Degraded).
		Dur("duration", resp.Metadata.Duration).
		Msg("pick served")
	return resp, nil
}

// prepareRequest validates and normalizes in place.
func (e *Engine) prepareRequest(req *Request) error {
	switch req.Mode {
	case ModeSolo:
		if len(req.MemberIDs) != 1 {
			return fmt.Errorf("%w: solo mode requires exactly one member, got %d", ErrInvalidRequest, len(req.MemberIDs))
		}
	case ModeGroup:
		if len(req.MemberIDs) < 2 {
			return fmt.Errorf("%w: group mode requires at least two members, got %d", ErrInvalidRequest, len(req.MemberIDs))
		}
		if len(req.MemberIDs) > e.cfg.MaxGroupSize {
			return fmt.Errorf("%w: group size %d exceeds maximum %d", ErrInvalidRequest, len(req.MemberIDs), e.cfg.MaxGroupSize)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, req.Mode)
	}

	seen := make(map[int64]struct{}, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		if id <= 0 {
			return fmt.Errorf("%w: member id %d", ErrInvalidRequest, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate member id %d", ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}

	if req.Page < 0 {
		return fmt.Errorf("%w: page must be non-negative, got %d", ErrInvalidRequest, req.Page)
	}
	if req.PageSize <= 0 {
		req.PageSize = e.cfg.DefaultPageSize
	}
	if req.PageSize > e.cfg.MaxPageSize {
		req.PageSize = e.cfg.MaxPageSize
	}

	c := &req.Constraints
	for _, m := range c.Moods {
		if !mood.KnownMood(m) {
			return fmt.Errorf("%w: unknown mood %q", ErrInvalidRequest, m)
		}
	}
	if c.MediaType != "" && c.MediaType != models.MediaTypeMovie && c.MediaType != models.MediaTypeSeries {
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidRequest, c.MediaType)
	}
	if c.MaxRuntimeMinutes < 0 {
		return fmt.Errorf("%w: max runtime must be non-negative, got %d", ErrInvalidRequest, c.MaxRuntimeMinutes)
	}
	if c.ContentRatingCeiling != "" {
		if _, ok := contentRatingRank[c.ContentRatingCeiling]; !ok {
			return fmt.Errorf("%w: unknown content rating %q", ErrInvalidRequest, c.ContentRatingCeiling)
		}
	}
	if c.EraStartYear > 0 && c.EraEndYear > 0 && c.EraStartYear > c.EraEndYear {
		return fmt.Errorf("%w: era start %d after era end %d", ErrInvalidRequest, c.EraStartYear, c.EraEndYear)
	}
	for category, severity := range c.SeverityCeilings {
		if !knownCategory(category) {
			return fmt.Errorf("%w: unknown guide category %q", ErrInvalidRequest, category)
		}
		if severity < guide.SeverityNone || severity > guide.SeveritySevere {
			return fmt.Errorf("%w: severity ceiling %d out of range", ErrInvalidRequest, severity)
		}
	}

	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	return nil
}

func (e *Engine) pick(ctx context.Context, req Request, start time.Time) (*Response, error) {
	exclude, err := e.buildExcludeSet(ctx, req)
	if err != nil {
		return nil, err
	}

	candidates, err := e.fetchCandidates(ctx, req, len(exclude))
	if err != nil {
		return nil, err
	}

	survivors, err := e.filterCandidates(ctx, candidates, exclude, req.Constraints.SeverityCeilings)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Page:      req.Page,
		RequestID: req.RequestID,
		Metadata: ResponseMetadata{
			GeneratedAt:    start,
			CandidateCount: len(candidates),
			FilteredCount:  len(candidates) - len(survivors),
		},
	}

	if len(survivors) == 0 {
		resp.Metadata.Duration = time.Since(start)
		return resp, nil
	}

	members, degraded, err := e.loadMembers(ctx, req.MemberIDs)
	if err != nil {
		return nil, err
	}
	resp.Degraded = degraded

	creditsByTitle, err := e.loadCredits(ctx, survivors)
	if err != nil {
		return nil, err
	}

	weights := e.cfg.SoloWeights
	if req.Mode == ModeGroup {
		weights = e.cfg.GroupWeights
	}
	weights = weights.Normalize()

	ranked, err := e.scoreCandidates(ctx, survivors, members, creditsByTitle, req.Constraints.Moods, weights)
	if err != nil {
		return nil, err
	}

	sortRanked(ranked)

	from := req.Page * req.PageSize
	if from < len(ranked) {
		to := from + req.PageSize
		if to > len(ranked) {
			to = len(ranked)
		}
		resp.Results = ranked[from:to]
		resp.HasMore = to < len(ranked)
	}

	resp.Metadata.Duration = time.Since(start)
	return resp, nil
}

// buildExcludeSet unions every member's dismissed titles, their rated
// titles (unless rewatching is allowed), and the caller's already-shown set.
func (e *Engine) buildExcludeSet(ctx context.Context, req Request) (map[int64]struct{}, error) {
	exclude := make(map[int64]struct{}, len(req.ExcludeTitleIDs))
	for _, id := range req.ExcludeTitleIDs {
		exclude[id] = struct{}{}
	}

	for _, userID := range req.MemberIDs {
		dismissed, err := e.deps.History.DismissedTitleIDs(ctx, userID)
		if err != nil {
			return nil, upstream(fmt.Errorf("dismissed titles for %d: %w", userID, err))
		}
		for _, id := range dismissed {
			exclude[id] = struct{}{}
		}

		if req.Constraints.IncludeRated {
			continue
		}
		rated, err := e.deps.History.RatedTitleIDs(ctx, userID)
		if err != nil {
			return nil, upstream(fmt.Errorf("rated titles for %d: %w", userID, err))
		}
		for _, id := range rated {
			exclude[id] = struct{}{}
		}
	}
	return exclude, nil
}

func (e *Engine) fetchCandidates(ctx context.Context, req Request, excludeCount int) ([]models.Title, error) {
	c := req.Constraints

	// Over-fetch enough to survive hard filters through the requested page.
	limit := (req.Page + 1) * req.PageSize * e.cfg.OverfetchFactor
	limit += excludeCount
	if limit > e.cfg.MaxCandidates {
		limit = e.cfg.MaxCandidates
	}

	q := CandidateQuery{
		MediaType:         c.MediaType,
		MaxRuntimeMinutes: c.MaxRuntimeMinutes,
		StartYear:         c.EraStartYear,
		EndYear:           c.EraEndYear,
		ProviderIDs:       c.ProviderIDs,
		ContentRatings:    allowedContentRatings(c.ContentRatingCeiling),
		Limit:             limit,
	}

	candidates, err := e.deps.Catalog.Candidates(ctx, q)
	if err != nil {
		return nil, upstream(fmt.Errorf("fetching candidates: %w", err))
	}
	return candidates, nil
}

// filterCandidates applies the hard filters that cannot be pushed down.
func (e *Engine) filterCandidates(ctx context.Context, candidates []models.Title, exclude map[int64]struct{}, ceilings map[guide.Category]guide.Severity) ([]models.Title, error) {
	survivors := make([]models.Title, 0, len(candidates))
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := &candidates[i]
		if _, skip := exclude[t.ID]; skip {
			continue
		}
		excluded, err := e.deps.Guide.Excluded(ctx, t.ID, ceilings)
		if err != nil {
			return nil, upstream(fmt.Errorf("guide check for %d: %w", t.ID, err))
		}
		if excluded {
			continue
		}
		survivors = append(survivors, *t)
	}
	return survivors, nil
}

// memberProfile is one member's per-request scoring context.
type memberProfile struct {
	userID       int64
	vector       taste.Vector
	recentGenres map[string]struct{}
}

// loadMembers gathers each member's taste context. Degraded is true when no
// member carries any taste signal.
func (e *Engine) loadMembers(ctx context.Context, memberIDs []int64) ([]memberProfile, bool, error) {
	members := make([]memberProfile, 0, len(memberIDs))
	degraded := true
	for _, userID := range memberIDs {
		vec, err := e.deps.Taste.VectorFor(ctx, userID)
		if err != nil {
			return nil, false, upstream(fmt.Errorf("taste vector for %d: %w", userID, err))
		}
		recent, err := e.deps.Taste.RecentGenres(ctx, userID)
		if err != nil {
			return nil, false, upstream(fmt.Errorf("recent genres for %d: %w", userID, err))
		}
		if !vec.Empty() {
			degraded = false
		}
		members = append(members, memberProfile{userID: userID, vector: vec, recentGenres: recent})
	}
	return members, degraded, nil
}

func (e *Engine) loadCredits(ctx context.Context, titles []models.Title) (map[int64][]models.Credit, error) {
	ids := make([]int64, len(titles))
	for i := range titles {
		ids[i] = titles[i].ID
	}
	credits, err := e.deps.Catalog.CreditsForTitles(ctx, ids)
	if err != nil {
		return nil, upstream(fmt.Errorf("fetching credits: %w", err))
	}
	byTitle := make(map[int64][]models.Credit, len(titles))
	for _, c := range credits {
		byTitle[c.TitleID] = append(byTitle[c.TitleID], c)
	}
	return byTitle, nil
}

// scoreCandidates scores every survivor concurrently with a bounded worker
// pool. Any error aborts the whole pick; no partial page leaks out.
func (e *Engine) scoreCandidates(ctx context.Context, titles []models.Title, members []memberProfile, creditsByTitle map[int64][]models.Credit, moods []string, weights Weights) ([]RankedTitle, error) {
	ranked := make([]RankedTitle, len(titles))
	errs := make([]error, len(titles))

	sem := make(chan struct{}, e.cfg.ScoreWorkers)
	var wg sync.WaitGroup
	for i := range titles {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			ranked[idx], errs[idx] = e.scoreOne(ctx, &titles[idx], members, creditsByTitle[titles[idx].ID], moods, weights)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ranked, nil
}

func (e *Engine) scoreOne(ctx context.Context, title *models.Title, members []memberProfile, credits []models.Credit, moods []string, weights Weights) (RankedTitle, error) {
	if err := ctx.Err(); err != nil {
		return RankedTitle{}, err
	}

	moodScore, err := e.deps.Mood.FitFor(ctx, title, moods)
	if err != nil {
		return RankedTitle{}, upstream(fmt.Errorf("mood fit for %d: %w", title.ID, err))
	}

	sig, err := e.deps.Taste.SignatureFor(ctx, title.ID)
	if err != nil {
		return RankedTitle{}, upstream(fmt.Errorf("signature for %d: %w", title.ID, err))
	}
	popularity := popularityPrior(sig.Count, e.cfg.PopularityCap)

	// Crew affinity is a party-level signal: members with no history of the
	// credited people sit out of the mean instead of pulling it toward
	// neutral. Neutral applies only when nobody knows them.
	var (
		crewSum   float64
		crewCount int
	)
	for i := range members {
		v, known, err := e.deps.Crew.TitleAffinity(ctx, members[i].userID, credits)
		if err != nil {
			return RankedTitle{}, upstream(fmt.Errorf("crew affinity for %d: %w", members[i].userID, err))
		}
		if known {
			crewSum += v
			crewCount++
		}
	}
	crewVal := e.cfg.NeutralCrewAffinity
	if crewCount > 0 {
		crewVal = crewSum / float64(crewCount)
	}

	var (
		sumComposite float64
		minComposite = math.Inf(1)
		sumTaste     float64
		sumPenalty   float64
	)
	for i := range members {
		m := &members[i]

		tasteMatch := m.vector.Match(title)
		penalty := genreOverlap(title.Genres, m.recentGenres)

		composite := weights.Taste*tasteMatch +
			weights.Crew*crewVal +
			weights.Mood*moodScore.Value +
			weights.Popularity*popularity -
			weights.Penalty*penalty
		composite = clamp01(composite)

		sumComposite += composite
		if composite < minComposite {
			minComposite = composite
		}
		sumTaste += tasteMatch
		sumPenalty += penalty
	}

	n := float64(len(members))
	signals := Signals{
		TasteMatch:   sumTaste / n,
		CrewAffinity: crewVal,
		CrewKnown:    crewCount > 0,
		MoodFit:      moodScore.Value,
		MoodSource:   moodScore.Source,
		Popularity:   popularity,
		Penalty:      sumPenalty / n,
	}

	return RankedTitle{
		Title:          *title,
		Score:          sumComposite / n,
		MinMemberScore: minComposite,
		Signals:        signals,
		Reason:         reasonFor(signals, weights, len(moods) > 0),
	}, nil
}

// sortRanked orders by score desc, then minimum member score desc (group
// fairness), then title id asc for determinism.
func sortRanked(ranked []RankedTitle) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].MinMemberScore != ranked[j].MinMemberScore {
			return ranked[i].MinMemberScore > ranked[j].MinMemberScore
		}
		return ranked[i].Title.ID < ranked[j].Title.ID
	})
}

// popularityPrior log-scales a rating count against the cap.
func popularityPrior(count, ceiling int) float64 {
	if count <= 0 || ceiling <= 0 {
		return 0
	}
	if count > ceiling {
		count = ceiling
	}
	return math.Log1p(float64(count)) / math.Log1p(float64(ceiling))
}

// genreOverlap returns the fraction of the title's genres the member rated
// recently. Seen-similar penalty input.
func genreOverlap(genres []string, recent map[string]struct{}) float64 {
	if len(genres) == 0 || len(recent) == 0 {
		return 0
	}
	var hits float64
	for _, g := range genres {
		if _, ok := recent[strings.ToLower(g)]; ok {
			hits++
		}
	}
	return hits / float64(len(genres))
}

// reasonFor names the dominant positive signal.
func reasonFor(s Signals, w Weights, moodsRequested bool) string {
	best := "popular"
	bestVal := w.Popularity * s.Popularity
	if v := w.Taste * s.TasteMatch; v > bestVal {
		best, bestVal = "taste", v
	}
	if s.CrewKnown {
		if v := w.Crew * s.CrewAffinity; v > bestVal {
			best, bestVal = "crew", v
		}
	}
	if moodsRequested {
		if v := w.Mood * s.MoodFit; v > bestVal {
			best = "mood"
		}
	}

	switch best {
	case "taste":
		return "close to your taste"
	case "crew":
		return "features people you rate highly"
	case "mood":
		return "fits the mood you asked for"
	default:
		return "widely loved on ReelCircle"
	}
}

// allowedContentRatings expands a ceiling into the pushdown whitelist,
// including the unrated sentinel. Empty ceiling disables the filter.
func allowedContentRatings(ceiling string) []string {
	if ceiling == "" {
		return nil
	}
	maxRank, ok := contentRatingRank[ceiling]
	if !ok {
		return nil
	}
	allowed := []string{""}
	for rating, rank := range contentRatingRank {
		if rank <= maxRank {
			allowed = append(allowed, rating)
		}
	}
	sort.Strings(allowed)
	return allowed
}

func knownCategory(c guide.Category) bool {
	for _, known := range guide.Categories {
		if c == known {
			return true
		}
	}
	return false
}

// upstream tags an error retryable unless it already carries a
// classification or is a cancellation.
func upstream(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
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
