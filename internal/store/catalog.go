// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sony/gobreaker/v2"

	"github.com/reelcircle/reelcircle/internal/models"
)

// ErrCatalogUnavailable reports that the catalog cannot be queried right
// now; retrying later may succeed.
var ErrCatalogUnavailable = errors.New("store: catalog unavailable")

// CandidateQuery carries the cheap filters pushed down to the candidate
// query. Zero values leave a dimension unconstrained.
type CandidateQuery struct {
	// MediaType restricts to movies or series.
	MediaType models.MediaType
	// MaxRuntimeMinutes drops longer titles.
	MaxRuntimeMinutes int
	// StartYear/EndYear bound the release era (inclusive).
	StartYear int
	EndYear   int
	// ContentRatings whitelists certifications; empty allows all.
	ContentRatings []string
	// ProviderIDs requires availability on at least one provider.
	ProviderIDs []string
	// Limit caps the result size. Required.
	Limit int
}

// Candidates returns a deterministic catalog slice matching the query,
// ordered by title id. The query runs behind a circuit breaker: when the
// catalog is down or the breaker is open, the error wraps
// ErrCatalogUnavailable.
func (db *DB) Candidates(ctx context.Context, q CandidateQuery) ([]models.Title, error) {
	titles, err := db.candidateBreaker.Execute(func() ([]models.Title, error) {
		return db.queryCandidates(ctx, q)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrCatalogUnavailable)
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return titles, nil
}

func (db *DB) queryCandidates(ctx context.Context, q CandidateQuery) ([]models.Title, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if q.MediaType != "" {
		where = append(where, "media_type = ?")
		args = append(args, string(q.MediaType))
	}
	if q.MaxRuntimeMinutes > 0 {
		where = append(where, "runtime_minutes > 0 AND runtime_minutes <= ?")
		args = append(args, q.MaxRuntimeMinutes)
	}
	if q.StartYear > 0 {
		where = append(where, "year >= ?")
		args = append(args, q.StartYear)
	}
	if q.EndYear > 0 {
		where = append(where, "year <= ?")
		args = append(args, q.EndYear)
	}
	if len(q.ContentRatings) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.ContentRatings)), ",")
		where = append(where, fmt.Sprintf("content_rating IN (%s)", placeholders))
		for _, r := range q.ContentRatings {
			args = append(args, r)
		}
	}

	query := `SELECT id, name, media_type, year, runtime_minutes, content_rating, genres, providers FROM titles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	// Deterministic order so identical requests page identically.
	query += " ORDER BY id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	titles, err := scanTitles(rows)
	if err != nil {
		return nil, err
	}

	// Provider availability is list-valued; filter after the scan.
	if len(q.ProviderIDs) > 0 {
		titles = filterByProvider(titles, q.ProviderIDs)
	}
	return titles, nil
}

// TitlesByID returns metadata for the given title ids. Missing ids are
// absent from the result, not an error.
func (db *DB) TitlesByID(ctx context.Context, ids []int64) (map[int64]models.Title, error) {
	out := make(map[int64]models.Title, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, name, media_type, year, runtime_minutes, content_rating, genres, providers
		FROM titles WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query titles by id: %w", err)
	}
	defer rows.Close()

	titles, err := scanTitles(rows)
	if err != nil {
		return nil, err
	}
	for _, t := range titles {
		out[t.ID] = t
	}
	return out, nil
}

// CreditsForTitles returns all credits for the given titles.
func (db *DB) CreditsForTitles(ctx context.Context, titleIDs []int64) ([]models.Credit, error) {
	if len(titleIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(titleIDs)), ",")
	args := make([]any, len(titleIDs))
	for i, id := range titleIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT title_id, person_id, person_name, role, billing
		FROM credits WHERE title_id IN (%s)
		ORDER BY title_id, billing, person_id`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query credits: %w", err)
	}
	defer rows.Close()

	var out []models.Credit
	for rows.Next() {
		var c models.Credit
		var role string
		if err := rows.Scan(&c.TitleID, &c.PersonID, &c.PersonName, &role, &c.Billing); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		c.Role = models.CrewRole(role)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credits: %w", err)
	}
	return out, nil
}

// UpsertTitle inserts or replaces a catalog entry.
func (db *DB) UpsertTitle(ctx context.Context, t models.Title) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO titles (id, name, media_type, year, runtime_minutes, content_rating, genres, providers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			media_type = excluded.media_type,
			year = excluded.year,
			runtime_minutes = excluded.runtime_minutes,
			content_rating = excluded.content_rating,
			genres = excluded.genres,
			providers = excluded.providers`,
		t.ID, t.Name, string(t.MediaType), t.Year, t.RuntimeMinutes,
		t.ContentRating, joinList(t.Genres), joinList(t.ProviderIDs))
	if err != nil {
		return fmt.Errorf("upsert title: %w", err)
	}
	return nil
}

// UpsertCredit inserts or replaces a credit row.
func (db *DB) UpsertCredit(ctx context.Context, c models.Credit) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO credits (title_id, person_id, person_name, role, billing)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (title_id, person_id, role) DO UPDATE SET
			person_name = excluded.person_name,
			billing = excluded.billing`,
		c.TitleID, c.PersonID, c.PersonName, string(c.Role), c.Billing)
	if err != nil {
		return fmt.Errorf("upsert credit: %w", err)
	}
	return nil
}

func scanTitles(rows *sql.Rows) ([]models.Title, error) {
	var out []models.Title
	for rows.Next() {
		var t models.Title
		var mediaType, genres, providers string
		if err := rows.Scan(&t.ID, &t.Name, &mediaType, &t.Year, &t.RuntimeMinutes,
			&t.ContentRating, &genres, &providers); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		t.MediaType = models.MediaType(mediaType)
		t.Genres = splitAndTrim(genres)
		t.ProviderIDs = splitAndTrim(providers)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return out, nil
}

func filterByProvider(titles []models.Title, providerIDs []string) []models.Title {
	want := make(map[string]struct{}, len(providerIDs))
	for _, p := range providerIDs {
		want[p] = struct{}{}
	}
	out := titles[:0]
	for _, t := range titles {
		for _, p := range t.ProviderIDs {
			if _, ok := want[p]; ok {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
