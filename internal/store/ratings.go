// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/reelcircle/reelcircle/internal/models"
)

// UserRatings returns all ratings by one user, newest first.
func (db *DB) UserRatings(ctx context.Context, userID int64) ([]models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, title_id, score, comment, rated_at
		FROM ratings
		WHERE user_id = ?
		ORDER BY rated_at DESC, title_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user ratings: %w", err)
	}
	defer rows.Close()

	return scanRatings(rows)
}

// TitleRatings returns all ratings for one title.
func (db *DB) TitleRatings(ctx context.Context, titleID int64) ([]models.Rating, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, title_id, score, comment, rated_at
		FROM ratings
		WHERE title_id = ?
		ORDER BY user_id`, titleID)
	if err != nil {
		return nil, fmt.Errorf("query title ratings: %w", err)
	}
	defer rows.Close()

	return scanRatings(rows)
}

// RatedTitleIDs returns the ids of every title the user has rated.
func (db *DB) RatedTitleIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT title_id FROM ratings WHERE user_id = ? ORDER BY title_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query rated title ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan rated title id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rated title ids: %w", err)
	}
	return ids, nil
}

// ActiveRaterIDs returns the ids of users who rated something since the
// given time. The background refresh service uses this to bound its work
// to users whose profiles can actually have changed.
func (db *DB) ActiveRaterIDs(ctx context.Context, since time.Time) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM ratings WHERE rated_at >= ? ORDER BY user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("query active rater ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan active rater id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active rater ids: %w", err)
	}
	return ids, nil
}

// UpsertRating inserts or replaces a user's rating for a title. Each
// (user, title) pair keeps exactly one rating.
func (db *DB) UpsertRating(ctx context.Context, r models.Rating) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ratings (user_id, title_id, score, comment, rated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, title_id) DO UPDATE SET
			score = excluded.score,
			comment = excluded.comment,
			rated_at = excluded.rated_at`,
		r.UserID, r.TitleID, r.Score, r.Comment, r.RatedAt)
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func scanRatings(rows *sql.Rows) ([]models.Rating, error) {
	var out []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.TitleID, &r.Score, &r.Comment, &r.RatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return out, nil
}
