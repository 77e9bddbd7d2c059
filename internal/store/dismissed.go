// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/reelcircle/reelcircle/internal/models"
)

// DismissedTitleIDs returns the ids of every title the user has dismissed.
func (db *DB) DismissedTitleIDs(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT title_id FROM dismissed WHERE user_id = ? ORDER BY title_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query dismissed ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan dismissed id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dismissed ids: %w", err)
	}
	return ids, nil
}

// DismissedTitles returns the user's dismissal records, newest first.
func (db *DB) DismissedTitles(ctx context.Context, userID int64) ([]models.DismissedTitle, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, title_id, dismissed_at
		FROM dismissed WHERE user_id = ?
		ORDER BY dismissed_at DESC, title_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query dismissed titles: %w", err)
	}
	defer rows.Close()

	var out []models.DismissedTitle
	for rows.Next() {
		var d models.DismissedTitle
		if err := rows.Scan(&d.UserID, &d.TitleID, &d.DismissedAt); err != nil {
			return nil, fmt.Errorf("scan dismissed title: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dismissed titles: %w", err)
	}
	return out, nil
}

// Dismiss records a "not interested" suppression. Repeat dismissals keep
// the original timestamp.
func (db *DB) Dismiss(ctx context.Context, userID, titleID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO dismissed (user_id, title_id, dismissed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, title_id) DO NOTHING`,
		userID, titleID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("dismiss title: %w", err)
	}
	return nil
}

// Undismiss removes a suppression. Removing an absent record is a no-op.
func (db *DB) Undismiss(ctx context.Context, userID, titleID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM dismissed WHERE user_id = ? AND title_id = ?`, userID, titleID)
	if err != nil {
		return fmt.Errorf("undismiss title: %w", err)
	}
	return nil
}
