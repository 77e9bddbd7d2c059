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

// UpsertUser inserts or replaces a user row.
func (db *DB) UpsertUser(ctx context.Context, id int64, name string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`, id, name)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// SeedDevData loads a small development dataset: a handful of users, a
// catalog slice with credits, and enough ratings to exercise every signal.
// Gated behind database.seed_dev_data; idempotent.
func (db *DB) SeedDevData(ctx context.Context) error {
	users := []struct {
		id   int64
		name string
	}{
		{1, "maya"},
		{2, "jon"},
		{3, "priya"},
	}
	for _, u := range users {
		if err := db.UpsertUser(ctx, u.id, u.name); err != nil {
			return err
		}
	}

	titles := []models.Title{
		{ID: 101, Name: "Midnight Circuit", MediaType: models.MediaTypeMovie, Year: 1999, RuntimeMinutes: 131, ContentRating: "R", Genres: []string{"Action", "Sci-Fi"}, ProviderIDs: []string{"streamco"}},
		{ID: 102, Name: "The Long Harvest", MediaType: models.MediaTypeMovie, Year: 2014, RuntimeMinutes: 142, ContentRating: "PG-13", Genres: []string{"Drama", "History"}, ProviderIDs: []string{"streamco", "filmbox"}},
		{ID: 103, Name: "Paper Lanterns", MediaType: models.MediaTypeMovie, Year: 2018, RuntimeMinutes: 104, ContentRating: "PG", Genres: []string{"Romance", "Drama"}, ProviderIDs: []string{"filmbox"}},
		{ID: 104, Name: "Static", MediaType: models.MediaTypeMovie, Year: 2021, RuntimeMinutes: 96, ContentRating: "R", Genres: []string{"Horror", "Thriller"}, ProviderIDs: []string{"streamco"}},
		{ID: 105, Name: "Harbor Lights", MediaType: models.MediaTypeSeries, Year: 2020, RuntimeMinutes: 45, ContentRating: "PG-13", Genres: []string{"Drama", "Mystery"}, ProviderIDs: []string{"streamco"}},
		{ID: 106, Name: "Junk Drawer", MediaType: models.MediaTypeSeries, Year: 2023, RuntimeMinutes: 24, ContentRating: "PG", Genres: []string{"Comedy"}, ProviderIDs: []string{"filmbox"}},
	}
	for _, t := range titles {
		if err := db.UpsertTitle(ctx, t); err != nil {
			return err
		}
	}

	credits := []models.Credit{
		{TitleID: 101, PersonID: 500, PersonName: "Ava Chen", Role: models.RoleDirector},
		{TitleID: 102, PersonID: 500, PersonName: "Ava Chen", Role: models.RoleDirector},
		{TitleID: 101, PersonID: 501, PersonName: "Marcus Hale", Role: models.RoleActor, Billing: 1},
		{TitleID: 104, PersonID: 501, PersonName: "Marcus Hale", Role: models.RoleActor, Billing: 1},
		{TitleID: 103, PersonID: 502, PersonName: "Sofia Reyes", Role: models.RoleActor, Billing: 1},
		{TitleID: 105, PersonID: 503, PersonName: "Dev Kapoor", Role: models.RoleWriter},
	}
	for _, c := range credits {
		if err := db.UpsertCredit(ctx, c); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	ratings := []models.Rating{
		{UserID: 1, TitleID: 101, Score: 92, RatedAt: now.AddDate(0, 0, -10)},
		{UserID: 1, TitleID: 102, Score: 85, RatedAt: now.AddDate(0, 0, -40)},
		{UserID: 1, TitleID: 104, Score: 35, RatedAt: now.AddDate(0, 0, -5)},
		{UserID: 2, TitleID: 102, Score: 78, RatedAt: now.AddDate(0, 0, -20)},
		{UserID: 2, TitleID: 103, Score: 88, RatedAt: now.AddDate(0, 0, -15)},
		{UserID: 3, TitleID: 106, Score: 95, RatedAt: now.AddDate(0, 0, -2)},
	}
	for _, r := range ratings {
		if err := db.UpsertRating(ctx, r); err != nil {
			return err
		}
	}

	db.logger.Info().
		Int("users", len(users)).
		Int("titles", len(titles)).
		Int("ratings", len(ratings)).
		Msg("development data seeded")
	return nil
}
