// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package models defines the shared domain entities of the ReelCircle pick
// service: titles, credits, ratings, and the API response envelope.
package models

import (
	"time"
)

// MediaType distinguishes movies from series.
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// CrewRole is a credited role on a title.
type CrewRole string

const (
	RoleActor    CrewRole = "actor"
	RoleDirector CrewRole = "director"
	RoleWriter   CrewRole = "writer"
)

// Title is one entry of the catalog slice the picker ranks over.
type Title struct {
	// ID is the platform-wide title identifier.
	ID int64 `json:"id"`
	// Name is the display title.
	Name string `json:"name"`
	// MediaType is movie or series.
	MediaType MediaType `json:"media_type"`
	// Year is the release year.
	Year int `json:"year"`
	// RuntimeMinutes is the runtime (per-episode for series).
	RuntimeMinutes int `json:"runtime_minutes"`
	// ContentRating is the certification, e.g. "PG-13".
	ContentRating string `json:"content_rating"`
	// Genres are the title's genre tags.
	Genres []string `json:"genres"`
	// ProviderIDs are the streaming providers carrying the title.
	ProviderIDs []string `json:"provider_ids,omitempty"`
}

// Decade returns the start year of the title's release decade, or 0 when the
// year is unknown.
func (t *Title) Decade() int {
	if t.Year <= 0 {
		return 0
	}
	return t.Year - t.Year%10
}

// Credit links a person to a title in a given role.
type Credit struct {
	TitleID    int64    `json:"title_id"`
	PersonID   int64    `json:"person_id"`
	PersonName string   `json:"person_name"`
	Role       CrewRole `json:"role"`
	// Billing is the credit order; lower is more prominent.
	Billing int `json:"billing"`
}

// Rating is one user's score for one title. Scores are 0-100; each
// (user, title) pair has at most one rating.
type Rating struct {
	UserID  int64     `json:"user_id"`
	TitleID int64     `json:"title_id"`
	Score   float64   `json:"score"`
	Comment string    `json:"comment,omitempty"`
	RatedAt time.Time `json:"rated_at"`
}

// DismissedTitle is a "not interested" suppression record.
type DismissedTitle struct {
	UserID      int64     `json:"user_id"`
	TitleID     int64     `json:"title_id"`
	DismissedAt time.Time `json:"dismissed_at"`
}
