// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package api is the HTTP surface: the pick endpoint, signal inspection
// and rebuild endpoints, dismissed-title management, rating ingest, health
// probes, and the Prometheus exposition endpoint.
package api

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/reelcircle/reelcircle/internal/config"
	"github.com/reelcircle/reelcircle/internal/crew"
	"github.com/reelcircle/reelcircle/internal/models"
	"github.com/reelcircle/reelcircle/internal/pick"
	"github.com/reelcircle/reelcircle/internal/taste"
)

// Picker runs pick requests.
type Picker interface {
	Pick(ctx context.Context, req pick.Request) (*pick.Response, error)
	Stats() pick.Stats
}

// TasteService exposes the taste signal to the API.
type TasteService interface {
	VectorFor(ctx context.Context, userID int64) (taste.Vector, error)
	GroupVector(ctx context.Context, userIDs []int64) (taste.Vector, error)
	SignatureFor(ctx context.Context, titleID int64) (taste.Signature, error)
	Rebuild(ctx context.Context, userID int64) error
	Invalidate(userID int64)
}

// CrewService exposes the crew signal to the API.
type CrewService interface {
	TopAffinities(ctx context.Context, userID int64, limit int) ([]crew.Affinity, error)
	Rebuild(ctx context.Context, userID int64) error
	Invalidate(userID int64)
}

// RatingPublisher emits rating activity to the event stream.
type RatingPublisher interface {
	PublishRating(ctx context.Context, r models.Rating) error
	PublishDismissal(ctx context.Context, userID, titleID int64) error
}

// Store is the slice of the persistence layer the handlers touch.
type Store interface {
	DismissedTitles(ctx context.Context, userID int64) ([]models.DismissedTitle, error)
	Dismiss(ctx context.Context, userID, titleID int64) error
	Undismiss(ctx context.Context, userID, titleID int64) error
	UpsertRating(ctx context.Context, r models.Rating) error
	Ping(ctx context.Context) error
}

// Handlers bundles the HTTP handlers and their dependencies.
type Handlers struct {
	picker    Picker
	taste     TasteService
	crew      CrewService
	store     Store
	publisher RatingPublisher
	cfg       *config.APIConfig
	validate  *validator.Validate
}

// NewHandlers wires the handler set.
func NewHandlers(picker Picker, tasteSvc TasteService, crewSvc CrewService, store Store, cfg *config.APIConfig) *Handlers {
	return &Handlers{
		picker:   picker,
		taste:    tasteSvc,
		crew:     crewSvc,
		store:    store,
		cfg:      cfg,
		validate: validator.New(),
	}
}

// WithPublisher attaches the rating-event publisher. Without one, rating
// writes still invalidate local snapshots but emit no events.
func (h *Handlers) WithPublisher(p RatingPublisher) *Handlers {
	h.publisher = p
	return h
}
