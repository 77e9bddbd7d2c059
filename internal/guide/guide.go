// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package guide filters candidates against per-category content severity
// ceilings (violence, language, sex/nudity, substances).
//
// Severity data is community-sourced and cached in BadgerDB. Coverage is
// partial: a title with no cached entry is NOT excluded. That trades
// strictness for availability and is the intended behavior; callers who
// need hard guarantees must treat missing data upstream.
package guide

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Category is a content-guide category.
type Category string

const (
	CategoryViolence   Category = "violence"
	CategoryLanguage   Category = "language"
	CategorySexNudity  Category = "sex_nudity"
	CategorySubstances Category = "substances"
)

// Categories lists all known categories.
var Categories = []Category{
	CategoryViolence,
	CategoryLanguage,
	CategorySexNudity,
	CategorySubstances,
}

// Severity is an ordinal severity level. Comparisons use the numeric order:
// None < Mild < Moderate < Severe.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity converts a severity name to its level.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "none":
		return SeverityNone, nil
	case "mild":
		return SeverityMild, nil
	case "moderate":
		return SeverityModerate, nil
	case "severe":
		return SeveritySevere, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// Entry is the cached guide record for one title. Absent categories mean no
// data, not "none".
type Entry struct {
	TitleID    int64                 `json:"title_id"`
	Severities map[Category]Severity `json:"severities"`
}

// ErrNotFound reports a title without cached guide data.
var ErrNotFound = errors.New("guide: entry not found")

const keyPrefix = "guide:"

// Store caches guide entries in BadgerDB.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewStore wraps an open Badger handle. The caller owns the handle's
// lifecycle; mood and guide data share one database under distinct key
// prefixes.
func NewStore(db *badger.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "guide").Logger(),
	}
}

// Put stores or replaces a title's guide entry.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal guide entry for %d: %w", entry.TitleID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.TitleID), data)
	})
	if err != nil {
		return fmt.Errorf("store guide entry for %d: %w", entry.TitleID, err)
	}
	return nil
}

// Get returns a title's guide entry, or ErrNotFound.
func (s *Store) Get(ctx context.Context, titleID int64) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(titleID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("load guide entry for %d: %w", titleID, err)
	}
	return entry, nil
}

// Excluded reports whether the title violates any requested ceiling: some
// cached severity strictly exceeds its ceiling. Categories without a ceiling
// are unconstrained; titles without cached data are not excluded.
func (s *Store) Excluded(ctx context.Context, titleID int64, ceilings map[Category]Severity) (bool, error) {
	if len(ceilings) == 0 {
		return false, nil
	}
	entry, err := s.Get(ctx, titleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	for category, ceiling := range ceilings {
		if severity, ok := entry.Severities[category]; ok && severity > ceiling {
			return true, nil
		}
	}
	return false, nil
}

func entryKey(titleID int64) []byte {
	return fmt.Appendf(nil, "%s%d", keyPrefix, titleID)
}
