// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package mood

import (
	"strings"

	"github.com/reelcircle/reelcircle/internal/models"
)

// genreAffinity describes how one mood relates to genre tags.
type genreAffinity struct {
	boost map[string]struct{}
	damp  map[string]struct{}
}

func genreSet(genres ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		s[g] = struct{}{}
	}
	return s
}

// fallbackTable is the fixed mood→genre affinity table behind the
// deterministic fallback. Pure data: the same title and mood always score
// the same.
var fallbackTable = map[string]genreAffinity{
	"cozy": {
		boost: genreSet("comedy", "family", "romance", "animation"),
		damp:  genreSet("horror", "thriller", "war", "crime"),
	},
	"intense": {
		boost: genreSet("thriller", "action", "crime", "war"),
		damp:  genreSet("family", "romance", "animation"),
	},
	"funny": {
		boost: genreSet("comedy", "animation"),
		damp:  genreSet("horror", "war", "drama"),
	},
	"thoughtful": {
		boost: genreSet("drama", "documentary", "history", "mystery"),
		damp:  genreSet("action", "comedy"),
	},
	"scary": {
		boost: genreSet("horror", "thriller", "mystery"),
		damp:  genreSet("comedy", "family", "romance"),
	},
	"uplifting": {
		boost: genreSet("family", "comedy", "music", "adventure"),
		damp:  genreSet("horror", "war", "crime"),
	},
	"romantic": {
		boost: genreSet("romance", "drama", "music"),
		damp:  genreSet("horror", "war", "action"),
	},
	"epic": {
		boost: genreSet("adventure", "fantasy", "sci-fi", "action", "war"),
		damp:  genreSet("documentary", "romance"),
	},
}

const (
	fallbackNeutral = 0.5
	fallbackBoost   = 0.4
	fallbackDamp    = 0.4
)

// KnownMood reports whether the mood has a fallback definition. Requests
// carrying other moods are rejected at validation.
func KnownMood(mood string) bool {
	_, ok := fallbackTable[strings.ToLower(mood)]
	return ok
}

// KnownMoods returns the supported mood names in unspecified order.
func KnownMoods() []string {
	out := make([]string, 0, len(fallbackTable))
	for m := range fallbackTable {
		out = append(out, m)
	}
	return out
}

// fallbackScore computes a deterministic mood fit from the title's genre
// tags: neutral 0.5, pulled up by the fraction of boosting genres and down
// by the fraction of damping genres, clamped to [0,1].
func fallbackScore(title *models.Title, mood string) float64 {
	aff, ok := fallbackTable[strings.ToLower(mood)]
	if !ok || len(title.Genres) == 0 {
		return fallbackNeutral
	}

	var boosts, damps float64
	for _, g := range title.Genres {
		g = strings.ToLower(g)
		if _, ok := aff.boost[g]; ok {
			boosts++
		}
		if _, ok := aff.damp[g]; ok {
			damps++
		}
	}

	n := float64(len(title.Genres))
	score := fallbackNeutral + fallbackBoost*(boosts/n) - fallbackDamp*(damps/n)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
