// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package events moves rating activity over NATS JetStream. Every rating
// write publishes a RatingEvent; the consumer rebuilds the affected user's
// derived signal snapshots, rate-limited per user so a rating burst does
// not thrash the builders.
package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const (
	// StreamName is the JetStream stream holding rating events.
	StreamName = "RATINGS"
	// TopicWildcard matches every rating subject.
	TopicWildcard = "ratings.>"
	// TopicRated is the subject for created and updated ratings.
	TopicRated = "ratings.rated"
	// TopicDismissed is the subject for dismissals.
	TopicDismissed = "ratings.dismissed"
)

// RatingEvent is the wire payload for rating activity.
type RatingEvent struct {
	UserID  int64     `json:"user_id"`
	TitleID int64     `json:"title_id"`
	Score   float64   `json:"score,omitempty"`
	At      time.Time `json:"at"`
}

// Marshal encodes the event for publishing.
func (e *RatingEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseRatingEvent decodes and sanity-checks a payload.
func ParseRatingEvent(payload []byte) (*RatingEvent, error) {
	var e RatingEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("decoding rating event: %w", err)
	}
	if e.UserID <= 0 {
		return nil, fmt.Errorf("rating event with invalid user id %d", e.UserID)
	}
	return &e, nil
}
