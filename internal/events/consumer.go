// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/reelcircle/reelcircle/internal/metrics"
)

// ErrSubscriptionLost reports that the message channel closed while the
// consumer was still meant to be running.
var ErrSubscriptionLost = errors.New("events: subscription lost")

// MessageSource yields rating-event messages for a topic.
type MessageSource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Rebuilder refreshes a user's derived profile from stored ratings.
type Rebuilder interface {
	Rebuild(ctx context.Context, userID int64) error
	Invalidate(userID int64)
}

// Consumer turns rating events into taste and crew profile rebuilds.
// A per-user rate limiter keeps a rating spree from rebuilding the same
// profiles over and over; throttled events still invalidate the cached
// snapshots so the next read rebuilds lazily.
type Consumer struct {
	source MessageSource
	taste  Rebuilder
	crew   Rebuilder
	logger zerolog.Logger

	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
}

// NewConsumer builds a consumer with per-user rebuild limits.
func NewConsumer(source MessageSource, taste, crew Rebuilder, perSecond float64, burst int, logger zerolog.Logger) *Consumer {
	if burst < 1 {
		burst = 1
	}
	return &Consumer{
		source:    source,
		taste:     taste,
		crew:      crew,
		logger:    logger,
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		limiters:  make(map[int64]*rate.Limiter),
	}
}

// Run consumes rating events until the context is cancelled or the
// message channel closes. Every message is acked: redelivering a
// malformed payload cannot make it parse, and a throttled rebuild is
// covered by the snapshot invalidation.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.source.Subscribe(ctx, TopicWildcard)
	if err != nil {
		return err
	}

	c.logger.Info().Str("topic", TopicWildcard).Msg("rating event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// Closed by context cancellation during shutdown, or the
				// subscription was lost and the caller should resubscribe.
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn().Msg("rating event channel closed")
				return ErrSubscriptionLost
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	metrics.NATSMessagesConsumed.Inc()

	event, err := ParseRatingEvent(msg.Payload)
	if err != nil {
		metrics.NATSMessagesParseFailed.Inc()
		c.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("dropping unparseable rating event")
		msg.Ack()
		return
	}

	if !c.limiter(event.UserID).Allow() {
		metrics.NATSMessagesThrottled.Inc()
		c.taste.Invalidate(event.UserID)
		c.crew.Invalidate(event.UserID)
		c.logger.Debug().Int64("user_id", event.UserID).Msg("rebuild throttled, snapshots invalidated")
		msg.Ack()
		return
	}

	start := time.Now()
	c.rebuild(ctx, event.UserID)
	metrics.NATSProcessingDuration.Observe(time.Since(start).Seconds())
	metrics.NATSMessagesProcessed.Inc()
	msg.Ack()
}

// rebuild refreshes both profiles. A failed rebuild leaves the previous
// snapshot in place so picks degrade to a stale profile instead of an
// upstream error; the periodic sweep catches the user up later.
func (c *Consumer) rebuild(ctx context.Context, userID int64) {
	tasteErr := c.taste.Rebuild(ctx, userID)
	metrics.RecordSnapshotRebuild("taste", "event", tasteErr)
	if tasteErr != nil {
		c.logger.Error().Err(tasteErr).Int64("user_id", userID).Msg("taste rebuild failed, keeping previous snapshot")
	}

	crewErr := c.crew.Rebuild(ctx, userID)
	metrics.RecordSnapshotRebuild("crew", "event", crewErr)
	if crewErr != nil {
		c.logger.Error().Err(crewErr).Int64("user_id", userID).Msg("crew rebuild failed, keeping previous snapshot")
	}
}

func (c *Consumer) limiter(userID int64) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(c.perSecond, c.burst)
		c.limiters[userID] = lim
	}
	return lim
}
