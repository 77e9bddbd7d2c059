// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/reelcircle/reelcircle/internal/models"
)

// Publisher publishes rating events to JetStream. Message UUIDs double as
// Nats-Msg-Id so the stream's duplicate window deduplicates retries.
type Publisher struct {
	publisher message.Publisher
}

// NewPublisher connects a watermill NATS publisher.
func NewPublisher(url string, logger watermill.LoggerAdapter) (*Publisher, error) {
	wmConfig := wmnats.PublisherConfig{
		URL: url,
		NatsOptions: []natsgo.Option{
			natsgo.RetryOnFailedConnect(true),
			natsgo.MaxReconnects(-1),
			natsgo.ReconnectWait(time.Second),
		},
		Marshaler: &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmnats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return &Publisher{publisher: pub}, nil
}

// PublishRating publishes a rated-title event.
func (p *Publisher) PublishRating(ctx context.Context, r models.Rating) error {
	return p.publish(ctx, TopicRated, &RatingEvent{
		UserID:  r.UserID,
		TitleID: r.TitleID,
		Score:   r.Score,
		At:      r.RatedAt,
	})
}

// PublishDismissal publishes a dismissed-title event.
func (p *Publisher) PublishDismissal(ctx context.Context, userID, titleID int64) error {
	return p.publish(ctx, TopicDismissed, &RatingEvent{
		UserID:  userID,
		TitleID: titleID,
		At:      time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, topic string, event *RatingEvent) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("encoding rating event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// Close shuts the publisher down.
func (p *Publisher) Close() error {
	return p.publisher.Close()
}
