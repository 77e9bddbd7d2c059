// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package services

import (
	"context"
	"errors"
	"fmt"
)

// EventConsumer matches the rating-event consumer's Run method.
type EventConsumer interface {
	Run(ctx context.Context) error
}

// ConsumerService supervises the rating-event consumer. If the consumer
// exits with an error (subscription lost, channel closed unexpectedly)
// suture restarts it with backoff.
type ConsumerService struct {
	consumer EventConsumer
	name     string
}

// NewConsumerService wraps an event consumer as a supervised service.
func NewConsumerService(consumer EventConsumer) *ConsumerService {
	return &ConsumerService{
		consumer: consumer,
		name:     "event-consumer",
	}
}

// Serve implements suture.Service.
func (s *ConsumerService) Serve(ctx context.Context) error {
	err := s.consumer.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event consumer failed: %w", err)
	}
	return err
}

// String identifies the service in supervisor logs.
func (s *ConsumerService) String() string {
	return s.name
}
