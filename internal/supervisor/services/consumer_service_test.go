// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/thejerf/suture/v4"
)

type stubConsumer struct {
	err error
}

func (s *stubConsumer) Run(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestConsumerServiceInterface(t *testing.T) {
	var _ suture.Service = (*ConsumerService)(nil)
}

func TestConsumerServicePropagatesFailure(t *testing.T) {
	t.Parallel()

	svc := NewConsumerService(&stubConsumer{err: errors.New("subscription lost")})
	if err := svc.Serve(context.Background()); err == nil {
		t.Error("expected consumer failure to propagate for restart")
	}
}

func TestConsumerServiceCleanShutdown(t *testing.T) {
	t.Parallel()

	svc := NewConsumerService(&stubConsumer{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Serve(ctx)
	}()
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("serve error = %v, want context.Canceled", err)
	}
}
