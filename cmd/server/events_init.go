// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/reelcircle/reelcircle/internal/config"
	"github.com/reelcircle/reelcircle/internal/events"
	"github.com/reelcircle/reelcircle/internal/logging"
)

// eventPipeline bundles the NATS pieces so main can shut them down in
// reverse order.
type eventPipeline struct {
	url        string
	server     *events.EmbeddedServer
	publisher  *events.Publisher
	subscriber *events.Subscriber
	consumer   *events.Consumer
}

// initEvents stands up the rating-event pipeline: optionally an embedded
// NATS server, the JetStream stream, a publisher for the API handlers,
// and the consumer that turns events into profile rebuilds.
func initEvents(cfg *config.NATSConfig, tasteB, crewI events.Rebuilder) (*eventPipeline, error) {
	p := &eventPipeline{url: cfg.URL}

	if cfg.EmbeddedServer {
		srv, err := events.NewEmbeddedServer("127.0.0.1", -1, cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("start embedded nats server: %w", err)
		}
		p.server = srv
		p.url = srv.ClientURL()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := events.EnsureStream(ctx, p.url, cfg.StreamRetentionDays); err != nil {
		p.shutdown()
		return nil, fmt.Errorf("ensure rating stream: %w", err)
	}

	wmLogger := events.NewWatermillLogger(logging.Logger())

	publisher, err := events.NewPublisher(p.url, wmLogger)
	if err != nil {
		p.shutdown()
		return nil, fmt.Errorf("create event publisher: %w", err)
	}
	p.publisher = publisher

	subCfg := *cfg
	subCfg.URL = p.url
	subscriber, err := events.NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		p.shutdown()
		return nil, fmt.Errorf("create event subscriber: %w", err)
	}
	p.subscriber = subscriber

	p.consumer = events.NewConsumer(subscriber, tasteB, crewI,
		cfg.RebuildsPerSecond, cfg.RebuildBurst, logging.Logger())

	return p, nil
}

// shutdown closes the pipeline in reverse initialization order. Safe to
// call with partially initialized components.
func (p *eventPipeline) shutdown() {
	if p.subscriber != nil {
		if err := p.subscriber.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event subscriber")
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event publisher")
		}
	}
	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.server.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("error stopping embedded nats server")
		}
	}
}
