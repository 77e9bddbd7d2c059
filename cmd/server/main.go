// ReelCircle - Social Movie & TV Rating Platform
// Copyright 2026 ReelCircle Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelcircle/reelcircle

// Package main is the entry point for the ReelCircle pick service.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (koanf v2)
//  2. Store: DuckDB catalog, ratings, and dismissal persistence
//  3. Caches: BadgerDB-backed mood scores and content-guide entries
//  4. Signals: taste vector builder and crew affinity index
//  5. Engine: the candidate selector and ranker behind POST /pick
//  6. Events (optional): NATS JetStream rating-event pipeline
//  7. Supervision: suture tree running the HTTP server, the event
//     consumer, and the periodic profile refresher
//
// Graceful shutdown runs on SIGINT and SIGTERM: the supervisor drains
// the HTTP server and stops the signal services, then the event
// components and stores close in reverse initialization order.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/reelcircle/reelcircle/internal/api"
	"github.com/reelcircle/reelcircle/internal/config"
	"github.com/reelcircle/reelcircle/internal/crew"
	"github.com/reelcircle/reelcircle/internal/guide"
	"github.com/reelcircle/reelcircle/internal/logging"
	"github.com/reelcircle/reelcircle/internal/mood"
	"github.com/reelcircle/reelcircle/internal/pick"
	"github.com/reelcircle/reelcircle/internal/store"
	"github.com/reelcircle/reelcircle/internal/supervisor"
	"github.com/reelcircle/reelcircle/internal/supervisor/services"
	"github.com/reelcircle/reelcircle/internal/taste"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("starting reelcircle pick service")

	db, err := store.New(&cfg.Database, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()

	cacheDB, err := openCache(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open signal cache")
	}
	defer func() {
		if err := cacheDB.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing signal cache")
		}
	}()

	guideStore := guide.NewStore(cacheDB, logging.Logger())
	moodProvider := mood.NewProvider(cacheDB, logging.Logger())

	if cfg.Database.SeedDevData {
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := seedDevData(seedCtx, db, guideStore, moodProvider); err != nil {
			cancel()
			logging.Fatal().Err(err).Msg("failed to seed development data")
		}
		cancel()
	}

	tasteCfg := taste.DefaultConfig()
	tasteCfg.SnapshotTTL = cfg.Pick.SnapshotTTL
	tasteCfg.RecentWindow = time.Duration(cfg.Pick.RecentWindowDays) * 24 * time.Hour
	tasteCfg.ControversialStdDev = cfg.Pick.ControversialStdDev
	tasteCfg.UnanimousMinScore = cfg.Pick.UnanimousMinScore
	tasteBuilder := taste.NewBuilder(tasteCfg, db, db, logging.Logger())

	crewCfg := crew.DefaultConfig()
	crewCfg.HalfLifeDays = cfg.Pick.CrewHalfLifeDays
	crewCfg.MinTitles = cfg.Pick.CrewMinTitles
	crewCfg.SnapshotTTL = cfg.Pick.SnapshotTTL
	crewIndex := crew.NewIndex(crewCfg, db, db, logging.Logger())

	provider := store.NewPickProvider(db)
	engine, err := pick.New(engineConfig(cfg), pick.Dependencies{
		Catalog: provider,
		History: provider,
		Taste:   tasteBuilder,
		Crew:    crewIndex,
		Mood:    moodProvider,
		Guide:   guideStore,
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build pick engine")
	}

	handlers := api.NewHandlers(engine, tasteBuilder, crewIndex, db, &cfg.API)

	var eventComponents *eventPipeline
	if cfg.NATS.Enabled {
		eventComponents, err = initEvents(&cfg.NATS, tasteBuilder, crewIndex)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to initialize event pipeline")
		}
		defer eventComponents.shutdown()
		handlers.WithPublisher(eventComponents.publisher)
		logging.Info().Str("url", eventComponents.url).Msg("rating event pipeline ready")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handlers.Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(httpServer, 10*time.Second))
	tree.AddSignalsService(services.NewRebuildService(db, tasteBuilder, crewIndex, services.RebuildServiceConfig{
		Interval: cfg.Pick.RebuildInterval,
	}, logging.Logger()))
	if eventComponents != nil {
		tree.AddSignalsService(services.NewConsumerService(eventComponents.consumer))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", httpServer.Addr).Msg("serving")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop in time")
		}
	}

	logging.Info().Msg("shutdown complete")
}

// openCache opens the BadgerDB store backing the mood and content-guide
// caches. An empty path means in-memory, matching the DuckDB convention.
func openCache(cfg *config.CacheConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(nil)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return db, nil
}

// engineConfig maps the loaded configuration onto the engine's own
// config type.
func engineConfig(cfg *config.Config) pick.Config {
	ec := pick.DefaultConfig()
	ec.SoloWeights = pickWeights(cfg.Pick.SoloWeights)
	ec.GroupWeights = pickWeights(cfg.Pick.GroupWeights)
	ec.DefaultPageSize = cfg.API.DefaultPageSize
	ec.MaxPageSize = cfg.API.MaxPageSize
	ec.OverfetchFactor = cfg.Pick.OverfetchFactor
	ec.MaxGroupSize = cfg.Pick.MaxGroupSize
	ec.NeutralCrewAffinity = cfg.Pick.NeutralCrewAffinity
	ec.PopularityCap = cfg.Pick.PopularityCap
	return ec
}

func pickWeights(w config.WeightsConfig) pick.Weights {
	return pick.Weights{
		Taste:      w.Taste,
		Crew:       w.Crew,
		Mood:       w.Mood,
		Popularity: w.Popularity,
		Penalty:    w.Penalty,
	}
}
