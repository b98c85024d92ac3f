// Gamedex Core
// Copyright (c) 2026 The Gamedex Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gamedex Core.
//
// Gamedex Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gamedex Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gamedex Core.  If not, see <http://www.gnu.org/licenses/>.

// Package service wires the catalog store, the external catalog client, the
// search coordinator, the background workers and the HTTP API into one
// running service.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamedex/gamedex-core/pkg/api"
	"github.com/gamedex/gamedex-core/pkg/api/methods"
	"github.com/gamedex/gamedex-core/pkg/config"
	"github.com/gamedex/gamedex-core/pkg/database/catalogdb"
	"github.com/gamedex/gamedex-core/pkg/scraper/igdb"
	"github.com/gamedex/gamedex-core/pkg/search"
	"github.com/gamedex/gamedex-core/pkg/service/analytics"
	"github.com/gamedex/gamedex-core/pkg/service/catalogsync"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Deps are the process-level inputs of Start.
type Deps struct {
	Config *config.Instance
	Fs     afero.Fs
	Clock  clockwork.Clock
	// Listen overrides the configured API address when set.
	Listen  string
	DataDir string
}

func makeExternal(cfg *config.Instance, clock clockwork.Clock) (*igdb.Client, error) {
	if !cfg.IGDBEnabled() {
		log.Info().Msg("external catalog disabled, searching local catalog only")
		return nil, nil
	}
	clientID, secret, ok := cfg.IGDBCredentials()
	if !ok {
		log.Warn().Msgf("no credentials for %s in auth file, searching local catalog only", config.IGDBAuthURL)
		return nil, nil
	}
	client, err := igdb.New(igdb.Options{
		Clock:             clock,
		BaseURL:           cfg.IGDBBaseURL(),
		TokenURL:          cfg.IGDBTokenURL(),
		ClientID:          clientID,
		ClientSecret:      secret,
		RequestsPerSecond: cfg.IGDBRequestsPerSecond(),
		Timeout:           cfg.IGDBTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create igdb client: %w", err)
	}
	return client, nil
}

// Start opens the catalog, builds the search pipeline and starts the
// analytics recorder, the catalog sync loop and the API server. stop
// cancels everything, flushes pending analytics and closes the catalog;
// done is closed when the service has exited on its own or been stopped.
//
//nolint:gocritic // deps struct passed once at startup
func Start(deps Deps) (stop func() error, done <-chan struct{}, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	cfg := deps.Config
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())

	dbPath := cfg.DatabasePath(deps.DataDir)
	log.Info().Str("path", dbPath).Msg("opening catalog database")
	db, err := catalogdb.Open(ctx, dbPath)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	cleanup := func() {
		cancel()
		if closeErr := db.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close catalog database")
		}
	}

	external, err := makeExternal(cfg, deps.Clock)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	settings, err := cfg.SearchSettings(deps.Fs)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to build search settings: %w", err)
	}

	searchOpts := []search.Option{search.WithClock(deps.Clock)}
	var recorder *analytics.Recorder
	if cfg.AnalyticsEnabled() {
		log.Info().Msg("starting search analytics recorder")
		recorder = analytics.New(db, analytics.Options{
			Clock:         deps.Clock,
			FlushInterval: cfg.AnalyticsFlushInterval(),
			BatchSize:     cfg.AnalyticsBatchSize(),
			QueueSize:     cfg.AnalyticsQueueSize(),
		})
		searchOpts = append(searchOpts, search.WithEventSink(recorder))
	}

	var externalCatalog search.Catalog
	if external != nil {
		externalCatalog = external
	}
	svc, err := search.New(db, externalCatalog, settings, searchOpts...)
	if err != nil {
		if recorder != nil {
			_ = recorder.Close(context.Background())
		}
		cleanup()
		return nil, nil, fmt.Errorf("failed to create search service: %w", err)
	}

	env := &methods.Env{Search: svc, Items: db, Config: cfg}

	g, gctx := errgroup.WithContext(ctx)

	if external != nil && cfg.SyncEnabled() {
		syncer := catalogsync.New(db, external, catalogsync.Options{
			Clock:     deps.Clock,
			MaxAge:    cfg.SyncMaxAge(),
			BatchSize: cfg.SyncBatchSize(),
			Parallel:  cfg.SyncParallel(),
			Limit:     cfg.SyncLimit(),
		})
		env.Syncer = syncer
		log.Info().Dur("interval", cfg.SyncInterval()).Msg("starting catalog sync loop")
		g.Go(func() error {
			syncer.Run(gctx, cfg.SyncInterval())
			return nil
		})
	}

	apiOpts := api.OptionsFromConfig(cfg)
	apiOpts.Clock = deps.Clock
	if deps.Listen != "" {
		apiOpts.Listen = deps.Listen
	}
	server := api.NewServer(env, apiOpts)
	log.Info().Str("addr", apiOpts.Listen).Msg("starting API service")
	g.Go(func() error {
		return server.Start(gctx)
	})

	doneCh := make(chan struct{})
	var runErr error
	go func() {
		defer close(doneCh)
		runErr = g.Wait()
		if runErr != nil {
			log.Error().Err(runErr).Msg("service stopped with error")
		}

		if recorder != nil {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if closeErr := recorder.Close(flushCtx); closeErr != nil {
				log.Warn().Err(closeErr).Msg("failed to flush search analytics")
			}
			flushCancel()
		}
		cleanup()
		log.Info().Msg("service stopped")
	}()

	stop = func() error {
		cancel()
		<-doneCh
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		return nil
	}

	return stop, doneCh, nil
}
