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

// Package catalogsync enriches local catalog items with data from the
// external catalog. Items that were never synced, or that are still
// incomplete after the max age, are fetched in batches and their missing
// fields filled in. Local values are never overwritten and nothing is
// deleted.
package catalogsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 500
	DefaultParallel  = 4
	DefaultLimit     = 5000
	DefaultMaxAge    = 7 * 24 * time.Hour
)

var ErrAlreadyRunning = errors.New("catalog sync already running")

// Store is the local side of a sync.
type Store interface {
	ListStale(ctx context.Context, maxAge time.Duration, limit int) ([]catalog.Item, error)
	ApplyEnrichment(ctx context.Context, items []catalog.Item) (int, error)
}

// Source fetches full records by external id.
type Source interface {
	GetGames(ctx context.Context, ids []int64) ([]catalog.Item, error)
}

type Options struct {
	Clock     clockwork.Clock
	MaxAge    time.Duration
	BatchSize int
	Parallel  int
	Limit     int
}

// Stats summarises one sync run. Processed counts ids whose batch was
// fetched and applied; Failed counts ids whose batch failed.
type Stats struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Updated   int           `json:"updated"`
	Failed    int           `json:"failed"`
}

type Syncer struct {
	store   Store
	source  Source
	clock   clockwork.Clock
	trigger chan struct{}
	last    atomic.Pointer[Stats]
	opts    Options
	running atomic.Bool
}

//nolint:gocritic // options struct copied once at construction
func New(store Store, source Source, opts Options) *Syncer {
	if opts.BatchSize <= 0 || opts.BatchSize > DefaultBatchSize {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Parallel <= 0 {
		opts.Parallel = DefaultParallel
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Syncer{
		store:   store,
		source:  source,
		clock:   opts.Clock,
		opts:    opts,
		trigger: make(chan struct{}, 1),
	}
}

// LastStats returns the stats of the most recent completed run.
func (s *Syncer) LastStats() (Stats, bool) {
	st := s.last.Load()
	if st == nil {
		return Stats{}, false
	}
	return *st, true
}

// Running reports whether a sync is in progress.
func (s *Syncer) Running() bool {
	return s.running.Load()
}

// Trigger asks a running Run loop to sync now. It returns false when a
// triggered run is already pending.
func (s *Syncer) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run syncs once immediately and then on every interval tick or Trigger,
// until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.SyncOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Msg("catalog sync failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		case <-s.trigger:
		}
	}
}

// SyncOnce runs one sync pass. A batch failure is counted and logged but
// does not stop other batches.
func (s *Syncer) SyncOnce(ctx context.Context) (Stats, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Stats{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	stats := Stats{StartedAt: s.clock.Now()}

	stale, err := s.store.ListStale(ctx, s.opts.MaxAge, s.opts.Limit)
	if err != nil {
		return stats, fmt.Errorf("failed to list stale items: %w", err)
	}

	ids := make([]int64, 0, len(stale))
	for i := range stale {
		if stale[i].ExternalID != 0 {
			ids = append(ids, stale[i].ExternalID)
		}
	}
	stats.Total = len(ids)
	if stats.Total == 0 {
		log.Debug().Msg("catalog sync: nothing stale")
		s.finish(&stats)
		return stats, nil
	}

	log.Info().Int("items", stats.Total).Int("batch", s.opts.BatchSize).Msg("catalog sync started")

	var mu syncutil.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.Parallel)
	for batch := range slices.Chunk(ids, s.opts.BatchSize) {
		g.Go(func() error {
			updated, err := s.syncBatch(ctx, batch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed += len(batch)
				log.Warn().Err(err).Int("size", len(batch)).Msg("catalog sync batch failed")
				return nil
			}
			stats.Processed += len(batch)
			stats.Updated += updated
			return nil
		})
	}
	_ = g.Wait()

	s.finish(&stats)
	log.Info().
		Int("total", stats.Total).
		Int("processed", stats.Processed).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Dur("duration", stats.Duration).
		Msg("catalog sync finished")

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("catalog sync interrupted: %w", err)
	}
	return stats, nil
}

func (s *Syncer) syncBatch(ctx context.Context, ids []int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fetched, err := s.source.GetGames(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch batch: %w", err)
	}
	if len(fetched) == 0 {
		return 0, nil
	}
	updated, err := s.store.ApplyEnrichment(ctx, fetched)
	if err != nil {
		return 0, fmt.Errorf("failed to apply batch: %w", err)
	}
	return updated, nil
}

func (s *Syncer) finish(stats *Stats) {
	stats.Duration = s.clock.Since(stats.StartedAt)
	syncItems.WithLabelValues("processed").Add(float64(stats.Processed))
	syncItems.WithLabelValues("updated").Add(float64(stats.Updated))
	syncItems.WithLabelValues("failed").Add(float64(stats.Failed))
	syncRuns.Inc()
	st := *stats
	s.last.Store(&st)
}
