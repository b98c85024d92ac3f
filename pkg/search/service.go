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

// Package search coordinates a search: it normalizes and expands the query,
// looks it up in the local store and the external catalog, and filters,
// scores and ranks the merged candidates. Results are cached per query and
// concurrent identical searches share one lookup.
package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/query"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Store is the local catalog store.
type Store interface {
	FindByText(ctx context.Context, pattern string, limit int) ([]catalog.Item, error)
	FindByExactName(ctx context.Context, name string) ([]catalog.Item, error)
	ReleaseDatesByExternalID(ctx context.Context, externalIDs []int64) (map[int64][]time.Time, error)
}

// Catalog is the external catalog source.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]catalog.Item, error)
}

// EventSink receives one event per completed search. Record must not block.
type EventSink interface {
	Record(ev catalog.SearchEvent)
}

// ErrSourcesUnavailable is returned when every lookup against every source
// failed, so an empty result would be misleading.
var ErrSourcesUnavailable = errors.New("search sources unavailable")

// Options are per-call search options.
type Options struct {
	// Limit is the number of results wanted; 0 means the default.
	Limit int
	// FastMode skips the external catalog.
	FastMode bool
	// IncludeMetrics attaches Metrics to the response.
	IncludeMetrics bool
}

// Response is the result of a search.
type Response struct {
	Metrics *Metrics         `json:"metrics,omitempty"`
	Results []ranking.Ranked `json:"results"`
}

// pipelineConfig is everything a pipeline is built from.
type pipelineConfig struct {
	flagships *franchise.FlagshipTable
	patterns  []franchise.Pattern
	rules     []filter.Rule
	policies  []filter.Policy
	relevance relevance.Config
	ranking   ranking.Config
}

type pipeline struct {
	detector *franchise.Detector
	filter   *filter.Engine
	scorer   *relevance.Scorer
	ranker   *ranking.Ranker
	cfg      pipelineConfig
}

// Service is a search coordinator. It is safe for concurrent use.
type Service struct {
	store    Store
	external Catalog
	events   EventSink
	clock    clockwork.Clock
	cache    *resultCache
	sem      *semaphore.Weighted
	pipeline atomic.Pointer[pipeline]
	group    singleflight.Group
	settings Settings
	updateMu syncutil.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for cache expiry, copyright recency and
// timings.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// WithEventSink sets where search events are sent.
func WithEventSink(sink EventSink) Option {
	return func(s *Service) {
		s.events = sink
	}
}

// New builds a search service. store is required; external may be nil, in
// which case every search runs in fast mode.
func New(store Store, external Catalog, settings Settings, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("search store is required")
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	if settings.Flagships == nil {
		table, err := franchise.DefaultFlagships()
		if err != nil {
			return nil, fmt.Errorf("failed to load default flagships: %w", err)
		}
		settings.Flagships = table
	}

	s := &Service{
		store:    store,
		external: external,
		settings: settings,
		clock:    clockwork.NewRealClock(),
		sem:      semaphore.NewWeighted(settings.MaxInFlight),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = newResultCache(s.clock, settings.CacheTTL, settings.CacheEntries)

	p, err := s.buildPipeline(pipelineConfig{
		flagships: settings.Flagships,
		patterns:  settings.Franchises,
		rules:     settings.Filters,
		policies:  settings.Policies,
		relevance: settings.Relevance,
		ranking:   settings.Ranking,
	})
	if err != nil {
		return nil, err
	}
	s.pipeline.Store(p)
	return s, nil
}

func (s *Service) buildPipeline(cfg pipelineConfig) (*pipeline, error) {
	if cfg.flagships == nil {
		return nil, errors.New("flagship table is required")
	}
	detector, err := franchise.NewDetector(cfg.patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to build franchise detector: %w", err)
	}
	if err := filter.ValidateRules(cfg.rules); err != nil {
		return nil, err
	}
	table, err := filter.NewPolicyTable(cfg.policies)
	if err != nil {
		return nil, err
	}
	scorer, err := relevance.NewScorer(cfg.relevance, cfg.flagships)
	if err != nil {
		return nil, err
	}
	ranker, err := ranking.NewRanker(cfg.ranking)
	if err != nil {
		return nil, err
	}
	cfg.patterns = slices.Clone(cfg.patterns)
	cfg.rules = slices.Clone(cfg.rules)
	cfg.policies = slices.Clone(cfg.policies)
	return &pipeline{
		detector: detector,
		filter:   filter.NewEngine(cfg.rules, table, s.clock),
		scorer:   scorer,
		ranker:   ranker,
		cfg:      cfg,
	}, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.settings.DefaultLimit
	}
	return min(limit, s.settings.MaxLimit)
}

func cacheKey(normalized string, limit int, fast bool) string {
	return normalized + "|" + strconv.Itoa(limit) + "|" + strconv.FormatBool(fast)
}

// Search runs a search. Invalid or too short queries return an empty
// response, not an error. External catalog failures degrade to local
// results; only a failure of every source returns ErrSourcesUnavailable.
// If ctx ends while waiting on a shared lookup, Search returns ctx's error
// and the lookup carries on to fill the cache.
func (s *Service) Search(ctx context.Context, raw string, opts Options) (*Response, error) {
	start := s.clock.Now()
	limit := s.clampLimit(opts.Limit)
	fast := opts.FastMode || s.external == nil

	normalized, err := query.Normalize(raw)
	if err != nil || utf8.RuneCountInString(normalized) < s.settings.MinQueryLength {
		log.Debug().Str("query", raw).Msg("ignoring empty or short search query")
		observeSearch(outcomeEmpty, s.clock.Since(start))
		m := Metrics{Query: raw, Normalized: normalized, TotalDuration: s.clock.Since(start)}
		return s.respond(nil, m, opts), nil
	}

	key := cacheKey(normalized, limit, fast)
	if entry, ok := s.cache.get(key); ok {
		m := entry.metrics
		m.Query = raw
		m.CacheHit = true
		m.Shared = false
		m.TotalDuration = s.clock.Since(start)
		observeSearch(outcomeHit, m.TotalDuration)
		s.record(m, fast)
		return s.respond(entry.results, m, opts), nil
	}

	gen := s.cache.gen()
	flightKey := key + "#" + strconv.FormatUint(gen, 10)
	ch := s.group.DoChan(flightKey, func() (any, error) {
		return s.lookup(context.WithoutCancel(ctx), key, gen, normalized, limit, fast)
	})

	select {
	case <-ctx.Done():
		observeSearch(outcomeError, s.clock.Since(start))
		return nil, fmt.Errorf("search abandoned: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			observeSearch(outcomeError, s.clock.Since(start))
			return nil, res.Err
		}
		entry, ok := res.Val.(cacheEntry)
		if !ok {
			return nil, fmt.Errorf("unexpected lookup result %T", res.Val)
		}
		m := entry.metrics
		m.Query = raw
		m.Shared = res.Shared
		m.TotalDuration = s.clock.Since(start)
		outcome := outcomeMiss
		if m.CacheHit {
			outcome = outcomeHit
		}
		observeSearch(outcome, m.TotalDuration)
		s.record(m, fast)
		log.Debug().
			Str("query", normalized).
			Int("results", m.Returned).
			Bool("shared", m.Shared).
			Dur("duration", m.TotalDuration).
			Msg("search complete")
		return s.respond(entry.results, m, opts), nil
	}
}

func (s *Service) respond(results []ranking.Ranked, m Metrics, opts Options) *Response {
	resp := &Response{Results: slices.Clone(results)}
	if resp.Results == nil {
		resp.Results = []ranking.Ranked{}
	}
	if opts.IncludeMetrics {
		resp.Metrics = &m
	}
	return resp
}

func (s *Service) record(m Metrics, fast bool) {
	if s.events == nil {
		return
	}
	s.events.Record(catalog.SearchEvent{
		At:            s.clock.Now(),
		Query:         m.Query,
		Normalized:    m.Normalized,
		Franchise:     m.Franchise,
		Results:       m.Returned,
		CacheHit:      m.CacheHit,
		FastMode:      fast,
		ExternalError: m.ExternalFailed,
		Duration:      m.TotalDuration,
	})
}

// ClearCache drops every cached result. Lookups already running will not
// repopulate the cache.
func (s *Service) ClearCache() {
	s.cache.clear()
	searchCacheEntries.Set(0)
	log.Info().Msg("search cache cleared")
}

// CacheLen returns the number of cached result lists.
func (s *Service) CacheLen() int {
	return s.cache.len()
}
