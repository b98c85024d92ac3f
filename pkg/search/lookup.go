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

package search

import (
	"context"
	"fmt"
	"slices"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search/query"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const lookupConcurrency = 4

type lookupTask struct {
	run    func(ctx context.Context) ([]catalog.Item, error)
	source string
	label  string
}

type taskResult struct {
	err   error
	items []catalog.Item
}

// lookup runs the shared part of a search and stores the result in the
// cache. It runs on a context detached from any single caller.
func (s *Service) lookup(
	ctx context.Context,
	key string,
	gen uint64,
	normalized string,
	limit int,
	fast bool,
) (cacheEntry, error) {
	// a flight that started just after another one finished finds its
	// result here instead of looking up again
	if entry, ok := s.cache.get(key); ok {
		entry.metrics.CacheHit = true
		return entry, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.LookupTimeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return cacheEntry{}, fmt.Errorf("failed to acquire lookup slot: %w", err)
	}
	defer s.sem.Release(1)

	p := s.pipeline.Load()
	fr := p.detector.Detect(normalized)
	variants := query.Expand(normalized, fr.Expansions, s.settings.MaxExpansions)

	m := Metrics{
		Normalized:      normalized,
		Franchise:       fr.ID,
		Variants:        variants,
		ExternalSkipped: fast,
	}

	tasks := s.planLookups(normalized, variants, fast)
	m.Lookups = len(tasks)

	lookupStart := s.clock.Now()
	results := s.runLookups(ctx, tasks)
	m.LookupDuration = s.clock.Since(lookupStart)

	var local, external []catalog.Item
	localOK, externalOK := false, false
	externalTried := false
	for i, t := range tasks {
		r := results[i]
		searchLookups.WithLabelValues(t.source).Inc()
		if t.source == sourceExternal {
			externalTried = true
		}
		if r.err != nil {
			searchLookupFailures.WithLabelValues(t.source).Inc()
			log.Warn().Err(r.err).Str("source", t.source).Str("lookup", t.label).
				Msg("search lookup failed")
			continue
		}
		if t.source == sourceLocal {
			localOK = true
			local = append(local, r.items...)
		} else {
			externalOK = true
			external = append(external, r.items...)
		}
	}
	m.LocalFailed = !localOK
	m.ExternalFailed = externalTried && !externalOK
	m.LocalCount = len(local)
	m.ExternalCount = len(external)
	if !localOK && !externalOK {
		return cacheEntry{}, ErrSourcesUnavailable
	}

	rankStart := s.clock.Now()
	merged := ranking.Merge(local, external)
	m.Merged = len(merged)
	s.resolveBaseReleases(ctx, merged)

	passed, _ := p.filter.Apply(merged)
	m.Filtered = len(merged) - len(passed)
	searchFiltered.Add(float64(m.Filtered))

	candidates := make([]ranking.Candidate, 0, len(passed))
	for i := range passed {
		b := p.scorer.Score(normalized, fr, &passed[i])
		if !p.scorer.Accept(b, fr.IsFranchise) {
			m.Rejected++
			continue
		}
		candidates = append(candidates, ranking.Candidate{Item: passed[i], Score: b})
	}

	ranked := p.ranker.Rank(candidates, limit)
	m.Returned = len(ranked)
	m.RankDuration = s.clock.Since(rankStart)

	// a degraded result is served but not cached, so the next search
	// retries the failed source
	if !m.LocalFailed && !m.ExternalFailed {
		if s.cache.set(key, gen, ranked, m) {
			searchCacheEntries.Set(float64(s.cache.len()))
		}
	}

	return cacheEntry{results: ranked, metrics: m}, nil
}

// planLookups spends the lookup budget: one exact-name lookup, external
// lookups for the first variants unless in fast mode, and local text
// lookups for as many variants as the remaining budget allows.
func (s *Service) planLookups(normalized string, variants []string, fast bool) []lookupTask {
	budget := s.settings.LookupBudget
	tasks := make([]lookupTask, 0, budget)

	tasks = append(tasks, lookupTask{
		source: sourceLocal,
		label:  "exact:" + normalized,
		run: func(ctx context.Context) ([]catalog.Item, error) {
			return s.store.FindByExactName(ctx, normalized)
		},
	})

	var externalVariants []string
	if !fast {
		externalVariants = variants[:min(len(variants), s.settings.ExternalBudget)]
	}
	localBudget := budget - len(tasks) - len(externalVariants)
	for _, v := range variants[:min(len(variants), localBudget)] {
		tasks = append(tasks, lookupTask{
			source: sourceLocal,
			label:  "text:" + v,
			run: func(ctx context.Context) ([]catalog.Item, error) {
				return s.store.FindByText(ctx, v, s.settings.LocalPerLookup)
			},
		})
	}
	for _, v := range externalVariants {
		tasks = append(tasks, lookupTask{
			source: sourceExternal,
			label:  "external:" + v,
			run: func(ctx context.Context) ([]catalog.Item, error) {
				ctx, cancel := context.WithTimeout(ctx, s.settings.ExternalTimeout)
				defer cancel()
				return s.external.Search(ctx, v, s.settings.ExternalLimit)
			},
		})
	}
	return tasks
}

// runLookups runs tasks concurrently. Each result lands in its task's slot
// so merge order does not depend on timing.
func (s *Service) runLookups(ctx context.Context, tasks []lookupTask) []taskResult {
	results := make([]taskResult, len(tasks))

	var g errgroup.Group
	g.SetLimit(lookupConcurrency)
	for i, t := range tasks {
		g.Go(func() error {
			items, err := t.run(ctx)
			results[i] = taskResult{items: items, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// resolveBaseReleases fills the base release dates of items whose parent
// game is known only by id, typically mods found on the external catalog,
// from the parent's locally stored dates. A failure leaves them without
// base dates.
func (s *Service) resolveBaseReleases(ctx context.Context, items []catalog.Item) {
	var parents []int64
	for i := range items {
		it := &items[i]
		if it.ParentExternalID != 0 && len(it.BaseReleaseDates) == 0 &&
			!slices.Contains(parents, it.ParentExternalID) {
			parents = append(parents, it.ParentExternalID)
		}
	}
	if len(parents) == 0 {
		return
	}

	dates, err := s.store.ReleaseDatesByExternalID(ctx, parents)
	if err != nil {
		searchLookupFailures.WithLabelValues(sourceLocal).Inc()
		log.Warn().Err(err).Int("parents", len(parents)).Msg("failed to resolve base release dates")
		return
	}
	for i := range items {
		it := &items[i]
		if it.ParentExternalID != 0 && len(it.BaseReleaseDates) == 0 {
			it.BaseReleaseDates = slices.Clone(dates[it.ParentExternalID])
		}
	}
}
