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

package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/gamedex/gamedex-core/pkg/search"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/spf13/afero"
)

// Search configures the search coordinator. Durations are strings such as
// "30m" or "3s".
type Search struct {
	DefaultLimit    *int   `toml:"default_limit,omitempty" validate:"omitempty,min=1"`
	MaxLimit        *int   `toml:"max_limit,omitempty" validate:"omitempty,min=1"`
	MinQueryLength  *int   `toml:"min_query_length,omitempty" validate:"omitempty,min=1"`
	MaxExpansions   *int   `toml:"max_expansions,omitempty" validate:"omitempty,min=1,max=8"`
	LookupBudget    *int   `toml:"lookup_budget,omitempty" validate:"omitempty,min=2"`
	ExternalBudget  *int   `toml:"external_budget,omitempty" validate:"omitempty,min=0"`
	MaxInFlight     *int   `toml:"max_in_flight,omitempty" validate:"omitempty,min=1"`
	CacheEntries    *int   `toml:"cache_entries,omitempty" validate:"omitempty,min=1"`
	CacheTTL        string `toml:"cache_ttl,omitempty"`
	ExternalTimeout string `toml:"external_timeout,omitempty"`
	LookupTimeout   string `toml:"lookup_timeout,omitempty"`
}

// Flagships replaces the built-in flagship table. Entries, written by the
// admin API, win over the CSV file at Path.
type Flagships struct {
	Path    string               `toml:"path,omitempty"`
	Entries []franchise.Flagship `toml:"entries,omitempty" validate:"omitempty,dive"`
}

type searchDurations struct {
	cacheTTL        time.Duration
	externalTimeout time.Duration
	lookupTimeout   time.Duration
}

func parseDuration(name, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

func (s *Search) durations() (searchDurations, error) {
	var out searchDurations
	var err error
	if out.cacheTTL, err = parseDuration("cache_ttl", s.CacheTTL, search.DefaultCacheTTL); err != nil {
		return out, err
	}
	if out.externalTimeout, err = parseDuration(
		"external_timeout", s.ExternalTimeout, search.DefaultExternalTO,
	); err != nil {
		return out, err
	}
	if out.lookupTimeout, err = parseDuration(
		"lookup_timeout", s.LookupTimeout, search.DefaultLookupTO,
	); err != nil {
		return out, err
	}
	return out, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// SearchSettings builds search coordinator settings from the config,
// falling back to the defaults for anything unset. The flagship override
// file, when configured and no inline entries are set, is read from fs.
func (c *Instance) SearchSettings(fs afero.Fs) (search.Settings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := search.DefaultSettings()
	cs := c.vals.Search
	setInt(&s.DefaultLimit, cs.DefaultLimit)
	setInt(&s.MaxLimit, cs.MaxLimit)
	setInt(&s.MinQueryLength, cs.MinQueryLength)
	setInt(&s.MaxExpansions, cs.MaxExpansions)
	setInt(&s.LookupBudget, cs.LookupBudget)
	setInt(&s.ExternalBudget, cs.ExternalBudget)
	setInt(&s.CacheEntries, cs.CacheEntries)
	if cs.MaxInFlight != nil {
		s.MaxInFlight = int64(*cs.MaxInFlight)
	}

	d, err := cs.durations()
	if err != nil {
		return search.Settings{}, err
	}
	s.CacheTTL = d.cacheTTL
	s.ExternalTimeout = d.externalTimeout
	s.LookupTimeout = d.lookupTimeout

	s.Filters = c.filtersLocked()
	s.Policies = c.copyrightLocked()
	s.Franchises = c.franchisesLocked()
	s.Relevance = c.relevanceLocked()
	s.Ranking = c.rankingLocked()

	if entries := c.vals.Flagships.Entries; len(entries) > 0 {
		table, err := franchise.NewFlagshipTable(entries)
		if err != nil {
			return search.Settings{}, fmt.Errorf("failed to build flagships: %w", err)
		}
		s.Flagships = table
	} else if path := c.vals.Flagships.Path; path != "" {
		table, err := franchise.LoadFlagships(fs, path)
		if err != nil {
			return search.Settings{}, fmt.Errorf("failed to load flagships: %w", err)
		}
		s.Flagships = table
	}

	return s, nil
}

func (c *Instance) filtersLocked() []filter.Rule {
	if c.vals.Filters == nil {
		return filter.DefaultRules()
	}
	return slices.Clone(c.vals.Filters)
}

func (c *Instance) copyrightLocked() []filter.Policy {
	if c.vals.Copyright == nil {
		return filter.DefaultPolicies()
	}
	return slices.Clone(c.vals.Copyright)
}

func (c *Instance) franchisesLocked() []franchise.Pattern {
	if c.vals.Franchises == nil {
		return franchise.DefaultPatterns()
	}
	return slices.Clone(c.vals.Franchises)
}

func (c *Instance) relevanceLocked() relevance.Config {
	if c.vals.Relevance == nil {
		return relevance.DefaultConfig()
	}
	return *c.vals.Relevance
}

func (c *Instance) rankingLocked() ranking.Config {
	if c.vals.Ranking == nil {
		return ranking.DefaultConfig()
	}
	return *c.vals.Ranking
}

// Filters returns the configured filter rules, or the built-in rules when
// none are configured.
func (c *Instance) Filters() []filter.Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filtersLocked()
}

func (c *Instance) Copyright() []filter.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyrightLocked()
}

func (c *Instance) Relevance() relevance.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.relevanceLocked()
}

func (c *Instance) Ranking() ranking.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rankingLocked()
}

func (c *Instance) Franchises() []franchise.Pattern {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.franchisesLocked()
}

// SetFilters replaces the filter rules after validating them.
func (c *Instance) SetFilters(rules []filter.Rule) error {
	if err := filter.ValidateRules(rules); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Filters = slices.Clone(rules)
	if c.vals.Filters == nil {
		c.vals.Filters = []filter.Rule{}
	}
	return nil
}

// SetCopyright replaces the copyright policies after validating them.
func (c *Instance) SetCopyright(policies []filter.Policy) error {
	if err := filter.ValidatePolicies(policies); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Copyright = slices.Clone(policies)
	if c.vals.Copyright == nil {
		c.vals.Copyright = []filter.Policy{}
	}
	return nil
}

// SetRelevance replaces the relevance weights after validating them.
//
//nolint:gocritic // config struct copied for immutability
func (c *Instance) SetRelevance(rc relevance.Config) error {
	if err := rc.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Relevance = &rc
	return nil
}

// SetRanking replaces the ranking tier boosts after validating them.
//
//nolint:gocritic // config struct copied for immutability
func (c *Instance) SetRanking(rc ranking.Config) error {
	if err := rc.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Ranking = &rc
	return nil
}

// SetFranchises replaces the ordered franchise patterns. At least one
// pattern is required; an empty list would read back as the defaults.
func (c *Instance) SetFranchises(patterns []franchise.Pattern) error {
	if len(patterns) == 0 {
		return fmt.Errorf("%w: no franchise patterns", franchise.ErrInvalidPattern)
	}
	if err := franchise.ValidatePatterns(patterns); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Franchises = slices.Clone(patterns)
	return nil
}

// SetFlagships stores the flagship table inline, replacing any configured
// CSV file.
func (c *Instance) SetFlagships(entries []franchise.Flagship) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no flagship entries", franchise.ErrInvalidFlagship)
	}
	if _, err := franchise.NewFlagshipTable(entries); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Flagships.Entries = slices.Clone(entries)
	return nil
}
