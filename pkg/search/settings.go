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
	"errors"
	"fmt"
	"time"

	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/query"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
)

const (
	DefaultLimit          = 20
	MaxLimit              = 100
	DefaultMinQueryLength = 2
	DefaultCacheTTL       = 30 * time.Minute
	DefaultCacheEntries   = 1000
	DefaultLookupBudget   = 8
	DefaultExternalBudget = 2
	DefaultMaxInFlight    = 16
	DefaultExternalTO     = 3 * time.Second
	DefaultLookupTO       = 10 * time.Second
	DefaultLocalPerLookup = 50
	DefaultExternalLimit  = 50
)

// Settings configures a search service. Start from DefaultSettings.
type Settings struct {
	Flagships       *franchise.FlagshipTable
	Filters         []filter.Rule
	Policies        []filter.Policy
	Franchises      []franchise.Pattern
	Ranking         ranking.Config
	Relevance       relevance.Config
	DefaultLimit    int
	MaxLimit        int
	MinQueryLength  int
	MaxExpansions   int
	LookupBudget    int
	ExternalBudget  int
	LocalPerLookup  int
	ExternalLimit   int
	MaxInFlight     int64
	CacheEntries    int
	CacheTTL        time.Duration
	ExternalTimeout time.Duration
	LookupTimeout   time.Duration
}

// DefaultSettings returns settings built from the shipped defaults. The
// flagship table is left nil; New loads the embedded one in that case.
func DefaultSettings() Settings {
	return Settings{
		Filters:         filter.DefaultRules(),
		Policies:        filter.DefaultPolicies(),
		Franchises:      franchise.DefaultPatterns(),
		Relevance:       relevance.DefaultConfig(),
		Ranking:         ranking.DefaultConfig(),
		DefaultLimit:    DefaultLimit,
		MaxLimit:        MaxLimit,
		MinQueryLength:  DefaultMinQueryLength,
		MaxExpansions:   query.MaxExpansions,
		LookupBudget:    DefaultLookupBudget,
		ExternalBudget:  DefaultExternalBudget,
		LocalPerLookup:  DefaultLocalPerLookup,
		ExternalLimit:   DefaultExternalLimit,
		MaxInFlight:     DefaultMaxInFlight,
		CacheEntries:    DefaultCacheEntries,
		CacheTTL:        DefaultCacheTTL,
		ExternalTimeout: DefaultExternalTO,
		LookupTimeout:   DefaultLookupTO,
	}
}

var ErrInvalidSettings = errors.New("invalid search settings")

func (s *Settings) validate() error {
	switch {
	case s.DefaultLimit <= 0 || s.MaxLimit <= 0:
		return fmt.Errorf("%w: limits must be positive", ErrInvalidSettings)
	case s.DefaultLimit > s.MaxLimit:
		return fmt.Errorf("%w: default limit exceeds max limit", ErrInvalidSettings)
	case s.MinQueryLength < 1:
		return fmt.Errorf("%w: min query length must be at least 1", ErrInvalidSettings)
	case s.MaxExpansions < 1 || s.MaxExpansions > query.MaxExpansions:
		return fmt.Errorf("%w: max expansions must be between 1 and %d", ErrInvalidSettings, query.MaxExpansions)
	case s.LookupBudget < 2:
		return fmt.Errorf("%w: lookup budget must be at least 2", ErrInvalidSettings)
	case s.ExternalBudget < 0 || s.ExternalBudget >= s.LookupBudget:
		return fmt.Errorf("%w: external budget must be below the lookup budget", ErrInvalidSettings)
	case s.LocalPerLookup <= 0 || s.ExternalLimit <= 0:
		return fmt.Errorf("%w: per-lookup limits must be positive", ErrInvalidSettings)
	case s.MaxInFlight <= 0:
		return fmt.Errorf("%w: max in-flight must be positive", ErrInvalidSettings)
	case s.CacheEntries <= 0 || s.CacheTTL <= 0:
		return fmt.Errorf("%w: cache size and ttl must be positive", ErrInvalidSettings)
	case s.ExternalTimeout <= 0 || s.LookupTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidSettings)
	default:
		return nil
	}
}
