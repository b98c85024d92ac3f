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

// Package methods implements the HTTP handlers of the search API.
package methods

import (
	"context"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/gamedex/gamedex-core/pkg/service/catalogsync"
)

// SearchService is the search coordinator as seen by the handlers.
type SearchService interface {
	Search(ctx context.Context, raw string, opts search.Options) (*search.Response, error)
	UpdateRules(rules []filter.Rule) error
	UpdatePolicies(policies []filter.Policy) error
	UpdateRelevance(rc relevance.Config) error
	UpdateRanking(rc ranking.Config) error
	UpdateFranchises(patterns []franchise.Pattern) error
	UpdateFlagships(table *franchise.FlagshipTable) error
	Rules() []filter.Rule
	Policies() []filter.Policy
	Relevance() relevance.Config
	Ranking() ranking.Config
	Franchises() []franchise.Pattern
	Flagships() *franchise.FlagshipTable
	ClearCache()
	CacheLen() int
}

// ItemFlagger writes moderation flags to the local catalog.
type ItemFlagger interface {
	SetOverride(ctx context.Context, id int64, o catalog.Override) error
	SetRankFlag(ctx context.Context, id int64, f catalog.RankFlag) error
}

// ConfigWriter persists admin configuration changes.
type ConfigWriter interface {
	SetFilters(rules []filter.Rule) error
	SetCopyright(policies []filter.Policy) error
	SetRelevance(rc relevance.Config) error
	SetRanking(rc ranking.Config) error
	SetFranchises(patterns []franchise.Pattern) error
	SetFlagships(entries []franchise.Flagship) error
	Save() error
}

// SyncTrigger starts catalog sync runs.
type SyncTrigger interface {
	Trigger() bool
	Running() bool
	LastStats() (catalogsync.Stats, bool)
}

// Env holds the dependencies shared by all handlers. Syncer is nil when
// catalog sync is disabled.
type Env struct {
	Search SearchService
	Items  ItemFlagger
	Config ConfigWriter
	Syncer SyncTrigger
}
