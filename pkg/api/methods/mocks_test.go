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

package methods

import (
	"context"
	"net/http"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/gamedex/gamedex-core/pkg/service/catalogsync"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type mockSearch struct {
	mock.Mock
}

func (m *mockSearch) Search(ctx context.Context, raw string, opts search.Options) (*search.Response, error) {
	args := m.Called(ctx, raw, opts)
	resp, _ := args.Get(0).(*search.Response)
	return resp, args.Error(1)
}

func (m *mockSearch) UpdateRules(rules []filter.Rule) error {
	return m.Called(rules).Error(0)
}

func (m *mockSearch) UpdatePolicies(policies []filter.Policy) error {
	return m.Called(policies).Error(0)
}

func (m *mockSearch) UpdateRelevance(rc relevance.Config) error {
	return m.Called(rc).Error(0)
}

func (m *mockSearch) UpdateRanking(rc ranking.Config) error {
	return m.Called(rc).Error(0)
}

func (m *mockSearch) UpdateFranchises(patterns []franchise.Pattern) error {
	return m.Called(patterns).Error(0)
}

func (m *mockSearch) UpdateFlagships(table *franchise.FlagshipTable) error {
	return m.Called(table).Error(0)
}

func (m *mockSearch) Rules() []filter.Rule {
	rules, _ := m.Called().Get(0).([]filter.Rule)
	return rules
}

func (m *mockSearch) Policies() []filter.Policy {
	policies, _ := m.Called().Get(0).([]filter.Policy)
	return policies
}

func (m *mockSearch) Relevance() relevance.Config {
	rc, _ := m.Called().Get(0).(relevance.Config)
	return rc
}

func (m *mockSearch) Ranking() ranking.Config {
	rc, _ := m.Called().Get(0).(ranking.Config)
	return rc
}

func (m *mockSearch) Franchises() []franchise.Pattern {
	patterns, _ := m.Called().Get(0).([]franchise.Pattern)
	return patterns
}

func (m *mockSearch) Flagships() *franchise.FlagshipTable {
	table, _ := m.Called().Get(0).(*franchise.FlagshipTable)
	return table
}

func (m *mockSearch) ClearCache() {
	m.Called()
}

func (m *mockSearch) CacheLen() int {
	return m.Called().Int(0)
}

type mockItems struct {
	mock.Mock
}

func (m *mockItems) SetOverride(ctx context.Context, id int64, o catalog.Override) error {
	return m.Called(ctx, id, o).Error(0)
}

func (m *mockItems) SetRankFlag(ctx context.Context, id int64, f catalog.RankFlag) error {
	return m.Called(ctx, id, f).Error(0)
}

type mockConfig struct {
	mock.Mock
}

func (m *mockConfig) SetFilters(rules []filter.Rule) error {
	return m.Called(rules).Error(0)
}

func (m *mockConfig) SetCopyright(policies []filter.Policy) error {
	return m.Called(policies).Error(0)
}

func (m *mockConfig) SetRelevance(rc relevance.Config) error {
	return m.Called(rc).Error(0)
}

func (m *mockConfig) SetRanking(rc ranking.Config) error {
	return m.Called(rc).Error(0)
}

func (m *mockConfig) SetFranchises(patterns []franchise.Pattern) error {
	return m.Called(patterns).Error(0)
}

func (m *mockConfig) SetFlagships(entries []franchise.Flagship) error {
	return m.Called(entries).Error(0)
}

func (m *mockConfig) Save() error {
	return m.Called().Error(0)
}

type fakeSyncer struct {
	last    *catalogsync.Stats
	queued  bool
	running bool
}

func (f *fakeSyncer) Trigger() bool {
	return f.queued
}

func (f *fakeSyncer) Running() bool {
	return f.running
}

func (f *fakeSyncer) LastStats() (catalogsync.Stats, bool) {
	if f.last == nil {
		return catalogsync.Stats{}, false
	}
	return *f.last, true
}

// routed mounts h on a chi router so URL params resolve.
func routed(method, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	return r
}
