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
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/rs/zerolog/log"
)

// update applies change to a copy of the running configuration, rebuilds
// the pipeline and swaps it in, then clears the cache. On error the running
// pipeline is left untouched.
func (s *Service) update(what string, change func(cfg *pipelineConfig)) error {
	s.updateMu.Lock()
	defer s.updateMu.Unlock()

	cfg := s.pipeline.Load().cfg
	change(&cfg)

	next, err := s.buildPipeline(cfg)
	if err != nil {
		log.Warn().Err(err).Str("config", what).Msg("rejected search configuration update")
		return err
	}
	s.pipeline.Store(next)
	s.ClearCache()
	log.Info().Str("config", what).Msg("search configuration updated")
	return nil
}

// UpdateRules replaces the filter rules.
func (s *Service) UpdateRules(rules []filter.Rule) error {
	return s.update("filters", func(cfg *pipelineConfig) { cfg.rules = rules })
}

// UpdatePolicies replaces the copyright policy table.
func (s *Service) UpdatePolicies(policies []filter.Policy) error {
	return s.update("copyright", func(cfg *pipelineConfig) { cfg.policies = policies })
}

// UpdateRelevance replaces the relevance weights and thresholds.
func (s *Service) UpdateRelevance(rc relevance.Config) error {
	return s.update("relevance", func(cfg *pipelineConfig) { cfg.relevance = rc })
}

// UpdateRanking replaces the ranking tier boosts.
func (s *Service) UpdateRanking(rc ranking.Config) error {
	return s.update("ranking", func(cfg *pipelineConfig) { cfg.ranking = rc })
}

// UpdateFranchises replaces the ordered franchise patterns.
func (s *Service) UpdateFranchises(patterns []franchise.Pattern) error {
	return s.update("franchises", func(cfg *pipelineConfig) { cfg.patterns = patterns })
}

// UpdateFlagships replaces the flagship bonus table.
func (s *Service) UpdateFlagships(table *franchise.FlagshipTable) error {
	return s.update("flagships", func(cfg *pipelineConfig) { cfg.flagships = table })
}

// Rules returns the configured filter rules, including disabled ones.
func (s *Service) Rules() []filter.Rule {
	return s.pipeline.Load().cfg.rules
}

// Policies returns the configured copyright policies.
func (s *Service) Policies() []filter.Policy {
	return s.pipeline.Load().cfg.policies
}

// Relevance returns the active relevance configuration.
func (s *Service) Relevance() relevance.Config {
	return s.pipeline.Load().cfg.relevance
}

// Ranking returns the active ranking configuration.
func (s *Service) Ranking() ranking.Config {
	return s.pipeline.Load().cfg.ranking
}

// Franchises returns the active franchise patterns in evaluation order.
func (s *Service) Franchises() []franchise.Pattern {
	return s.pipeline.Load().cfg.patterns
}

// Flagships returns the active flagship table.
func (s *Service) Flagships() *franchise.FlagshipTable {
	return s.pipeline.Load().cfg.flagships
}
