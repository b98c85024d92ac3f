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

// Package ranking merges candidates from the local store and the external
// catalog and orders them for display.
package ranking

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
)

// Tier is a discrete ranking class. Higher tiers get a larger boost.
type Tier string

const (
	TierFlagship Tier = "flagship"
	TierFamous   Tier = "famous"
	TierSequel   Tier = "sequel"
	TierPopular  Tier = "popular"
	TierRelevant Tier = "relevant"
	TierNiche    Tier = "niche"
	TierFallback Tier = "fallback"
)

// Config holds tier boosts and the signal thresholds that select tiers.
type Config struct {
	FlagshipBoost   float64 `toml:"flagship_boost" json:"flagshipBoost"`
	FamousBoost     float64 `toml:"famous_boost" json:"famousBoost"`
	SequelBoost     float64 `toml:"sequel_boost" json:"sequelBoost"`
	PopularBoost    float64 `toml:"popular_boost" json:"popularBoost"`
	RelevantBoost   float64 `toml:"relevant_boost" json:"relevantBoost"`
	NicheBoost      float64 `toml:"niche_boost" json:"nicheBoost"`
	GreenlightBoost float64 `toml:"greenlight_boost" json:"greenlightBoost"`

	FamousMinRating       float64 `toml:"famous_min_rating" json:"famousMinRating"`
	FamousMinRatingCount  int     `toml:"famous_min_rating_count" json:"famousMinRatingCount"`
	PopularMinRatingCount int     `toml:"popular_min_rating_count" json:"popularMinRatingCount"`
	PopularMinFollows     int     `toml:"popular_min_follows" json:"popularMinFollows"`
	PopularMinHypes       int     `toml:"popular_min_hypes" json:"popularMinHypes"`
}

// DefaultConfig returns the default boosts.
func DefaultConfig() Config {
	return Config{
		FlagshipBoost:   60,
		FamousBoost:     40,
		SequelBoost:     30,
		PopularBoost:    20,
		RelevantBoost:   10,
		NicheBoost:      5,
		GreenlightBoost: 1000,

		FamousMinRating:       85,
		FamousMinRatingCount:  1000,
		PopularMinRatingCount: 200,
		PopularMinFollows:     1000,
		PopularMinHypes:       50,
	}
}

var ErrInvalidConfig = errors.New("invalid ranking config")

// Validate checks boosts are non-negative and follow the tier order.
func (c *Config) Validate() error {
	boosts := []float64{
		c.FlagshipBoost, c.FamousBoost, c.SequelBoost, c.PopularBoost, c.RelevantBoost, c.NicheBoost, 0,
	}
	for i := range len(boosts) - 1 {
		if boosts[i] < boosts[i+1] {
			return fmt.Errorf("%w: tier boosts must not increase toward lower tiers", ErrInvalidConfig)
		}
	}
	if c.GreenlightBoost < 0 {
		return fmt.Errorf("%w: greenlight_boost must not be negative", ErrInvalidConfig)
	}
	if c.FamousMinRating < 0 || c.FamousMinRating > 100 {
		return fmt.Errorf("%w: famous_min_rating must be in [0, 100]", ErrInvalidConfig)
	}
	if c.FamousMinRatingCount < 0 || c.PopularMinRatingCount < 0 ||
		c.PopularMinFollows < 0 || c.PopularMinHypes < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) boost(t Tier) float64 {
	switch t {
	case TierFlagship:
		return c.FlagshipBoost
	case TierFamous:
		return c.FamousBoost
	case TierSequel:
		return c.SequelBoost
	case TierPopular:
		return c.PopularBoost
	case TierRelevant:
		return c.RelevantBoost
	case TierNiche:
		return c.NicheBoost
	default:
		return 0
	}
}

// Candidate is a filtered, scored item awaiting ranking.
type Candidate struct {
	Item  catalog.Item
	Score relevance.Breakdown
}

// Ranked is a candidate with its ranking decision.
type Ranked struct {
	Item     catalog.Item        `json:"item"`
	Tier     Tier                `json:"tier"`
	Score    relevance.Breakdown `json:"score"`
	Priority float64             `json:"priority"`
}

// Ranker orders candidates.
type Ranker struct {
	cfg Config
}

// NewRanker validates cfg and builds a ranker.
func NewRanker(cfg Config) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{cfg: cfg}, nil
}

// Config returns the ranker's configuration.
func (r *Ranker) Config() Config {
	return r.cfg
}

// TierOf classifies a candidate.
func (r *Ranker) TierOf(c *Candidate) Tier {
	it := &c.Item
	switch {
	case c.Score.Flagship > 0:
		return TierFlagship
	case it.RatingCount >= r.cfg.FamousMinRatingCount && it.Rating != nil &&
		*it.Rating >= r.cfg.FamousMinRating:
		return TierFamous
	case c.Score.Sequel:
		return TierSequel
	case it.RatingCount >= r.cfg.PopularMinRatingCount ||
		it.Follows >= r.cfg.PopularMinFollows ||
		it.Hypes >= r.cfg.PopularMinHypes:
		return TierPopular
	case c.Score.Match.Strong():
		return TierRelevant
	case c.Score.Match != relevance.MatchNone:
		return TierNiche
	default:
		return TierFallback
	}
}

// Rank drops redlighted candidates, computes total priority, sorts and
// truncates to limit. A limit of 0 or less keeps everything. Ties fall back
// to raw relevance, then rating, then input order.
func (r *Ranker) Rank(candidates []Candidate, limit int) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.Item.RankFlag == catalog.RankFlagRedlight {
			continue
		}
		tier := r.TierOf(c)
		priority := c.Score.Total + r.cfg.boost(tier)
		if c.Item.RankFlag == catalog.RankFlagGreenlight {
			priority += r.cfg.GreenlightBoost
		}
		out = append(out, Ranked{Item: c.Item, Score: c.Score, Tier: tier, Priority: priority})
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
			return c
		}
		return cmp.Compare(b.Item.RatingValue(), a.Item.RatingValue())
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
