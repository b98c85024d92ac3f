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

// Package relevance scores catalog items against a normalized query and
// decides whether they are relevant enough to be shown.
package relevance

import (
	"errors"
	"fmt"
)

// Step is one tier of a step function: counts at or above Min earn Bonus.
type Step struct {
	Min   int     `toml:"min" json:"min"`
	Bonus float64 `toml:"bonus" json:"bonus"`
}

// Config holds every weight, tier boundary and threshold used by the
// scorer. Zero values are not defaults; start from DefaultConfig.
type Config struct {
	AuthoritySteps []Step `toml:"authority_steps" json:"authoritySteps"`
	HypeSteps      []Step `toml:"hype_steps" json:"hypeSteps"`
	FollowSteps    []Step `toml:"follow_steps" json:"followSteps"`

	ExactScore         float64 `toml:"exact_score" json:"exactScore"`
	PrefixScore        float64 `toml:"prefix_score" json:"prefixScore"`
	ContainsBase       float64 `toml:"contains_base" json:"containsBase"`
	ContainsRatio      float64 `toml:"contains_ratio" json:"containsRatio"`
	WordsScore         float64 `toml:"words_score" json:"wordsScore"`
	FuzzyScore         float64 `toml:"fuzzy_score" json:"fuzzyScore"`
	FuzzyMinSimilarity float64 `toml:"fuzzy_min_similarity" json:"fuzzyMinSimilarity"`
	ExtraContentCut    float64 `toml:"extra_content_penalty" json:"extraContentPenalty"`

	QualityWeight float64 `toml:"quality_weight" json:"qualityWeight"`
	EliteRating   float64 `toml:"elite_rating" json:"eliteRating"`
	HighRating    float64 `toml:"high_rating" json:"highRating"`
	GoodRating    float64 `toml:"good_rating" json:"goodRating"`
	EliteFactor   float64 `toml:"elite_factor" json:"eliteFactor"`
	HighFactor    float64 `toml:"high_factor" json:"highFactor"`
	GoodFactor    float64 `toml:"good_factor" json:"goodFactor"`
	AverageFactor float64 `toml:"average_factor" json:"averageFactor"`

	FlagshipCap float64 `toml:"flagship_cap" json:"flagshipCap"`

	FranchiseThreshold float64 `toml:"franchise_threshold" json:"franchiseThreshold"`
	SpecificThreshold  float64 `toml:"specific_threshold" json:"specificThreshold"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		ExactScore:         100,
		PrefixScore:        80,
		ContainsBase:       40,
		ContainsRatio:      30,
		WordsScore:         40,
		FuzzyScore:         25,
		FuzzyMinSimilarity: 0.88,
		ExtraContentCut:    0.18,

		QualityWeight: 20,
		EliteRating:   90,
		HighRating:    80,
		GoodRating:    70,
		EliteFactor:   1.0,
		HighFactor:    0.85,
		GoodFactor:    0.7,
		AverageFactor: 0.5,

		AuthoritySteps: []Step{
			{Min: 10, Bonus: 2},
			{Min: 50, Bonus: 6},
			{Min: 200, Bonus: 12},
			{Min: 1000, Bonus: 20},
		},
		HypeSteps: []Step{
			{Min: 1, Bonus: 1},
			{Min: 10, Bonus: 4},
			{Min: 50, Bonus: 7},
			{Min: 100, Bonus: 10},
		},
		FollowSteps: []Step{
			{Min: 100, Bonus: 2},
			{Min: 1000, Bonus: 5},
			{Min: 5000, Bonus: 8},
		},

		FlagshipCap: 30,

		FranchiseThreshold: 0.08,
		SpecificThreshold:  0.12,
	}
}

var ErrInvalidConfig = errors.New("invalid relevance config")

// Validate rejects configurations that would break score monotonicity or
// threshold ordering.
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"exact_score":    c.ExactScore,
		"prefix_score":   c.PrefixScore,
		"contains_base":  c.ContainsBase,
		"contains_ratio": c.ContainsRatio,
		"words_score":    c.WordsScore,
		"fuzzy_score":    c.FuzzyScore,
		"quality_weight": c.QualityWeight,
		"flagship_cap":   c.FlagshipCap,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}
	if c.ExactScore <= 0 {
		return fmt.Errorf("%w: exact_score must be positive", ErrInvalidConfig)
	}
	if c.FuzzyMinSimilarity <= 0 || c.FuzzyMinSimilarity > 1 {
		return fmt.Errorf("%w: fuzzy_min_similarity must be in (0, 1]", ErrInvalidConfig)
	}
	if c.ExtraContentCut < 0 || c.ExtraContentCut >= 1 {
		return fmt.Errorf("%w: extra_content_penalty must be in [0, 1)", ErrInvalidConfig)
	}
	if !(c.GoodRating < c.HighRating && c.HighRating < c.EliteRating) {
		return fmt.Errorf("%w: rating tiers must increase good < high < elite", ErrInvalidConfig)
	}
	if !(0 <= c.AverageFactor && c.AverageFactor <= c.GoodFactor &&
		c.GoodFactor <= c.HighFactor && c.HighFactor <= c.EliteFactor) {
		return fmt.Errorf("%w: rating factors must not decrease with tier", ErrInvalidConfig)
	}
	for name, steps := range map[string][]Step{
		"authority_steps": c.AuthoritySteps,
		"hype_steps":      c.HypeSteps,
		"follow_steps":    c.FollowSteps,
	} {
		if err := validateSteps(steps); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
		}
	}
	if c.FranchiseThreshold < 0 || c.SpecificThreshold > 1 {
		return fmt.Errorf("%w: thresholds must be in [0, 1]", ErrInvalidConfig)
	}
	if c.FranchiseThreshold > c.SpecificThreshold {
		return fmt.Errorf("%w: franchise_threshold must not exceed specific_threshold", ErrInvalidConfig)
	}
	return nil
}

func validateSteps(steps []Step) error {
	for i, s := range steps {
		if s.Min < 0 || s.Bonus < 0 {
			return errors.New("negative step")
		}
		if i > 0 && (s.Min <= steps[i-1].Min || s.Bonus < steps[i-1].Bonus) {
			return errors.New("steps must be ordered by increasing min with non-decreasing bonus")
		}
	}
	return nil
}

// MaxScore is the theoretical maximum total score, used to normalize.
func (c *Config) MaxScore() float64 {
	return c.ExactScore +
		c.QualityWeight*c.EliteFactor +
		topStep(c.AuthoritySteps) +
		topStep(c.HypeSteps) +
		topStep(c.FollowSteps) +
		c.FlagshipCap
}

func topStep(steps []Step) float64 {
	if len(steps) == 0 {
		return 0
	}
	return steps[len(steps)-1].Bonus
}

func stepBonus(steps []Step, n int) float64 {
	bonus := 0.0
	for _, s := range steps {
		if n < s.Min {
			break
		}
		bonus = s.Bonus
	}
	return bonus
}
