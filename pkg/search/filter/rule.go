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

// Package filter decides which catalog items may appear in search results.
// Items are checked against an ordered list of configurable rules and a
// copyright policy table; manual overrides on the item take precedence over
// both.
package filter

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/helpers"
	"github.com/go-playground/validator/v10"
)

// RuleType selects how a rule's condition is interpreted.
type RuleType string

const (
	RuleCategory         RuleType = "category"
	RuleContentPattern   RuleType = "content_pattern"
	RuleQualityThreshold RuleType = "quality_threshold"
	RuleReleaseStatus    RuleType = "release_status"
	RuleCustom           RuleType = "custom"

	// reasons that are not rule types
	ReasonOverride  RuleType = "override"
	ReasonCopyright RuleType = "copyright"
)

// CategoryMode selects whether a category list is an allow-list or a
// deny-list.
type CategoryMode string

const (
	CategoryInclude CategoryMode = "include"
	CategoryExclude CategoryMode = "exclude"
)

// CategoryCondition passes items whose category is (include) or is not
// (exclude) in the list.
type CategoryCondition struct {
	Mode       CategoryMode       `toml:"mode" json:"mode" validate:"required,oneof=include exclude"`
	Categories []catalog.Category `toml:"categories" json:"categories" validate:"required,min=1"`
}

// PatternCondition fails items whose name matches any regular expression.
type PatternCondition struct {
	Patterns []string `toml:"patterns" json:"patterns" validate:"required,min=1"`
}

// QualityCondition fails items below any configured minimum. A missing
// value fails a configured minimum.
type QualityCondition struct {
	MinRating      *float64 `toml:"min_rating,omitempty" json:"minRating,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinRatingCount *int     `toml:"min_rating_count,omitempty" json:"minRatingCount,omitempty" validate:"omitempty,gte=0"`
	MinFollows     *int     `toml:"min_follows,omitempty" json:"minFollows,omitempty" validate:"omitempty,gte=0"`
}

// ReleaseCondition fails items whose release status is not allowed.
type ReleaseCondition struct {
	Allowed      []catalog.ReleaseStatus `toml:"allowed" json:"allowed" validate:"required,min=1"`
	AllowUnknown bool                    `toml:"allow_unknown" json:"allowUnknown"`
}

// CustomCondition is a boolean expression over item fields; the item passes
// when it evaluates to true. See predicate.go for the available fields.
type CustomCondition struct {
	Expr string `toml:"expr" json:"expr" validate:"required"`
}

// Rule is one configurable filter rule. Exactly the condition matching Type
// must be set.
type Rule struct {
	Categories *CategoryCondition `toml:"categories,omitempty" json:"categories,omitempty"`
	Patterns   *PatternCondition  `toml:"patterns,omitempty" json:"patterns,omitempty"`
	Quality    *QualityCondition  `toml:"quality,omitempty" json:"quality,omitempty"`
	Release    *ReleaseCondition  `toml:"release,omitempty" json:"release,omitempty"`
	Custom     *CustomCondition   `toml:"custom,omitempty" json:"custom,omitempty"`
	ID         string             `toml:"id" json:"id" validate:"required"`
	Type       RuleType           `toml:"type" json:"type" validate:"required,oneof=category content_pattern quality_threshold release_status custom"`
	Priority   int                `toml:"priority" json:"priority"`
	Enabled    bool               `toml:"enabled" json:"enabled"`
}

var (
	ErrInvalidRule   = errors.New("invalid filter rule")
	ErrInvalidPolicy = errors.New("invalid copyright policy")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateRules rejects malformed rules: missing ids, duplicate ids, a
// condition payload that does not match the type, unknown categories,
// uncompilable regular expressions and expressions that are not boolean.
// Disabled rules are validated too so they can be enabled safely later.
func ValidateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i := range rules {
		r := &rules[i]
		if err := validate.Struct(r); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidRule, r.ID, err)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidRule, r.ID)
		}
		seen[r.ID] = struct{}{}
		if err := validateCondition(r); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidRule, r.ID, err)
		}
	}
	return nil
}

func validateCondition(r *Rule) error {
	set := 0
	for _, present := range []bool{
		r.Categories != nil, r.Patterns != nil, r.Quality != nil, r.Release != nil, r.Custom != nil,
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("expected exactly one condition, got %d", set)
	}

	switch r.Type {
	case RuleCategory:
		if r.Categories == nil {
			return errors.New("category rule requires categories condition")
		}
		for _, c := range r.Categories.Categories {
			if !c.Valid() {
				return fmt.Errorf("unknown category %q", c)
			}
		}
	case RuleContentPattern:
		if r.Patterns == nil {
			return errors.New("content_pattern rule requires patterns condition")
		}
		for _, p := range r.Patterns.Patterns {
			if _, err := helpers.GlobalRegexCache.Compile(p); err != nil {
				return fmt.Errorf("bad pattern: %w", err)
			}
		}
	case RuleQualityThreshold:
		q := r.Quality
		if q == nil {
			return errors.New("quality_threshold rule requires quality condition")
		}
		if q.MinRating == nil && q.MinRatingCount == nil && q.MinFollows == nil {
			return errors.New("quality condition sets no minimum")
		}
	case RuleReleaseStatus:
		if r.Release == nil {
			return errors.New("release_status rule requires release condition")
		}
		known := []catalog.ReleaseStatus{
			catalog.StatusReleased, catalog.StatusAlpha, catalog.StatusBeta,
			catalog.StatusEarlyAccess, catalog.StatusOffline, catalog.StatusCancelled,
			catalog.StatusRumored, catalog.StatusDelisted,
		}
		for _, s := range r.Release.Allowed {
			if !slices.Contains(known, s) {
				return fmt.Errorf("unknown release status %q", s)
			}
		}
	case RuleCustom:
		if r.Custom == nil {
			return errors.New("custom rule requires custom condition")
		}
		if _, err := compilePredicate(r.Custom.Expr); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown rule type %q", r.Type)
	}
	return nil
}

// SortRules orders rules by descending priority with the id as tie-break so
// evaluation order is total and deterministic.
func SortRules(rules []Rule) []Rule {
	out := slices.Clone(rules)
	slices.SortStableFunc(out, func(a, b Rule) int {
		if a.Priority != b.Priority {
			return b.Priority - a.Priority
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}
