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

package filter

import "github.com/gamedex/gamedex-core/pkg/catalog"

// DefaultRules is the rule set written to a new config file.
func DefaultRules() []Rule {
	minRating := 60.0
	minRatingCount := 5
	return []Rule{
		{
			ID:       "category-noise",
			Type:     RuleCategory,
			Enabled:  true,
			Priority: 100,
			Categories: &CategoryCondition{
				Mode: CategoryExclude,
				Categories: []catalog.Category{
					catalog.CategoryBundle,
					catalog.CategorySeason,
					catalog.CategoryPack,
					catalog.CategoryUpdate,
				},
			},
		},
		{
			ID:       "ereader-cards",
			Type:     RuleContentPattern,
			Enabled:  true,
			Priority: 90,
			Patterns: &PatternCondition{Patterns: []string{
				`(?i)\be-?reader\b`,
				`(?i)\bcard[\s-]?e\b`,
				`(?i)\bpromo(tional)?\s+cards?\b`,
			}},
		},
		{
			ID:       "rom-hacks",
			Type:     RuleContentPattern,
			Enabled:  true,
			Priority: 80,
			Patterns: &PatternCondition{Patterns: []string{
				`(?i)\brom\s*hack\b`,
				`(?i)\bhacked\s+rom\b`,
			}},
		},
		{
			ID:       "dlc-noise",
			Type:     RuleCategory,
			Enabled:  false,
			Priority: 50,
			Categories: &CategoryCondition{
				Mode:       CategoryExclude,
				Categories: []catalog.Category{catalog.CategoryDLC},
			},
		},
		{
			ID:       "unreleased",
			Type:     RuleReleaseStatus,
			Enabled:  false,
			Priority: 40,
			Release: &ReleaseCondition{
				Allowed: []catalog.ReleaseStatus{
					catalog.StatusReleased,
					catalog.StatusEarlyAccess,
					catalog.StatusDelisted,
				},
				AllowUnknown: true,
			},
		},
		{
			ID:       "min-quality",
			Type:     RuleQualityThreshold,
			Enabled:  false,
			Priority: 10,
			Quality: &QualityCondition{
				MinRating:      &minRating,
				MinRatingCount: &minRatingCount,
			},
		},
	}
}

// DefaultPolicies is the copyright table written to a new config file.
func DefaultPolicies() []Policy {
	return []Policy{
		{Company: "Nintendo", Tier: TierAggressive, Aliases: []string{"Game Freak", "HAL Laboratory", "Intelligent Systems"}},
		{Company: "The Pokemon Company", Tier: TierAggressive},
		{Company: "Take-Two Interactive", Tier: TierAggressive, Aliases: []string{"Rockstar Games"}},
		{Company: "Square Enix", Tier: TierModerate, RecencyYears: DefaultRecencyYears},
		{Company: "CD Projekt", Tier: TierModerate, RecencyYears: DefaultRecencyYears, Aliases: []string{"CD Projekt Red"}},
		{Company: "Capcom", Tier: TierModerate, RecencyYears: DefaultRecencyYears},
		{Company: "Bethesda", Tier: TierModFriendly, Aliases: []string{"Bethesda Softworks", "Bethesda Game Studios"}},
		{Company: "Valve", Tier: TierModFriendly},
		{Company: "Paradox Interactive", Tier: TierModFriendly},
		{Company: "Mojang", Tier: TierModFriendly},
	}
}
