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

package relevance

import (
	"testing"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func scoredItemGen() *rapid.Generator[catalog.Item] {
	return rapid.Custom(func(t *rapid.T) catalog.Item {
		return catalog.Item{
			Name: rapid.SampledFrom([]string{
				"Mario Party 10", "Super Mario Bros. 3", "Halo", "Stardew Valley", "Final Fantasy VII",
			}).Draw(t, "name"),
			Rating:      catalog.Float(rapid.Float64Range(0, 100).Draw(t, "rating")),
			RatingCount: rapid.IntRange(0, 20000).Draw(t, "ratingCount"),
			Follows:     rapid.IntRange(0, 20000).Draw(t, "follows"),
			Hypes:       rapid.IntRange(0, 500).Draw(t, "hypes"),
		}
	})
}

// TestPropertyScoreMonotonic verifies raising rating, rating count, follows
// or hypes never lowers the total.
func TestPropertyScoreMonotonic(t *testing.T) {
	t.Parallel()

	s, err := NewScorer(DefaultConfig(), nil)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		q := rapid.SampledFrom([]string{"mario", "mario party", "halo", "final fantasy"}).Draw(t, "query")
		base := scoredItemGen().Draw(t, "item")
		before := s.Score(q, franchise.None, &base).Total

		better := base
		switch rapid.IntRange(0, 3).Draw(t, "field") {
		case 0:
			r := min(*base.Rating+rapid.Float64Range(0, 50).Draw(t, "dr"), 100)
			better.Rating = &r
		case 1:
			better.RatingCount += rapid.IntRange(0, 5000).Draw(t, "dc")
		case 2:
			better.Follows += rapid.IntRange(0, 5000).Draw(t, "df")
		default:
			better.Hypes += rapid.IntRange(0, 200).Draw(t, "dh")
		}

		after := s.Score(q, franchise.None, &better).Total
		if after < before {
			t.Fatalf("score dropped from %f to %f", before, after)
		}
	})
}

// TestPropertyScoreNonNegative verifies totals are never negative.
func TestPropertyScoreNonNegative(t *testing.T) {
	t.Parallel()

	s, err := NewScorer(DefaultConfig(), nil)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		q := rapid.StringMatching(`[a-z0-9 ]{1,20}`).Draw(t, "query")
		it := scoredItemGen().Draw(t, "item")
		if b := s.Score(q, franchise.None, &it); b.Total < 0 {
			t.Fatalf("negative total %f", b.Total)
		}
	})
}

// TestPropertyThresholdAsymmetry verifies anything accepted for a specific
// query is also accepted for a franchise query.
func TestPropertyThresholdAsymmetry(t *testing.T) {
	t.Parallel()

	s, err := NewScorer(DefaultConfig(), nil)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		b := Breakdown{
			Match:      rapid.SampledFrom([]MatchKind{MatchExact, MatchPrefix, MatchWords, MatchFuzzy}).Draw(t, "match"),
			Normalized: rapid.Float64Range(0, 1).Draw(t, "normalized"),
		}
		if s.Accept(b, false) && !s.Accept(b, true) {
			t.Fatalf("accepted as specific but not as franchise at %f", b.Normalized)
		}
	})
}
