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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	table, err := franchise.DefaultFlagships()
	require.NoError(t, err)
	s, err := NewScorer(DefaultConfig(), table)
	require.NoError(t, err)
	return s
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 188.0, cfg.MaxScore(), 0.001)
}

func TestConfigValidate_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "negative weight", mutate: func(c *Config) { c.WordsScore = -1 }},
		{name: "zero exact", mutate: func(c *Config) { c.ExactScore = 0 }},
		{name: "penalty too large", mutate: func(c *Config) { c.ExtraContentCut = 1 }},
		{name: "tiers out of order", mutate: func(c *Config) { c.HighRating = 95 }},
		{name: "factor decreases", mutate: func(c *Config) { c.EliteFactor = 0.6 }},
		{name: "steps unordered", mutate: func(c *Config) {
			c.AuthoritySteps = []Step{{Min: 50, Bonus: 6}, {Min: 10, Bonus: 2}}
		}},
		{name: "step bonus decreases", mutate: func(c *Config) {
			c.FollowSteps = []Step{{Min: 10, Bonus: 6}, {Min: 100, Bonus: 2}}
		}},
		{name: "thresholds inverted", mutate: func(c *Config) { c.FranchiseThreshold = 0.5 }},
		{name: "fuzzy similarity zero", mutate: func(c *Config) { c.FuzzyMinSimilarity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
			_, err := NewScorer(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestScore_TextMatchKinds(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)

	tests := []struct {
		query string
		title string
		want  MatchKind
	}{
		{query: "halo", title: "Halo", want: MatchExact},
		{query: "mario party", title: "Mario Party 10", want: MatchPrefix},
		{query: "mario", title: "Super Mario Bros. 3", want: MatchContains},
		{query: "mario party", title: "Super Mario Bros. 3", want: MatchWords},
		{query: "zeld", title: "Zelda II", want: MatchWords},
		{query: "castlevanai", title: "Castlevania", want: MatchFuzzy},
		{query: "halo", title: "Stardew Valley", want: MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.title, func(t *testing.T) {
			t.Parallel()
			b := s.Score(tt.query, franchise.None, &catalog.Item{Name: tt.title})
			assert.Equal(t, tt.want, b.Match)
		})
	}
}

func TestScore_TextScoresOrdered(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	score := func(q, title string) float64 {
		return s.Score(q, franchise.None, &catalog.Item{Name: title}).Text
	}

	exact := score("halo 3", "Halo 3")
	prefix := score("halo", "Halo 3")
	contains := score("halo", "Untitled Halo Game")
	words := score("halo wars", "Halo 3")
	assert.Greater(t, exact, prefix)
	assert.Greater(t, prefix, contains)
	assert.Greater(t, contains, words)
	assert.Positive(t, words)
	assert.Zero(t, score("halo", "Stardew Valley"))
}

func TestScore_ExtraContentPenalty(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	cfg := DefaultConfig()

	plain := s.Score("skyrim", franchise.None, &catalog.Item{Name: "Skyrim VR"}).Text
	edition := s.Score("skyrim", franchise.None, &catalog.Item{Name: "Skyrim Special Edition"}).Text
	assert.InDelta(t, cfg.PrefixScore, plain, 0.001)
	assert.InDelta(t, cfg.PrefixScore*(1-cfg.ExtraContentCut), edition, 0.001)

	goty := s.Score("witcher", franchise.None, &catalog.Item{Name: "The Witcher Game of the Year"}).Text
	noGoty := s.Score("witcher", franchise.None, &catalog.Item{Name: "The Witcher Adventure Game"}).Text
	assert.Less(t, goty, noGoty)
}

func TestScore_AlternativeNames(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	b := s.Score("biohazard 4", franchise.None, &catalog.Item{
		Name:             "Resident Evil 4",
		AlternativeNames: []string{"Biohazard 4"},
	})
	assert.Equal(t, MatchExact, b.Match)
	assert.Equal(t, "biohazard 4", b.MatchedName)
}

func TestScore_StepTiers(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	authority := func(n int) float64 {
		return s.Score("x", franchise.None, &catalog.Item{Name: "x", RatingCount: n}).Authority
	}
	assert.Zero(t, authority(9))
	assert.InDelta(t, 2.0, authority(10), 0.001)
	assert.InDelta(t, 6.0, authority(199), 0.001)
	assert.InDelta(t, 12.0, authority(200), 0.001)
	assert.InDelta(t, 20.0, authority(1_000_000), 0.001)

	// hype outweighs follows unit for unit
	hyped := s.Score("x", franchise.None, &catalog.Item{Name: "x", Hypes: 100}).Engagement
	followed := s.Score("x", franchise.None, &catalog.Item{Name: "x", Follows: 100}).Engagement
	assert.Greater(t, hyped, followed)
}

func TestScore_QualityTiers(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	quality := func(r float64) float64 {
		return s.Score("x", franchise.None, &catalog.Item{Name: "x", Rating: catalog.Float(r)}).Quality
	}
	assert.InDelta(t, 18.0, quality(90), 0.001)
	assert.InDelta(t, 13.94, quality(82), 0.001)
	assert.Greater(t, quality(90), quality(89.9))
	assert.Zero(t, s.Score("x", franchise.None, &catalog.Item{Name: "x"}).Quality)
}

func TestScore_FlagshipBonus(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	mario := franchise.Result{ID: "mario", IsFranchise: true}
	smb3 := &catalog.Item{Name: "Super Mario Bros. 3"}

	assert.InDelta(t, 26.0, s.Score("mario", mario, smb3).Flagship, 0.001)
	assert.Zero(t, s.Score("mario", franchise.None, smb3).Flagship)
	assert.Zero(t, s.Score("mario party", franchise.Result{ID: "mario-party", IsFranchise: true}, smb3).Flagship)
}

func TestScore_Sequel(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	assert.True(t, s.Score("mario party", franchise.None, &catalog.Item{Name: "Mario Party 10"}).Sequel)
	assert.True(t, s.Score("final fantasy", franchise.None, &catalog.Item{Name: "Final Fantasy VII"}).Sequel)
	assert.False(t, s.Score("mario", franchise.None, &catalog.Item{Name: "Mario Party 10"}).Sequel)
	assert.False(t, s.Score("halo", franchise.None, &catalog.Item{Name: "Halo Wars"}).Sequel)
}

func TestAccept(t *testing.T) {
	t.Parallel()

	s := newTestScorer(t)
	cfg := DefaultConfig()
	between := Breakdown{Match: MatchWords, Normalized: (cfg.FranchiseThreshold + cfg.SpecificThreshold) / 2}

	assert.True(t, s.Accept(between, true))
	assert.False(t, s.Accept(between, false))

	noText := Breakdown{Match: MatchNone, Quality: 20, Authority: 20, Normalized: 0.5}
	assert.False(t, s.Accept(noText, true))

	flagshipOnly := Breakdown{Match: MatchNone, Flagship: 26, Normalized: 0.14}
	assert.True(t, s.Accept(flagshipOnly, true))
}
