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
	"regexp"
	"strings"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/query"
)

// Breakdown is the decomposed score of one item for one query.
type Breakdown struct {
	Match       MatchKind `json:"match"`
	MatchedName string    `json:"matchedName,omitempty"`
	Text        float64   `json:"text"`
	Quality     float64   `json:"quality"`
	Authority   float64   `json:"authority"`
	Engagement  float64   `json:"engagement"`
	Flagship    float64   `json:"flagship"`
	Total       float64   `json:"total"`
	Normalized  float64   `json:"normalized"`
	Sequel      bool      `json:"sequel,omitempty"`
}

// Scorer computes relevance breakdowns. It is safe for concurrent use.
type Scorer struct {
	flagships *franchise.FlagshipTable
	cfg       Config
	maxScore  float64
}

// NewScorer validates cfg and builds a scorer. A nil flagship table gives no
// flagship bonuses.
func NewScorer(cfg Config, flagships *franchise.FlagshipTable) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg, flagships: flagships, maxScore: cfg.MaxScore()}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Flagships returns the scorer's flagship table.
func (s *Scorer) Flagships() *franchise.FlagshipTable {
	return s.flagships
}

// Score computes the breakdown for an item. q must be normalized.
func (s *Scorer) Score(q string, fr franchise.Result, it *catalog.Item) Breakdown {
	b := Breakdown{Match: MatchNone}

	title := query.MustNormalize(it.Name)
	names := make([]string, 0, 1+len(it.AlternativeNames))
	names = append(names, title)
	for _, alt := range it.AlternativeNames {
		if n := query.MustNormalize(alt); n != "" {
			names = append(names, n)
		}
	}
	for _, n := range names {
		m := s.cfg.matchText(q, n)
		if m.score > b.Text || (m.score == b.Text && m.kind.rank() > b.Match.rank()) {
			b.Text = m.score
			b.Match = m.kind
			b.MatchedName = n
		}
	}
	b.Sequel = isSequel(q, title)

	b.Quality = s.quality(it.Rating)
	b.Authority = stepBonus(s.cfg.AuthoritySteps, it.RatingCount)
	b.Engagement = stepBonus(s.cfg.HypeSteps, it.Hypes) + stepBonus(s.cfg.FollowSteps, it.Follows)

	if fr.IsFranchise {
		b.Flagship = min(s.flagships.Bonus(fr.ID, title), s.cfg.FlagshipCap)
	}

	b.Total = b.Text + b.Quality + b.Authority + b.Engagement + b.Flagship
	if s.maxScore > 0 {
		b.Normalized = b.Total / s.maxScore
	}
	return b
}

func (s *Scorer) quality(rating *float64) float64 {
	if rating == nil {
		return 0
	}
	r := min(max(*rating, 0), 100)
	var factor float64
	switch {
	case r >= s.cfg.EliteRating:
		factor = s.cfg.EliteFactor
	case r >= s.cfg.HighRating:
		factor = s.cfg.HighFactor
	case r >= s.cfg.GoodRating:
		factor = s.cfg.GoodFactor
	default:
		factor = s.cfg.AverageFactor
	}
	return r / 100 * s.cfg.QualityWeight * factor
}

// Threshold returns the acceptance threshold for a query kind.
func (s *Scorer) Threshold(isFranchise bool) float64 {
	if isFranchise {
		return s.cfg.FranchiseThreshold
	}
	return s.cfg.SpecificThreshold
}

// Accept reports whether a scored item is relevant enough to show. Items
// with no text match are only kept when they are flagship titles of the
// detected franchise.
func (s *Scorer) Accept(b Breakdown, isFranchise bool) bool {
	if b.Match == MatchNone && b.Flagship == 0 {
		return false
	}
	return b.Normalized >= s.Threshold(isFranchise)
}

var sequelSuffix = regexp.MustCompile(`^(\d{1,4}|i{1,3}|iv|v|vi{0,3}|ix|x|xi{0,3}|xiv|xv|xvi)$`)

// isSequel reports whether title is the query followed by a single number,
// as in "mario party" and "mario party 10".
func isSequel(q, title string) bool {
	rest, ok := strings.CutPrefix(title, q+" ")
	if !ok {
		return false
	}
	return sequelSuffix.MatchString(rest)
}
