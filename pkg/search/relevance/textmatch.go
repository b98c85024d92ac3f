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
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
)

// MatchKind classifies how a query matched a title.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchPrefix   MatchKind = "prefix"
	MatchContains MatchKind = "contains"
	MatchWords    MatchKind = "words"
	MatchFuzzy    MatchKind = "fuzzy"
	MatchNone     MatchKind = "none"
)

// rank orders kinds so equal scores prefer the stronger kind
func (k MatchKind) rank() int {
	switch k {
	case MatchExact:
		return 5
	case MatchPrefix:
		return 4
	case MatchContains:
		return 3
	case MatchWords:
		return 2
	case MatchFuzzy:
		return 1
	default:
		return 0
	}
}

// Strong reports whether the whole query appeared in the title.
func (k MatchKind) Strong() bool {
	return k == MatchExact || k == MatchPrefix || k == MatchContains
}

// words in the rest of a title that mark it as a variant or add-on of the
// base game
var extraContentWords = map[string]struct{}{
	"edition": {}, "remaster": {}, "remastered": {}, "deluxe": {}, "goty": {},
	"definitive": {}, "complete": {}, "collection": {}, "anniversary": {},
	"hd": {}, "dlc": {}, "pack": {}, "bundle": {}, "soundtrack": {},
	"expansion": {}, "ultimate": {}, "premium": {}, "gold": {}, "special": {},
	"enhanced": {}, "directors": {}, "season": {}, "pass": {},
}

func hasExtraContent(rest string) bool {
	for _, w := range strings.Fields(rest) {
		if _, ok := extraContentWords[w]; ok {
			return true
		}
	}
	// multi-word form
	return strings.Contains(" "+rest+" ", " game of the year ")
}

type textMatch struct {
	kind  MatchKind
	score float64
}

// matchText scores a normalized query against one normalized title.
func (c *Config) matchText(q, title string) textMatch {
	if q == "" || title == "" {
		return textMatch{kind: MatchNone}
	}
	if q == title {
		return textMatch{kind: MatchExact, score: c.ExactScore}
	}

	if rest, ok := strings.CutPrefix(title, q+" "); ok {
		score := c.PrefixScore
		if hasExtraContent(rest) {
			score *= 1 - c.ExtraContentCut
		}
		return textMatch{kind: MatchPrefix, score: score}
	}

	padded := " " + title + " "
	if idx := strings.Index(padded, " "+q+" "); idx >= 0 {
		rest := padded[:idx] + padded[idx+len(q)+1:]
		ratio := float64(len(q)) / float64(len(title))
		score := c.ContainsBase + c.ContainsRatio*ratio
		if hasExtraContent(rest) {
			score *= 1 - c.ExtraContentCut
		}
		return textMatch{kind: MatchContains, score: score}
	}

	best := textMatch{kind: MatchNone}
	if frac := wordOverlap(q, title); frac > 0 {
		best = textMatch{kind: MatchWords, score: c.WordsScore * frac}
	}

	similarity := float64(edlib.JaroWinklerSimilarity(q, title))
	if similarity >= c.FuzzyMinSimilarity {
		score := c.FuzzyScore * similarity
		log.Debug().
			Str("query", q).
			Str("title", title).
			Float64("similarity", similarity).
			Msg("fuzzy title match")
		if score > best.score {
			best = textMatch{kind: MatchFuzzy, score: score}
		}
	}
	return best
}

// wordOverlap returns the fraction of query words found among the title's
// words. A query word of three or more letters also matches a title word it
// prefixes, so "zeld" finds "zelda".
func wordOverlap(q, title string) float64 {
	qWords := strings.Fields(q)
	tWords := strings.Fields(title)
	if len(qWords) == 0 {
		return 0
	}
	found := 0
	for _, qw := range qWords {
		for _, tw := range tWords {
			if tw == qw || (len(qw) >= 3 && strings.HasPrefix(tw, qw)) {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(qWords))
}
