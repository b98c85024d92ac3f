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

package query

import (
	"strings"
)

// MaxExpansions is the hard upper bound on variants per search, including
// the query itself.
const MaxExpansions = 8

var romanToDigit = map[string]string{
	"ii":   "2",
	"iii":  "3",
	"iv":   "4",
	"v":    "5",
	"vi":   "6",
	"vii":  "7",
	"viii": "8",
	"ix":   "9",
	"x":    "10",
	"xi":   "11",
	"xii":  "12",
	"xiii": "13",
	"xiv":  "14",
	"xv":   "15",
	"xvi":  "16",
}

var digitToRoman = func() map[string]string {
	m := make(map[string]string, len(romanToDigit))
	for r, d := range romanToDigit {
		m[d] = r
	}
	return m
}()

// leading articles dropped to form a variant
var articlePrefixes = []string{"the ", "a ", "an "}

// Expand returns the normalized query followed by its variants: numeral
// swaps, "and" forms, article-stripped forms and the supplied franchise
// expansion terms. The list is deduplicated and never longer than limit
// (clamped to MaxExpansions).
func Expand(normalized string, franchiseTerms []string, limit int) []string {
	if normalized == "" {
		return nil
	}
	if limit <= 0 || limit > MaxExpansions {
		limit = MaxExpansions
	}

	seen := make(map[string]struct{}, limit)
	out := make([]string, 0, limit)
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || len(out) >= limit {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(normalized)

	words := strings.Fields(normalized)
	if v, ok := swapNumerals(words); ok {
		add(v)
	}
	if v, ok := swapAnd(words); ok {
		add(v)
	}
	for _, prefix := range articlePrefixes {
		if rest, ok := strings.CutPrefix(normalized, prefix); ok {
			add(rest)
			break
		}
	}
	for _, term := range franchiseTerms {
		add(MustNormalize(term))
	}

	return out
}

// swapNumerals replaces the last numeral word with its roman or arabic
// counterpart. Only trailing-position numerals are swapped since "v" in the
// middle of a title is usually not a number.
func swapNumerals(words []string) (string, bool) {
	if len(words) < 2 {
		return "", false
	}
	last := words[len(words)-1]
	var repl string
	if d, ok := romanToDigit[last]; ok {
		repl = d
	} else if r, ok := digitToRoman[last]; ok {
		repl = r
	} else {
		return "", false
	}
	swapped := make([]string, len(words))
	copy(swapped, words)
	swapped[len(swapped)-1] = repl
	return strings.Join(swapped, " "), true
}

func swapAnd(words []string) (string, bool) {
	changed := false
	swapped := make([]string, len(words))
	for i, w := range words {
		switch w {
		case "and":
			swapped[i] = "n"
			changed = true
		case "n":
			swapped[i] = "and"
			changed = true
		default:
			swapped[i] = w
		}
	}
	if !changed {
		return "", false
	}
	return strings.Join(swapped, " "), true
}
