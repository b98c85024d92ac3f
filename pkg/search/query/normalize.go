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

// Package query turns raw user search text into the normalized form used as
// cache key and match input, and expands it into a bounded set of variants.
package query

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest normalized query, in runes.
const MaxLength = 200

// ErrEmptyQuery is returned when nothing searchable remains after
// normalization.
var ErrEmptyQuery = errors.New("empty query")

// removeDiacritics strips combining marks so "Pokémon" and "Pokemon" compare
// equal.
func removeDiacritics(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if normalized, _, err := transform.String(t, s); err == nil {
		return normalized
	}
	return s
}

// Normalize lowercases s, strips accents and punctuation, collapses
// whitespace and truncates overlong input at a word break. The result is
// deterministic and Normalize is idempotent on its own output.
func Normalize(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyQuery
	}

	s = norm.NFKC.String(s)
	s = removeDiacritics(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == '`':
			// apostrophes join: "assassin's" -> "assassins"
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	out = truncate(out, MaxLength)
	if out == "" {
		return "", ErrEmptyQuery
	}
	return out, nil
}

// MustNormalize normalizes s and returns an empty string for input that has
// nothing searchable. Used for titles, where an empty result is harmless.
func MustNormalize(s string) string {
	out, err := Normalize(s)
	if err != nil {
		return ""
	}
	return out
}

// truncate cuts s to at most limit runes, backing off to the last space so
// words are never split.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	rs := []rune(s)[:limit]
	cut := string(rs)
	if rs[len(rs)-1] != ' ' && []rune(s)[limit] != ' ' {
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimSpace(cut)
}
