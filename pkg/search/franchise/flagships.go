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

package franchise

import (
	"bytes"
	"cmp"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/gamedex/gamedex-core/pkg/search/query"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

//go:embed flagships.csv
var embeddedFlagships []byte

// Flagship is a historically significant title in a franchise. The ranking
// bonus is the sum of the three sub-scores.
type Flagship struct {
	Franchise    string  `csv:"franchise" toml:"franchise" json:"franchise" validate:"required"`
	Title        string  `csv:"title" toml:"title" json:"title" validate:"required"`
	Base         float64 `csv:"base" toml:"base" json:"base" validate:"gte=0"`
	Significance float64 `csv:"significance" toml:"significance" json:"significance" validate:"gte=0"`
	Age          float64 `csv:"age" toml:"age" json:"age" validate:"gte=0"`
}

// Bonus returns the total bonus of the entry.
func (f Flagship) Bonus() float64 {
	return f.Base + f.Significance + f.Age
}

// FlagshipTable indexes flagship entries by franchise id and normalized
// title.
type FlagshipTable struct {
	entries map[string]map[string]Flagship
	count   int
}

var ErrInvalidFlagship = errors.New("invalid flagship entry")

// NewFlagshipTable builds a table from entries. Negative sub-scores and
// entries without a franchise or title are rejected.
func NewFlagshipTable(entries []Flagship) (*FlagshipTable, error) {
	t := &FlagshipTable{entries: make(map[string]map[string]Flagship)}
	for i, e := range entries {
		title := query.MustNormalize(e.Title)
		if e.Franchise == "" || title == "" {
			return nil, fmt.Errorf("%w: row %d missing franchise or title", ErrInvalidFlagship, i)
		}
		if e.Base < 0 || e.Significance < 0 || e.Age < 0 {
			return nil, fmt.Errorf("%w: %q has a negative sub-score", ErrInvalidFlagship, e.Title)
		}
		byTitle, ok := t.entries[e.Franchise]
		if !ok {
			byTitle = make(map[string]Flagship)
			t.entries[e.Franchise] = byTitle
		}
		if _, dup := byTitle[title]; !dup {
			t.count++
		}
		byTitle[title] = e
	}
	return t, nil
}

// Bonus returns the flagship bonus for a normalized title within a
// franchise, or 0 when the title is not curated for that franchise.
func (t *FlagshipTable) Bonus(franchiseID, normalizedTitle string) float64 {
	if f, ok := t.Lookup(franchiseID, normalizedTitle); ok {
		return f.Bonus()
	}
	return 0
}

// Lookup returns the flagship entry for a normalized title within a
// franchise.
func (t *FlagshipTable) Lookup(franchiseID, normalizedTitle string) (Flagship, bool) {
	if t == nil || franchiseID == "" {
		return Flagship{}, false
	}
	f, ok := t.entries[franchiseID][normalizedTitle]
	return f, ok
}

// IsFlagship reports whether the title is curated for the franchise.
func (t *FlagshipTable) IsFlagship(franchiseID, normalizedTitle string) bool {
	_, ok := t.Lookup(franchiseID, normalizedTitle)
	return ok
}

// Len returns the number of curated entries.
func (t *FlagshipTable) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

// Entries returns the curated entries ordered by franchise, then title.
func (t *FlagshipTable) Entries() []Flagship {
	if t == nil {
		return nil
	}
	out := make([]Flagship, 0, t.count)
	for _, byTitle := range t.entries {
		for _, f := range byTitle {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b Flagship) int {
		if c := cmp.Compare(a.Franchise, b.Franchise); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
	return out
}

// ParseFlagships decodes a flagship CSV document.
func ParseFlagships(data []byte) ([]Flagship, error) {
	entries := make([]Flagship, 0)
	if err := gocsv.Unmarshal(bytes.NewReader(data), &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flagship CSV: %w", err)
	}
	return entries, nil
}

// DefaultFlagships returns the embedded curated table.
func DefaultFlagships() (*FlagshipTable, error) {
	entries, err := ParseFlagships(embeddedFlagships)
	if err != nil {
		return nil, err
	}
	return NewFlagshipTable(entries)
}

// LoadFlagships reads a flagship CSV from path, falling back to the embedded
// table when path is empty or the file does not exist.
func LoadFlagships(fs afero.Fs, path string) (*FlagshipTable, error) {
	if path == "" {
		return DefaultFlagships()
	}

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", path).Msg("flagship file not found, using embedded table")
		return DefaultFlagships()
	} else if err != nil {
		return nil, fmt.Errorf("failed to read flagship file: %w", err)
	}

	entries, err := ParseFlagships(data)
	if err != nil {
		return nil, err
	}

	table, err := NewFlagshipTable(entries)
	if err != nil {
		return nil, err
	}
	log.Info().Int("entries", table.Len()).Str("path", path).Msg("loaded flagship table")
	return table, nil
}
