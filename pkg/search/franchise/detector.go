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

// Package franchise tags normalized queries with the game series they refer
// to and holds the curated flagship-title bonus table.
package franchise

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gamedex/gamedex-core/pkg/search/query"
)

// Pattern describes one franchise. Match phrases are normalized queries or
// query fragments that identify it; Expansions are extra search terms used
// when expanding a franchise query.
type Pattern struct {
	ID         string   `toml:"id" json:"id" validate:"required"`
	Name       string   `toml:"name" json:"name"`
	Match      []string `toml:"match" json:"match" validate:"required,min=1,dive,required"`
	Expansions []string `toml:"expansions,omitempty" json:"expansions,omitempty"`
}

// Result is the outcome of franchise detection for one query.
type Result struct {
	ID          string
	Name        string
	Expansions  []string
	IsFranchise bool
}

// None is the result for queries that name no known franchise.
var None = Result{}

var ErrInvalidPattern = errors.New("invalid franchise pattern")

type compiledPattern struct {
	pattern Pattern
	phrases []string
}

// Detector matches normalized queries against an ordered pattern list. The
// list must be ordered most specific first: the first match wins.
type Detector struct {
	patterns []compiledPattern
}

// NewDetector validates patterns and builds a Detector. Pattern order is
// preserved.
func NewDetector(patterns []Pattern) (*Detector, error) {
	if err := ValidatePatterns(patterns); err != nil {
		return nil, err
	}
	d := &Detector{patterns: make([]compiledPattern, 0, len(patterns))}
	for _, p := range patterns {
		cp := compiledPattern{pattern: p}
		for _, m := range p.Match {
			cp.phrases = append(cp.phrases, query.MustNormalize(m))
		}
		d.patterns = append(d.patterns, cp)
	}
	return d, nil
}

// ValidatePatterns checks ids are present and unique and every pattern has
// at least one non-empty match phrase.
func ValidatePatterns(patterns []Pattern) error {
	seen := make(map[string]struct{}, len(patterns))
	for i, p := range patterns {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("%w: pattern %d has no id", ErrInvalidPattern, i)
		}
		if _, ok := seen[p.ID]; ok {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidPattern, p.ID)
		}
		seen[p.ID] = struct{}{}
		if len(p.Match) == 0 {
			return fmt.Errorf("%w: %q has no match phrases", ErrInvalidPattern, p.ID)
		}
		for _, m := range p.Match {
			if query.MustNormalize(m) == "" {
				return fmt.Errorf("%w: %q has an empty match phrase", ErrInvalidPattern, p.ID)
			}
		}
	}
	return nil
}

// Detect returns the first pattern whose phrase occurs in q on word
// boundaries. q must already be normalized.
func (d *Detector) Detect(q string) Result {
	if d == nil || q == "" {
		return None
	}
	padded := " " + q + " "
	for _, cp := range d.patterns {
		for _, phrase := range cp.phrases {
			if strings.Contains(padded, " "+phrase+" ") {
				return Result{
					ID:          cp.pattern.ID,
					Name:        cp.pattern.Name,
					Expansions:  cp.pattern.Expansions,
					IsFranchise: true,
				}
			}
		}
	}
	return None
}

// Patterns returns a copy of the detector's patterns in evaluation order.
func (d *Detector) Patterns() []Pattern {
	out := make([]Pattern, len(d.patterns))
	for i, cp := range d.patterns {
		out[i] = cp.pattern
	}
	return out
}

// DefaultPatterns is the curated franchise list, most specific first.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{ID: "mario-party", Name: "Mario Party", Match: []string{"mario party"}},
		{ID: "mario-kart", Name: "Mario Kart", Match: []string{"mario kart"}},
		{ID: "paper-mario", Name: "Paper Mario", Match: []string{"paper mario"}},
		{ID: "mario-rpg", Name: "Mario & Luigi", Match: []string{"mario luigi", "mario rpg"}},
		{
			ID:         "mario",
			Name:       "Super Mario",
			Match:      []string{"super mario", "mario"},
			Expansions: []string{"super mario"},
		},
		{ID: "zelda", Name: "The Legend of Zelda", Match: []string{"legend of zelda", "zelda"}, Expansions: []string{"the legend of zelda"}},
		{ID: "pokemon-mystery-dungeon", Name: "Pokémon Mystery Dungeon", Match: []string{"pokemon mystery dungeon"}},
		{ID: "pokemon", Name: "Pokémon", Match: []string{"pokemon"}},
		{ID: "final-fantasy-tactics", Name: "Final Fantasy Tactics", Match: []string{"final fantasy tactics"}},
		{ID: "final-fantasy", Name: "Final Fantasy", Match: []string{"final fantasy", "ff"}, Expansions: []string{"final fantasy"}},
		{ID: "metroid-prime", Name: "Metroid Prime", Match: []string{"metroid prime"}},
		{ID: "metroid", Name: "Metroid", Match: []string{"metroid"}},
		{ID: "sonic", Name: "Sonic the Hedgehog", Match: []string{"sonic"}, Expansions: []string{"sonic the hedgehog"}},
		{ID: "elder-scrolls", Name: "The Elder Scrolls", Match: []string{"elder scrolls", "skyrim", "oblivion", "morrowind"}},
		{ID: "fallout", Name: "Fallout", Match: []string{"fallout"}},
		{ID: "grand-theft-auto", Name: "Grand Theft Auto", Match: []string{"grand theft auto", "gta"}, Expansions: []string{"grand theft auto"}},
		{ID: "call-of-duty", Name: "Call of Duty", Match: []string{"call of duty", "cod"}, Expansions: []string{"call of duty"}},
		{ID: "halo", Name: "Halo", Match: []string{"halo"}},
		{ID: "resident-evil", Name: "Resident Evil", Match: []string{"resident evil", "biohazard"}},
		{ID: "street-fighter", Name: "Street Fighter", Match: []string{"street fighter"}},
		{ID: "mega-man", Name: "Mega Man", Match: []string{"mega man", "megaman", "rockman"}, Expansions: []string{"mega man"}},
		{ID: "castlevania", Name: "Castlevania", Match: []string{"castlevania"}},
		{ID: "kirby", Name: "Kirby", Match: []string{"kirby"}},
		{ID: "donkey-kong", Name: "Donkey Kong", Match: []string{"donkey kong"}},
		{ID: "metal-gear", Name: "Metal Gear", Match: []string{"metal gear"}},
		{ID: "dragon-quest", Name: "Dragon Quest", Match: []string{"dragon quest", "dragon warrior"}},
	}
}
