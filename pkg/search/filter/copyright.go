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

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/search/query"
)

// Tier is how strictly fan content for a company's properties is filtered.
type Tier string

const (
	TierBlockAll    Tier = "block_all"
	TierAggressive  Tier = "aggressive"
	TierModerate    Tier = "moderate"
	TierModFriendly Tier = "mod_friendly"
)

// DefaultRecencyYears is the moderate tier window used when a policy does
// not set one.
const DefaultRecencyYears = 3

func (t Tier) strictness() int {
	switch t {
	case TierBlockAll:
		return 4
	case TierAggressive:
		return 3
	case TierModerate:
		return 2
	case TierModFriendly:
		return 1
	default:
		return 0
	}
}

// Policy maps a company, matched against an item's developer or publisher,
// to a protection tier.
type Policy struct {
	Company      string   `toml:"company" json:"company" validate:"required"`
	Tier         Tier     `toml:"tier" json:"tier" validate:"required,oneof=block_all aggressive moderate mod_friendly"`
	Aliases      []string `toml:"aliases,omitempty" json:"aliases,omitempty"`
	RecencyYears int      `toml:"recency_years,omitempty" json:"recencyYears,omitempty" validate:"gte=0,lte=100"`
}

func (p Policy) recencyYears() int {
	if p.RecencyYears <= 0 {
		return DefaultRecencyYears
	}
	return p.RecencyYears
}

// fan-made name indicators, used in addition to the mod category
var fanIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfan[\s-]?(game|made|remake|project)\b`),
	regexp.MustCompile(`(?i)\brom\s*hack\b`),
	regexp.MustCompile(`(?i)\bunofficial\b`),
}

// IsFanContent reports whether an item is fan-made: category mod or a
// fan-made indicator in the name.
func IsFanContent(it *catalog.Item) bool {
	if it.Category == catalog.CategoryMod {
		return true
	}
	for _, re := range fanIndicators {
		if re.MatchString(it.Name) {
			return true
		}
	}
	return false
}

type compiledPolicy struct {
	names  []string
	policy Policy
}

// PolicyTable resolves the copyright policy for an item.
type PolicyTable struct {
	policies []compiledPolicy
}

// ValidatePolicies checks required fields, tiers and that no company is
// listed twice.
func ValidatePolicies(policies []Policy) error {
	seen := make(map[string]struct{}, len(policies))
	for i := range policies {
		p := &policies[i]
		if err := validate.Struct(p); err != nil {
			return fmt.Errorf("%w %q: %w", ErrInvalidPolicy, p.Company, err)
		}
		key := query.MustNormalize(p.Company)
		if key == "" {
			return fmt.Errorf("%w: company %q is empty after normalization", ErrInvalidPolicy, p.Company)
		}
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: duplicate company %q", ErrInvalidPolicy, p.Company)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// NewPolicyTable validates policies and builds a table.
func NewPolicyTable(policies []Policy) (*PolicyTable, error) {
	if err := ValidatePolicies(policies); err != nil {
		return nil, err
	}
	t := &PolicyTable{policies: make([]compiledPolicy, 0, len(policies))}
	for _, p := range policies {
		cp := compiledPolicy{policy: p, names: []string{query.MustNormalize(p.Company)}}
		for _, a := range p.Aliases {
			if n := query.MustNormalize(a); n != "" {
				cp.names = append(cp.names, n)
			}
		}
		t.policies = append(t.policies, cp)
	}
	return t, nil
}

// Policies returns the table's policies in configured order.
func (t *PolicyTable) Policies() []Policy {
	if t == nil {
		return nil
	}
	out := make([]Policy, len(t.policies))
	for i, cp := range t.policies {
		out[i] = cp.policy
	}
	return out
}

// Match returns the strictest policy whose company or alias appears as
// whole words in the item's developer or publisher.
func (t *PolicyTable) Match(it *catalog.Item) (Policy, bool) {
	if t == nil {
		return Policy{}, false
	}
	var companies []string
	for _, c := range []string{it.Developer, it.Publisher} {
		if n := query.MustNormalize(c); n != "" {
			companies = append(companies, " "+n+" ")
		}
	}
	if len(companies) == 0 {
		return Policy{}, false
	}

	var best Policy
	found := false
	for _, cp := range t.policies {
		if !cp.matches(companies) {
			continue
		}
		if !found || cp.policy.Tier.strictness() > best.Tier.strictness() {
			best = cp.policy
			found = true
		}
	}
	return best, found
}

func (cp compiledPolicy) matches(companies []string) bool {
	for _, c := range companies {
		for _, n := range cp.names {
			if strings.Contains(c, " "+n+" ") {
				return true
			}
		}
	}
	return false
}

// Evaluate applies the matching policy, if any, to an item. The boolean is
// false when no policy applies.
func (t *PolicyTable) Evaluate(it *catalog.Item, now time.Time) (Decision, bool) {
	p, ok := t.Match(it)
	if !ok {
		return Decision{}, false
	}

	d := Decision{RuleID: "copyright:" + p.Company, Type: ReasonCopyright, Passed: true}
	switch p.Tier {
	case TierBlockAll:
		// allow-listed titles carry an allow override, which Engine.Evaluate
		// applies before any policy
		d.Passed = false
		d.Reason = p.Company + " content is blocked"
	case TierAggressive:
		if IsFanContent(it) {
			d.Passed = false
			d.Reason = "fan content for " + p.Company + " is blocked"
		} else {
			d.Reason = "official " + p.Company + " title"
		}
	case TierModerate:
		// only the mod category; fan-made name indicators are an aggressive
		// tier concern
		if it.Category != catalog.CategoryMod {
			d.Reason = "official " + p.Company + " title"
			break
		}
		years := p.recencyYears()
		if isRecent(it, now, years) {
			d.Passed = false
			d.Reason = fmt.Sprintf("mod for a %s game released within %d years", p.Company, years)
		} else {
			d.Reason = fmt.Sprintf("mod for a %s game older than %d years", p.Company, years)
		}
	case TierModFriendly:
		d.Reason = p.Company + " allows fan content"
	}
	return d, true
}

// isRecent reports whether the underlying game's earliest known release is
// strictly less than years old. Exactly years old is not recent, and items
// without release dates are never recent.
func isRecent(it *catalog.Item, now time.Time, years int) bool {
	first, ok := it.EarliestBaseRelease()
	if !ok {
		return false
	}
	return first.After(now.AddDate(-years, 0, 0))
}
