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
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr/vm"
	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/helpers"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Decision is the outcome of one rule for one item.
type Decision struct {
	RuleID string   `json:"ruleId"`
	Type   RuleType `json:"type"`
	Reason string   `json:"reason"`
	Passed bool     `json:"passed"`
}

// Result aggregates the decisions for one item. Decisive is the first
// failing decision in evaluation order, nil when the item passed.
type Result struct {
	Decisive  *Decision  `json:"decisive,omitempty"`
	Decisions []Decision `json:"decisions"`
	Passed    bool       `json:"passed"`
}

// Reason returns the decisive reason type, or "" when the item passed.
func (r Result) Reason() RuleType {
	if r.Decisive == nil {
		return ""
	}
	return r.Decisive.Type
}

type compiledRule struct {
	program  *vm.Program
	patterns []*regexp.Regexp
	rule     Rule
}

// Engine evaluates items against a fixed rule set and policy table. It
// holds no per-item state, so evaluating the same item twice gives the same
// result.
type Engine struct {
	clock    clockwork.Clock
	policies *PolicyTable
	rules    []compiledRule
}

// NewEngine builds an engine from rules and policies. Rules are expected to
// have passed ValidateRules; any that did not are still loaded, with bad
// patterns and expressions failing open. A nil clock uses the real clock.
func NewEngine(rules []Rule, policies *PolicyTable, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	e := &Engine{clock: clock, policies: policies}
	for _, r := range SortRules(rules) {
		if !r.Enabled {
			continue
		}
		e.rules = append(e.rules, compileRule(r))
	}
	return e
}

func compileRule(r Rule) compiledRule {
	cr := compiledRule{rule: r}
	switch r.Type {
	case RuleContentPattern:
		if r.Patterns == nil {
			break
		}
		for _, p := range r.Patterns.Patterns {
			re, err := helpers.GlobalRegexCache.Compile(p)
			if err != nil {
				log.Warn().Err(err).Str("rule", r.ID).Str("pattern", p).
					Msg("ignoring malformed filter pattern")
				continue
			}
			cr.patterns = append(cr.patterns, re)
		}
	case RuleCustom:
		if r.Custom == nil {
			break
		}
		program, err := compilePredicate(r.Custom.Expr)
		if err != nil {
			log.Warn().Err(err).Str("rule", r.ID).Msg("custom filter rule will pass every item")
			break
		}
		cr.program = program
	default:
	}
	return cr
}

// Rules returns the enabled rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, cr := range e.rules {
		out[i] = cr.rule
	}
	return out
}

// Policies returns the engine's copyright table.
func (e *Engine) Policies() *PolicyTable {
	return e.policies
}

// Evaluate runs the item through the override check, every enabled rule in
// priority order, and then the copyright policy.
func (e *Engine) Evaluate(it *catalog.Item) Result {
	switch it.Override {
	case catalog.OverrideAllow:
		d := Decision{RuleID: "override:allow", Type: ReasonOverride, Passed: true, Reason: "manually allowed"}
		return Result{Passed: true, Decisions: []Decision{d}}
	case catalog.OverrideDeny:
		d := Decision{RuleID: "override:deny", Type: ReasonOverride, Passed: false, Reason: "manually denied"}
		return Result{Passed: false, Decisive: &d, Decisions: []Decision{d}}
	default:
	}

	now := e.clock.Now()
	decisions := make([]Decision, 0, len(e.rules)+1)
	for i := range e.rules {
		decisions = append(decisions, e.rules[i].evaluate(it, now))
	}
	if d, ok := e.policies.Evaluate(it, now); ok {
		decisions = append(decisions, d)
	}

	res := Result{Passed: true, Decisions: decisions}
	for i := range decisions {
		if !decisions[i].Passed {
			d := decisions[i]
			res.Passed = false
			res.Decisive = &d
			break
		}
	}
	return res
}

// Apply evaluates every item and returns the passing items in input order
// along with one result per input item.
func (e *Engine) Apply(items []catalog.Item) (passed []catalog.Item, results []Result) {
	passed = make([]catalog.Item, 0, len(items))
	results = make([]Result, len(items))
	for i := range items {
		results[i] = e.Evaluate(&items[i])
		if results[i].Passed {
			passed = append(passed, items[i])
		}
	}
	return passed, results
}

func (cr *compiledRule) evaluate(it *catalog.Item, now time.Time) Decision {
	r := &cr.rule
	d := Decision{RuleID: r.ID, Type: r.Type, Passed: true}

	switch r.Type {
	case RuleCategory:
		d.Passed, d.Reason = evalCategory(r.Categories, it)
	case RuleContentPattern:
		for _, re := range cr.patterns {
			if re.MatchString(it.Name) {
				d.Passed = false
				d.Reason = fmt.Sprintf("name matches %q", re.String())
				break
			}
		}
	case RuleQualityThreshold:
		d.Passed, d.Reason = evalQuality(r.Quality, it)
	case RuleReleaseStatus:
		d.Passed, d.Reason = evalRelease(r.Release, it)
	case RuleCustom:
		if cr.program == nil {
			d.Reason = "expression unavailable"
			break
		}
		ok, err := runPredicate(cr.program, it, now)
		if err != nil {
			log.Warn().Err(err).Str("rule", r.ID).Str("item", it.Name).
				Msg("custom filter rule failed, passing item")
			d.Reason = "expression error"
			break
		}
		if !ok {
			d.Passed = false
			d.Reason = "expression is false"
		}
	default:
	}
	return d
}

func evalCategory(c *CategoryCondition, it *catalog.Item) (bool, string) {
	if c == nil {
		return true, ""
	}
	listed := slices.Contains(c.Categories, it.Category)
	switch c.Mode {
	case CategoryInclude:
		if !listed {
			return false, fmt.Sprintf("category %s is not included", it.Category)
		}
	case CategoryExclude:
		if listed {
			return false, fmt.Sprintf("category %s is excluded", it.Category)
		}
	}
	return true, ""
}

func evalQuality(q *QualityCondition, it *catalog.Item) (bool, string) {
	if q == nil {
		return true, ""
	}
	var failed []string
	if q.MinRating != nil && (it.Rating == nil || *it.Rating < *q.MinRating) {
		failed = append(failed, fmt.Sprintf("rating below %.0f", *q.MinRating))
	}
	if q.MinRatingCount != nil && it.RatingCount < *q.MinRatingCount {
		failed = append(failed, fmt.Sprintf("rating count below %d", *q.MinRatingCount))
	}
	if q.MinFollows != nil && it.Follows < *q.MinFollows {
		failed = append(failed, fmt.Sprintf("follows below %d", *q.MinFollows))
	}
	if len(failed) > 0 {
		return false, strings.Join(failed, ", ")
	}
	return true, ""
}

func evalRelease(c *ReleaseCondition, it *catalog.Item) (bool, string) {
	if c == nil {
		return true, ""
	}
	if it.Status == catalog.StatusUnknown {
		if c.AllowUnknown {
			return true, ""
		}
		return false, "release status unknown"
	}
	if !slices.Contains(c.Allowed, it.Status) {
		return false, fmt.Sprintf("release status %s is not allowed", it.Status)
	}
	return true, ""
}
