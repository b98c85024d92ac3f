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
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/gamedex/gamedex-core/pkg/catalog"
)

// predicateEnv is the environment a custom expression is compiled and run
// against. Only plain values are exposed, no functions or item pointers.
//
//	name, category, status, developer, publisher, franchise  string
//	rating                                                   float (0 when unrated)
//	has_rating                                               bool
//	rating_count, follows, hypes                             int
//	age_years                                                float (-1 when unknown)
func predicateEnv(it *catalog.Item, now time.Time) map[string]any {
	age := -1.0
	if first, ok := it.EarliestRelease(); ok {
		age = now.Sub(first).Hours() / 24 / 365.25
	}
	return map[string]any{
		"name":         it.Name,
		"category":     string(it.Category),
		"status":       string(it.Status),
		"developer":    it.Developer,
		"publisher":    it.Publisher,
		"franchise":    it.Franchise,
		"rating":       it.RatingValue(),
		"has_rating":   it.Rating != nil,
		"rating_count": it.RatingCount,
		"follows":      it.Follows,
		"hypes":        it.Hypes,
		"age_years":    age,
	}
}

func compilePredicate(code string) (*vm.Program, error) {
	program, err := expr.Compile(
		code,
		expr.Env(predicateEnv(&catalog.Item{}, time.Time{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}
	return program, nil
}

// runPredicate evaluates a compiled expression. Any runtime failure is
// returned as an error; the caller decides how to treat it.
func runPredicate(program *vm.Program, it *catalog.Item, now time.Time) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("expression panicked: %v", r)
		}
	}()

	out, err := expr.Run(program, predicateEnv(it, now))
	if err != nil {
		return false, fmt.Errorf("failed to run expression: %w", err)
	}
	b, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("expression returned %T, want bool", out)
	}
	return b, nil
}
