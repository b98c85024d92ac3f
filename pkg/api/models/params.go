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

package models

import (
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
)

// SearchParams are the query parameters of the search endpoint.
type SearchParams struct {
	Query   string `json:"q" validate:"max=500"`
	Limit   int    `json:"limit" validate:"gte=0,lte=1000"`
	Fast    bool   `json:"fast"`
	Metrics bool   `json:"metrics"`
}

type OverrideParams struct {
	Override string `json:"override" validate:"override"`
}

type RankFlagParams struct {
	RankFlag string `json:"rankFlag" validate:"rankflag"`
}

// FiltersParams replaces the whole filter rule set. An empty list
// disables filtering.
type FiltersParams struct {
	Rules []filter.Rule `json:"rules" validate:"required,dive"`
}

type CopyrightParams struct {
	Policies []filter.Policy `json:"policies" validate:"required,dive"`
}

// FranchisesParams replaces the franchise patterns. Order matters: the
// first matching pattern wins.
type FranchisesParams struct {
	Patterns []franchise.Pattern `json:"patterns" validate:"required,min=1,dive"`
}

type FlagshipsParams struct {
	Entries []franchise.Flagship `json:"entries" validate:"required,min=1,dive"`
}
