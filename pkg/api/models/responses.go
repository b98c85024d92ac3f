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
	"github.com/gamedex/gamedex-core/pkg/service/catalogsync"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

type OverrideResponse struct {
	Override string `json:"override"`
	ID       int64  `json:"id"`
}

type RankFlagResponse struct {
	RankFlag string `json:"rankFlag"`
	ID       int64  `json:"id"`
}

type FiltersResponse struct {
	Rules []filter.Rule `json:"rules"`
}

type CopyrightResponse struct {
	Policies []filter.Policy `json:"policies"`
}

type FranchisesResponse struct {
	Patterns []franchise.Pattern `json:"patterns"`
}

type FlagshipsResponse struct {
	Entries []franchise.Flagship `json:"entries"`
	Count   int                  `json:"count"`
}

type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

type SyncResponse struct {
	Last    *catalogsync.Stats `json:"last,omitempty"`
	Enabled bool               `json:"enabled"`
	Queued  bool               `json:"queued"`
	Running bool               `json:"running"`
}
