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

package catalog

import "time"

// SearchEvent is one completed search, recorded for analytics.
type SearchEvent struct {
	At            time.Time     `json:"at"`
	ID            string        `json:"id"`
	Query         string        `json:"query"`
	Normalized    string        `json:"normalized"`
	Franchise     string        `json:"franchise,omitempty"`
	Duration      time.Duration `json:"duration"`
	Results       int           `json:"results"`
	CacheHit      bool          `json:"cacheHit"`
	FastMode      bool          `json:"fastMode"`
	ExternalError bool          `json:"externalError"`
}
