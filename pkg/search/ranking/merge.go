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

package ranking

import "github.com/gamedex/gamedex-core/pkg/catalog"

// Merge combines local and external results. Items sharing an external id
// are merged into one with the local record winning and its empty fields
// filled from the external one; a record without an external id is matched
// by slug instead. Local items keep their order and come first; unmatched
// external items follow in their order.
func Merge(local, external []catalog.Item) []catalog.Item {
	out := make([]catalog.Item, 0, len(local)+len(external))
	byKey := make(map[string]int, len(local)+len(external))
	bySlug := make(map[string]int, len(local)+len(external))

	find := func(it *catalog.Item) (int, bool) {
		if idx, ok := byKey[it.Key()]; ok {
			return idx, true
		}
		if it.Slug == "" {
			return 0, false
		}
		idx, ok := bySlug[it.Slug]
		if !ok {
			return 0, false
		}
		// two different external ids never merge
		if it.ExternalID != 0 && out[idx].ExternalID != 0 {
			return 0, false
		}
		return idx, true
	}
	remember := func(idx int) {
		it := &out[idx]
		byKey[it.Key()] = idx
		if it.Slug != "" {
			if _, ok := bySlug[it.Slug]; !ok {
				bySlug[it.Slug] = idx
			}
		}
	}
	add := func(it catalog.Item, source catalog.Source) {
		if it.Source == "" {
			it.Source = source
		}
		if idx, ok := find(&it); ok {
			out[idx] = catalog.MergeMissing(out[idx], it)
			remember(idx)
			return
		}
		out = append(out, it)
		remember(len(out) - 1)
	}

	for _, it := range local {
		add(it, catalog.SourceLocal)
	}
	for _, it := range external {
		add(it, catalog.SourceExternal)
	}
	return out
}
