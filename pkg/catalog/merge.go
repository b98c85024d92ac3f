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

import (
	"slices"
	"time"
)

// MergeMissing combines two records of the same title. Fields set on primary
// win; empty fields are filled from secondary. Engagement counters take the
// larger value and release dates are unioned.
//
//nolint:gocritic // items are copied so callers keep their originals
func MergeMissing(primary, secondary Item) Item {
	out := primary

	if out.ExternalID == 0 {
		out.ExternalID = secondary.ExternalID
	}
	if out.ParentExternalID == 0 {
		out.ParentExternalID = secondary.ParentExternalID
	}
	if out.Slug == "" {
		out.Slug = secondary.Slug
	}
	if out.Name == "" {
		out.Name = secondary.Name
	}
	if out.Category == "" || out.Category == CategoryUnknown {
		out.Category = secondary.Category
	}
	if out.Status == StatusUnknown {
		out.Status = secondary.Status
	}
	if out.Developer == "" {
		out.Developer = secondary.Developer
	}
	if out.Publisher == "" {
		out.Publisher = secondary.Publisher
	}
	if out.Franchise == "" {
		out.Franchise = secondary.Franchise
	}
	if out.Description == "" {
		out.Description = secondary.Description
	}
	if out.CoverURL == "" {
		out.CoverURL = secondary.CoverURL
	}
	if out.Rating == nil && secondary.Rating != nil {
		r := *secondary.Rating
		out.Rating = &r
	}

	out.RatingCount = max(out.RatingCount, secondary.RatingCount)
	out.Follows = max(out.Follows, secondary.Follows)
	out.Hypes = max(out.Hypes, secondary.Hypes)

	out.AlternativeNames = unionStrings(out.AlternativeNames, secondary.AlternativeNames)
	out.Platforms = unionStrings(out.Platforms, secondary.Platforms)
	out.ReleaseDates = unionTimes(out.ReleaseDates, secondary.ReleaseDates)
	out.BaseReleaseDates = unionTimes(out.BaseReleaseDates, secondary.BaseReleaseDates)

	if primary.Source != secondary.Source && primary.Source != "" && secondary.Source != "" {
		out.Source = SourceMerged
	}

	return out
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := slices.Clone(a)
	for _, s := range b {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func unionTimes(a, b []time.Time) []time.Time {
	if len(b) == 0 {
		return a
	}
	out := slices.Clone(a)
	for _, t := range b {
		if !slices.ContainsFunc(out, t.Equal) {
			out = append(out, t)
		}
	}
	return out
}
