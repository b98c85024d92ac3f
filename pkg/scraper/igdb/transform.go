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

package igdb

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
)

// IGDB game category codes.
var categories = map[int]catalog.Category{
	0:  catalog.CategoryMain,
	1:  catalog.CategoryDLC,
	2:  catalog.CategoryExpansion,
	3:  catalog.CategoryBundle,
	4:  catalog.CategoryExpansion, // standalone expansion
	5:  catalog.CategoryMod,
	6:  catalog.CategoryEpisode,
	7:  catalog.CategorySeason,
	8:  catalog.CategoryRemake,
	9:  catalog.CategoryRemaster,
	10: catalog.CategoryMain, // expanded game
	11: catalog.CategoryPort,
	12: catalog.CategoryMod, // fork
	13: catalog.CategoryPack,
	14: catalog.CategoryUpdate,
}

// IGDB game status codes. 1 is unused.
var statuses = map[int]catalog.ReleaseStatus{
	0: catalog.StatusReleased,
	2: catalog.StatusAlpha,
	3: catalog.StatusBeta,
	4: catalog.StatusEarlyAccess,
	5: catalog.StatusOffline,
	6: catalog.StatusCancelled,
	7: catalog.StatusRumored,
	8: catalog.StatusDelisted,
}

func mapCategory(code *int) catalog.Category {
	if code == nil {
		return catalog.CategoryUnknown
	}
	if c, ok := categories[*code]; ok {
		return c
	}
	return catalog.CategoryUnknown
}

func mapStatus(code *int) catalog.ReleaseStatus {
	if code == nil {
		return catalog.StatusUnknown
	}
	return statuses[*code]
}

// coverURL turns a protocol relative thumbnail url into a full size https
// url.
func coverURL(img *Image) string {
	if img == nil {
		return ""
	}
	if img.URL == "" {
		if img.ImageID == "" {
			return ""
		}
		return "https://images.igdb.com/igdb/image/upload/t_1080p/" + img.ImageID + ".jpg"
	}
	u := img.URL
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return strings.Replace(u, "t_thumb", "t_1080p", 1)
}

func franchiseName(g *Game) string {
	if g.Franchise != nil && g.Franchise.Name != "" {
		return g.Franchise.Name
	}
	for _, f := range g.Franchises {
		if f.Name != "" {
			return f.Name
		}
	}
	for _, c := range g.Collections {
		if c.Name != "" {
			return c.Name
		}
	}
	return ""
}

func names(list []Named) []string {
	var out []string
	for _, n := range list {
		if n.Name != "" && !slices.Contains(out, n.Name) {
			out = append(out, n.Name)
		}
	}
	return out
}

func releaseDates(g *Game) []time.Time {
	var out []time.Time
	add := func(ts int64) {
		if ts <= 0 {
			return
		}
		t := time.Unix(ts, 0).UTC()
		if !slices.ContainsFunc(out, t.Equal) {
			out = append(out, t)
		}
	}
	for _, rd := range g.ReleaseDates {
		add(rd.Date)
	}
	if len(out) == 0 {
		add(g.FirstReleaseDate)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

func rating(g *Game) (*float64, int) {
	value, count := g.TotalRating, g.TotalRatingCount
	if value <= 0 {
		value, count = g.Rating, g.RatingCount
	}
	if value <= 0 {
		return nil, count
	}
	return catalog.Float(min(value, 100)), count
}

// ToItem converts an IGDB game into a transient catalog item.
func ToItem(g *Game) catalog.Item {
	it := catalog.Item{
		ExternalID:       g.ID,
		Slug:             g.Slug,
		Name:             g.Name,
		Category:         mapCategory(g.Category),
		Status:           mapStatus(g.Status),
		Franchise:        franchiseName(g),
		Description:      g.Summary,
		CoverURL:         coverURL(g.Cover),
		AlternativeNames: names(g.AlternativeNames),
		Platforms:        names(g.Platforms),
		ReleaseDates:     releaseDates(g),
		Follows:          g.Follows,
		Hypes:            g.Hypes,
		Source:           catalog.SourceExternal,
	}
	if it.Slug == "" {
		it.Slug = "igdb-" + strconv.FormatInt(g.ID, 10)
	}
	it.ParentExternalID = g.ParentGame
	if it.ParentExternalID == 0 {
		it.ParentExternalID = g.VersionParent
	}
	it.Rating, it.RatingCount = rating(g)

	for _, ic := range g.InvolvedCompanies {
		if ic.Developer && it.Developer == "" {
			it.Developer = ic.Company.Name
		}
		if ic.Publisher && it.Publisher == "" {
			it.Publisher = ic.Company.Name
		}
	}
	return it
}
