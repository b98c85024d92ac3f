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

// Package catalog defines the game catalog data model shared by the local
// store, the external catalog client and the search pipeline.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Category is a catalog classification code.
type Category string

const (
	CategoryUnknown   Category = "unknown"
	CategoryMain      Category = "main"
	CategoryDLC       Category = "dlc"
	CategoryExpansion Category = "expansion"
	CategoryBundle    Category = "bundle"
	CategorySeason    Category = "season"
	CategoryMod       Category = "mod"
	CategoryRemake    Category = "remake"
	CategoryRemaster  Category = "remaster"
	CategoryPort      Category = "port"
	CategoryPack      Category = "pack"
	CategoryUpdate    Category = "update"
	CategoryEpisode   Category = "episode"
)

// AllCategories lists every known category code, excluding unknown.
var AllCategories = []Category{
	CategoryMain,
	CategoryDLC,
	CategoryExpansion,
	CategoryBundle,
	CategorySeason,
	CategoryMod,
	CategoryRemake,
	CategoryRemaster,
	CategoryPort,
	CategoryPack,
	CategoryUpdate,
	CategoryEpisode,
}

// Valid reports whether c is one of the enumerated codes or unknown.
func (c Category) Valid() bool {
	return c == CategoryUnknown || slices.Contains(AllCategories, c)
}

// ParseCategory converts a string to a Category, returning unknown for empty
// input and an error for unrecognised codes.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryUnknown, nil
	}
	c := Category(s)
	if !c.Valid() {
		return CategoryUnknown, fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// ReleaseStatus is the publication state of a title.
type ReleaseStatus string

const (
	StatusUnknown     ReleaseStatus = ""
	StatusReleased    ReleaseStatus = "released"
	StatusAlpha       ReleaseStatus = "alpha"
	StatusBeta        ReleaseStatus = "beta"
	StatusEarlyAccess ReleaseStatus = "early_access"
	StatusOffline     ReleaseStatus = "offline"
	StatusCancelled   ReleaseStatus = "cancelled"
	StatusRumored     ReleaseStatus = "rumored"
	StatusDelisted    ReleaseStatus = "delisted"
)

// Override is the manual moderation flag consulted by the filter. It is a
// single tri-state value so an item can never be both allowed and denied.
type Override string

const (
	OverrideNone  Override = ""
	OverrideAllow Override = "allow"
	OverrideDeny  Override = "deny"
)

// Valid reports whether o is a known override value.
func (o Override) Valid() bool {
	return o == OverrideNone || o == OverrideAllow || o == OverrideDeny
}

// RankFlag is the manual ranking flag consulted by the ranker.
type RankFlag string

const (
	RankFlagNone       RankFlag = ""
	RankFlagGreenlight RankFlag = "greenlight"
	RankFlagRedlight   RankFlag = "redlight"
)

// Valid reports whether f is a known rank flag.
func (f RankFlag) Valid() bool {
	return f == RankFlagNone || f == RankFlagGreenlight || f == RankFlagRedlight
}

// Source records where an item came from.
type Source string

const (
	SourceLocal    Source = "local"
	SourceExternal Source = "external"
	SourceMerged   Source = "merged"
)

// Item is a single catalog entry.
type Item struct {
	Rating           *float64      `json:"rating,omitempty"`
	LastSynced       *time.Time    `json:"lastSynced,omitempty"`
	Slug             string        `json:"slug"`
	Name             string        `json:"name"`
	Category         Category      `json:"category"`
	Status           ReleaseStatus `json:"status,omitempty"`
	Developer        string        `json:"developer,omitempty"`
	Publisher        string        `json:"publisher,omitempty"`
	Franchise        string        `json:"franchise,omitempty"`
	Description      string        `json:"description,omitempty"`
	CoverURL         string        `json:"coverUrl,omitempty"`
	Override         Override      `json:"override,omitempty"`
	RankFlag         RankFlag      `json:"rankFlag,omitempty"`
	Source           Source        `json:"source"`
	AlternativeNames []string      `json:"alternativeNames,omitempty"`
	Platforms        []string      `json:"platforms,omitempty"`
	ReleaseDates     []time.Time   `json:"releaseDates,omitempty"`
	BaseReleaseDates []time.Time   `json:"baseReleaseDates,omitempty"`
	ID               int64         `json:"id"`
	ExternalID       int64         `json:"externalId,omitempty"`
	ParentExternalID int64         `json:"parentExternalId,omitempty"`
	RatingCount      int           `json:"ratingCount"`
	Follows          int           `json:"follows"`
	Hypes            int           `json:"hypes"`
}

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidRating   = errors.New("rating must be between 0 and 100")
	ErrInvalidOverride = errors.New("invalid override")
	ErrInvalidRankFlag = errors.New("invalid rank flag")
)

// Validate checks the data model invariants of an item.
func (it *Item) Validate() error {
	if !it.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, it.Category)
	}
	if it.Rating != nil && (*it.Rating < 0 || *it.Rating > 100) {
		return fmt.Errorf("%w: %.2f", ErrInvalidRating, *it.Rating)
	}
	if !it.Override.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOverride, it.Override)
	}
	if !it.RankFlag.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRankFlag, it.RankFlag)
	}
	return nil
}

// RatingValue returns the rating, or 0 when absent.
func (it *Item) RatingValue() float64 {
	if it.Rating == nil {
		return 0
	}
	return *it.Rating
}

// EarliestRelease returns the earliest of the item's release timestamps.
func (it *Item) EarliestRelease() (time.Time, bool) {
	return earliest(it.ReleaseDates)
}

// EarliestBaseRelease returns the earliest known release of the underlying
// game. For mods and DLC that is the parent game's release; items without
// base dates fall back to their own release dates.
func (it *Item) EarliestBaseRelease() (time.Time, bool) {
	if t, ok := earliest(it.BaseReleaseDates); ok {
		return t, true
	}
	return earliest(it.ReleaseDates)
}

// Key returns the deduplication key of an item: the external id when known,
// otherwise the slug.
func (it *Item) Key() string {
	if it.ExternalID != 0 {
		return fmt.Sprintf("ext:%d", it.ExternalID)
	}
	if it.ID != 0 && it.Slug == "" {
		return fmt.Sprintf("local:%d", it.ID)
	}
	return "slug:" + it.Slug
}

func earliest(dates []time.Time) (time.Time, bool) {
	var first time.Time
	found := false
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if !found || d.Before(first) {
			first = d
			found = true
		}
	}
	return first, found
}

// Float returns a pointer to v, used for optional ratings.
func Float(v float64) *float64 {
	return &v
}
