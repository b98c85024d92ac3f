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

package catalogdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTempCatalogDB(t *testing.T) (*CatalogDB, *clockwork.FakeClock) {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	db.clock = clock
	t.Cleanup(func() { _ = db.Close() })
	return db, clock
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCatalogDB_UpsertAndFind_Integration(t *testing.T) {
	t.Parallel()
	db, _ := setupTempCatalogDB(t)
	ctx := context.Background()

	id, err := db.Upsert(ctx, catalog.Item{
		ExternalID:       1942,
		Slug:             "the-witcher-3-wild-hunt",
		Name:             "The Witcher 3: Wild Hunt",
		AlternativeNames: []string{"Wiedźmin 3: Dziki Gon"},
		Category:         catalog.CategoryMain,
		Status:           catalog.StatusReleased,
		Developer:        "CD Projekt Red",
		Rating:           catalog.Float(93.5),
		RatingCount:      4000,
		Platforms:        []string{"PC", "PS4"},
		ReleaseDates:     []time.Time{date(2015, 5, 19), date(2019, 10, 15)},
	})
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := db.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "The Witcher 3: Wild Hunt", got.Name)
	assert.Equal(t, int64(1942), got.ExternalID)
	assert.Equal(t, catalog.SourceLocal, got.Source)
	assert.Equal(t, []string{"PC", "PS4"}, got.Platforms)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 93.5, *got.Rating, 0.001)
	assert.Equal(t, []time.Time{date(2015, 5, 19), date(2019, 10, 15)}, got.ReleaseDates)
	assert.Nil(t, got.LastSynced)

	exact, err := db.FindByExactName(ctx, "the witcher 3 wild hunt")
	require.NoError(t, err)
	require.Len(t, exact, 1)

	text, err := db.FindByText(ctx, "witcher", 10)
	require.NoError(t, err)
	require.Len(t, text, 1)

	alt, err := db.FindByText(ctx, "dziki gon", 10)
	require.NoError(t, err)
	require.Len(t, alt, 1, "alternative names are searchable")

	bySlug, err := db.FindBySlug(ctx, "the-witcher-3-wild-hunt")
	require.NoError(t, err)
	assert.Equal(t, id, bySlug.ID)

	byExt, err := db.FindByExternalID(ctx, 1942)
	require.NoError(t, err)
	assert.Equal(t, id, byExt.ID)

	_, err = db.FindBySlug(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogDB_UpsertReplacesBySlug_Integration(t *testing.T) {
	t.Parallel()
	db, _ := setupTempCatalogDB(t)
	ctx := context.Background()

	first, err := db.Upsert(ctx, catalog.Item{
		Slug: "doom", Name: "Doom", Category: catalog.CategoryMain,
		ReleaseDates: []time.Time{date(1993, 12, 10)},
	})
	require.NoError(t, err)

	second, err := db.Upsert(ctx, catalog.Item{
		Slug: "doom", Name: "DOOM", Category: catalog.CategoryMain, RatingCount: 10,
		ReleaseDates: []time.Time{date(1993, 12, 10), date(1995, 1, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, err := db.FindByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "DOOM", got.Name)
	assert.Equal(t, 10, got.RatingCount)
	assert.Len(t, got.ReleaseDates, 2)
}

func TestCatalogDB_UpsertRejectsInvalid_Integration(t *testing.T) {
	t.Parallel()
	db, _ := setupTempCatalogDB(t)
	ctx := context.Background()

	_, err := db.Upsert(ctx, catalog.Item{Slug: "x", Name: "X", Category: "weird"})
	require.ErrorIs(t, err, catalog.ErrInvalidCategory)

	_, err = db.Upsert(ctx, catalog.Item{Slug: "x", Name: "X", Rating: catalog.Float(101)})
	require.ErrorIs(t, err, catalog.ErrInvalidRating)

	_, err = db.Upsert(ctx, catalog.Item{Name: "No Slug"})
	require.Error(t, err)
}

func TestCatalogDB_FindByTextOrderAndLimit_Integration(t *testing.T) {
	t.Parallel()
	db, _ := setupTempCatalogDB(t)
	ctx := context.Background()

	for i, count := range []int{5, 500, 50} {
		_, err := db.Upsert(ctx, catalog.Item{
			Slug:        []string{"zelda-a", "zelda-b", "zelda-c"}[i],
			Name:        []string{"Zelda A", "Zelda B", "Zelda C"}[i],
			Category:    catalog.CategoryMain,
			RatingCount: count,
		})
		require.NoError(t, err)
	}

	items, err := db.FindByText(ctx, "zelda", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Zelda B", items[0].Name)
	assert.Equal(t, "Zelda C", items[1].Name)

	none, err := db.FindByText(ctx, "100%", 10)
	require.NoError(t, err)
	assert.Empty(t, none, "like wildcards are escaped")
}

func TestCatalogDB_BaseReleaseDatesFromParent_Integration(t *testing.T) {
	t.Parallel()
	db, _ := setupTempCatalogDB(t)
	ctx := context.Background()

	_, err := db.Upsert(ctx, catalog.Item{
		ExternalID: 472, Slug: "skyrim", Name: "The Elder Scrolls V: Skyrim",
		Category: catalog.CategoryMain, ReleaseDates: []time.Time{date(2011, 11, 11)},
	})
	require.NoError(t, err)
	modID, err := db.Upsert(ctx, catalog.Item{
		ExternalID: 9001, ParentExternalID: 472, Slug: "enderal", Name: "Enderal",
		Category: catalog.CategoryMod, ReleaseDates: []time.Time{date(2019, 2, 14)},
	})
	require.NoError(t, err)

	mod, err := db.FindByID(ctx, modID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2019, 2, 14)}, mod.ReleaseDates)
	assert.Equal(t, []time.Time{date(2011, 11, 11)}, mod.BaseReleaseDates)

	first, ok := mod.EarliestBaseRelease()
	require.True(t, ok)
	assert.Equal(t, date(2011, 11, 11), first)

	dates, err := db.ReleaseDatesByExternalID(ctx, []int64{472, 123456})
	require.NoError(t, err)
	assert.Equal(t, map[int64][]time.Time{472: {date(2011, 11, 11)}}, dates)
}

func TestCatalogDB_Flags_Integration(t *testing.T) {
	t.Parallel()
	db, _ := setupTempCatalogDB(t)
	ctx := context.Background()

	id, err := db.Upsert(ctx, catalog.Item{Slug: "pack", Name: "Pack", Category: catalog.CategoryBundle})
	require.NoError(t, err)

	require.NoError(t, db.SetOverride(ctx, id, catalog.OverrideAllow))
	require.NoError(t, db.SetRankFlag(ctx, id, catalog.RankFlagGreenlight))

	got, err := db.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, catalog.OverrideAllow, got.Override)
	assert.Equal(t, catalog.RankFlagGreenlight, got.RankFlag)

	require.NoError(t, db.SetOverride(ctx, id, catalog.OverrideNone))
	got, err = db.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, catalog.OverrideNone, got.Override)

	require.ErrorIs(t, db.SetOverride(ctx, id, "maybe"), catalog.ErrInvalidOverride)
	require.ErrorIs(t, db.SetRankFlag(ctx, id, "amber"), catalog.ErrInvalidRankFlag)
	require.ErrorIs(t, db.SetOverride(ctx, id+100, catalog.OverrideDeny), ErrNotFound)
}

func TestCatalogDB_StaleAndEnrichment_Integration(t *testing.T) {
	t.Parallel()
	db, clock := setupTempCatalogDB(t)
	ctx := context.Background()

	_, err := db.Upsert(ctx, catalog.Item{
		ExternalID: 1, Slug: "sparse", Name: "Sparse Game", Category: catalog.CategoryMain,
		Developer: "Keep Me", RatingCount: 100,
	})
	require.NoError(t, err)
	_, err = db.Upsert(ctx, catalog.Item{
		Slug: "local-only", Name: "Local Only", Category: catalog.CategoryMain,
	})
	require.NoError(t, err)

	stale, err := db.ListStale(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, stale, 1, "items without an external id are never stale")
	assert.Equal(t, "sparse", stale[0].Slug)

	updated, err := db.ApplyEnrichment(ctx, []catalog.Item{
		{
			ExternalID: 1, Name: "Ignored Name", Developer: "Other", Publisher: "Pub",
			Description: "A game.", CoverURL: "https://images.igdb.com/x.jpg",
			RatingCount: 50, Follows: 70, Rating: catalog.Float(75),
			ReleaseDates: []time.Time{date(2001, 1, 1)},
		},
		{ExternalID: 404, Name: "Unknown"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := db.FindByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Sparse Game", got.Name)
	assert.Equal(t, "Keep Me", got.Developer)
	assert.Equal(t, "Pub", got.Publisher)
	assert.Equal(t, 100, got.RatingCount)
	assert.Equal(t, 70, got.Follows)
	assert.Equal(t, []time.Time{date(2001, 1, 1)}, got.ReleaseDates)
	require.NotNil(t, got.LastSynced)
	assert.Equal(t, clock.Now().UTC(), *got.LastSynced)

	stale, err = db.ListStale(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, stale, "complete and freshly synced")
}

func TestCatalogDB_IncompleteItemStaleAfterMaxAge_Integration(t *testing.T) {
	t.Parallel()
	db, clock := setupTempCatalogDB(t)
	ctx := context.Background()

	_, err := db.Upsert(ctx, catalog.Item{ExternalID: 2, Slug: "thin", Name: "Thin", Category: catalog.CategoryMain})
	require.NoError(t, err)
	_, err = db.ApplyEnrichment(ctx, []catalog.Item{{ExternalID: 2, Developer: "Dev"}})
	require.NoError(t, err)

	stale, err := db.ListStale(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Empty(t, stale)

	clock.Advance(25 * time.Hour)
	stale, err = db.ListStale(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 1, "still missing cover and description")
}

func TestCatalogDB_SearchEvents_Integration(t *testing.T) {
	t.Parallel()
	db, clock := setupTempCatalogDB(t)
	ctx := context.Background()

	events := []catalog.SearchEvent{
		{ID: "a", At: clock.Now(), Query: "Mario", Normalized: "mario", Results: 3, Duration: 12 * time.Millisecond},
		{ID: "b", At: clock.Now(), Query: "zelda", Normalized: "zelda", CacheHit: true},
	}
	require.NoError(t, db.WriteSearchEvents(ctx, events))
	require.NoError(t, db.WriteSearchEvents(ctx, events[:1]), "duplicates are ignored")
	require.NoError(t, db.WriteSearchEvents(ctx, nil))

	n, err := db.CountSearchEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCatalogDB_NotConnected(t *testing.T) {
	t.Parallel()
	db := &CatalogDB{}
	ctx := context.Background()

	_, err := db.FindByText(ctx, "x", 1)
	require.ErrorIs(t, err, ErrNullSQL)
	_, err = db.FindByExactName(ctx, "x")
	require.ErrorIs(t, err, ErrNullSQL)
	_, err = db.ReleaseDatesByExternalID(ctx, []int64{1})
	require.ErrorIs(t, err, ErrNullSQL)
	require.ErrorIs(t, db.SetOverride(ctx, 1, catalog.OverrideAllow), ErrNullSQL)
	require.ErrorIs(t, db.MigrateUp(t.Context()), ErrNullSQL)
	require.NoError(t, db.Close())
}
