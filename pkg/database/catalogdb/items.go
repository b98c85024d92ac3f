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
	"errors"
	"fmt"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
)

// FindByText returns items whose normalized name or an alternative name
// contains pattern, most rated first.
func (db *CatalogDB) FindByText(ctx context.Context, pattern string, limit int) ([]catalog.Item, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindByText(ctx, db.sql, pattern, limit)
}

// FindByExactName returns items whose normalized name equals name.
func (db *CatalogDB) FindByExactName(ctx context.Context, name string) ([]catalog.Item, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlFindByExactName(ctx, db.sql, name)
}

func (db *CatalogDB) FindByID(ctx context.Context, id int64) (catalog.Item, error) {
	if db.sql == nil {
		return catalog.Item{}, ErrNullSQL
	}
	return sqlFindOne(ctx, db.sql, `where DBID = ?`, id)
}

func (db *CatalogDB) FindBySlug(ctx context.Context, slug string) (catalog.Item, error) {
	if db.sql == nil {
		return catalog.Item{}, ErrNullSQL
	}
	return sqlFindOne(ctx, db.sql, `where Slug = ?`, slug)
}

func (db *CatalogDB) FindByExternalID(ctx context.Context, externalID int64) (catalog.Item, error) {
	if db.sql == nil {
		return catalog.Item{}, ErrNullSQL
	}
	return sqlFindOne(ctx, db.sql, `where ExternalID = ?`, externalID)
}

// ReleaseDatesByExternalID returns the stored release dates of the items
// with the given external ids, oldest first. Ids with no stored item or no
// dates are absent from the map.
func (db *CatalogDB) ReleaseDatesByExternalID(
	ctx context.Context,
	externalIDs []int64,
) (map[int64][]time.Time, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlReleaseDatesByExternalID(ctx, db.sql, externalIDs)
}

// Upsert inserts an item, or replaces the stored item with the same slug,
// and returns its DBID.
//
//nolint:gocritic // item copied for insertion
func (db *CatalogDB) Upsert(ctx context.Context, it catalog.Item) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	if it.Slug == "" || it.Name == "" {
		return 0, errors.New("item requires a slug and a name")
	}
	if err := it.Validate(); err != nil {
		return 0, fmt.Errorf("invalid item %q: %w", it.Slug, err)
	}
	return sqlUpsertItem(ctx, db.sql, it)
}

// SetOverride sets the manual moderation flag of an item.
func (db *CatalogDB) SetOverride(ctx context.Context, id int64, o catalog.Override) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if !o.Valid() {
		return fmt.Errorf("%w: %q", catalog.ErrInvalidOverride, o)
	}
	return sqlSetFlag(ctx, db.sql, "Override", id, string(o))
}

// SetRankFlag sets the manual ranking flag of an item.
func (db *CatalogDB) SetRankFlag(ctx context.Context, id int64, f catalog.RankFlag) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if !f.Valid() {
		return fmt.Errorf("%w: %q", catalog.ErrInvalidRankFlag, f)
	}
	return sqlSetFlag(ctx, db.sql, "RankFlag", id, string(f))
}

// ListStale returns up to limit items due for enrichment: never synced, or
// synced more than maxAge ago and still incomplete.
func (db *CatalogDB) ListStale(ctx context.Context, maxAge time.Duration, limit int) ([]catalog.Item, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlListStale(ctx, db.sql, db.clock.Now().Add(-maxAge), limit)
}

// ApplyEnrichment merges fetched items into stored ones with fill-missing
// semantics and stamps them as synced. It returns the number of items
// updated.
func (db *CatalogDB) ApplyEnrichment(ctx context.Context, items []catalog.Item) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	if len(items) == 0 {
		return 0, nil
	}
	return sqlApplyEnrichment(ctx, db.sql, items, db.clock.Now().UTC().Truncate(time.Second))
}

// WriteSearchEvents stores a batch of search events. Events already stored
// are ignored.
func (db *CatalogDB) WriteSearchEvents(ctx context.Context, events []catalog.SearchEvent) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	if len(events) == 0 {
		return nil
	}
	return sqlWriteSearchEvents(ctx, db.sql, events)
}

func (db *CatalogDB) CountSearchEvents(ctx context.Context) (int, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlCountSearchEvents(ctx, db.sql)
}
