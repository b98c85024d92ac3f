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
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/database"
	"github.com/gamedex/gamedex-core/pkg/search/query"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const itemColumns = `
	DBID, ExternalID, ParentExternalID, Slug, Name, AlternativeNames,
	Category, Status, Developer, Publisher, Franchise, Description,
	CoverURL, Platforms, Rating, RatingCount, Follows, Hypes,
	Override, RankFlag, LastSynced`

func sqlMigrateUp(ctx context.Context, db *sql.DB) error {
	if err := database.MigrateUp(ctx, db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run catalog database migrations: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `vacuum;`)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullRating(r *float64) sql.NullFloat64 {
	if r == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *r, Valid: true}
}

func encodeList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		log.Warn().Err(err).Str("value", s).Msg("failed to decode stored list")
		return nil
	}
	return list
}

// normalizedAltNames joins normalized alternative names with a separator
// that cannot appear in a normalized string, so substring matches never
// span two names.
func normalizedAltNames(names []string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if norm := query.MustNormalize(n); norm != "" {
			out = append(out, norm)
		}
	}
	return strings.Join(out, "|")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanItems(rows *sql.Rows) ([]catalog.Item, error) {
	items := make([]catalog.Item, 0, 16)
	for rows.Next() {
		var (
			it         catalog.Item
			externalID sql.NullInt64
			parentID   sql.NullInt64
			rating     sql.NullFloat64
			lastSynced sql.NullInt64
			altNames   string
			platforms  string
			category   string
		)
		err := rows.Scan(
			&it.ID, &externalID, &parentID, &it.Slug, &it.Name, &altNames,
			&category, &it.Status, &it.Developer, &it.Publisher, &it.Franchise, &it.Description,
			&it.CoverURL, &platforms, &rating, &it.RatingCount, &it.Follows, &it.Hypes,
			&it.Override, &it.RankFlag, &lastSynced,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		it.ExternalID = externalID.Int64
		it.ParentExternalID = parentID.Int64
		it.AlternativeNames = decodeList(altNames)
		it.Platforms = decodeList(platforms)
		it.Category = catalog.Category(category)
		if !it.Category.Valid() {
			it.Category = catalog.CategoryUnknown
		}
		if rating.Valid {
			it.Rating = catalog.Float(rating.Float64)
		}
		if lastSynced.Valid {
			t := time.Unix(lastSynced.Int64, 0).UTC()
			it.LastSynced = &t
		}
		it.Source = catalog.SourceLocal
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item rows: %w", err)
	}
	return items, nil
}

// queryItems runs an item select and attaches release dates.
func queryItems(ctx context.Context, q queryer, where string, args ...any) ([]catalog.Item, error) {
	rows, err := q.QueryContext(ctx, `select `+itemColumns+` from Items `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()
	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	if err := attachReleases(ctx, q, items); err != nil {
		return nil, err
	}
	return items, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// attachReleases loads release dates for items, and for items with a parent
// game the parent's release dates as base release dates.
func attachReleases(ctx context.Context, q queryer, items []catalog.Item) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[int64]int, len(items))
	ids := make([]any, 0, len(items))
	parents := make(map[int64][]int)
	parentIDs := make([]any, 0)
	for i := range items {
		byID[items[i].ID] = i
		ids = append(ids, items[i].ID)
		if p := items[i].ParentExternalID; p != 0 {
			if _, seen := parents[p]; !seen {
				parentIDs = append(parentIDs, p)
			}
			parents[p] = append(parents[p], i)
		}
	}

	err := eachRelease(ctx, q,
		`select ItemDBID, ReleasedAt from ItemReleases
		where ItemDBID in (`+placeholders(len(ids))+`) order by ReleasedAt`,
		ids,
		func(owner int64, at time.Time) {
			i := byID[owner]
			items[i].ReleaseDates = append(items[i].ReleaseDates, at)
		})
	if err != nil || len(parentIDs) == 0 {
		return err
	}

	return eachRelease(ctx, q, releasesByExternalIDStmt(len(parentIDs)), parentIDs,
		func(owner int64, at time.Time) {
			for _, i := range parents[owner] {
				items[i].BaseReleaseDates = append(items[i].BaseReleaseDates, at)
			}
		})
}

func releasesByExternalIDStmt(n int) string {
	return `select i.ExternalID, r.ReleasedAt from ItemReleases r
		join Items i on i.DBID = r.ItemDBID
		where i.ExternalID in (` + placeholders(n) + `) order by r.ReleasedAt`
}

func sqlReleaseDatesByExternalID(
	ctx context.Context,
	q queryer,
	externalIDs []int64,
) (map[int64][]time.Time, error) {
	out := make(map[int64][]time.Time, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(externalIDs))
	for i, id := range externalIDs {
		args[i] = id
	}
	err := eachRelease(ctx, q, releasesByExternalIDStmt(len(args)), args,
		func(owner int64, at time.Time) {
			out[owner] = append(out[owner], at)
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func eachRelease(
	ctx context.Context,
	q queryer,
	stmt string,
	args []any,
	fn func(owner int64, at time.Time),
) error {
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to query release dates: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()
	for rows.Next() {
		var owner, at int64
		if err := rows.Scan(&owner, &at); err != nil {
			return fmt.Errorf("failed to scan release date: %w", err)
		}
		fn(owner, time.Unix(at, 0).UTC())
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate release dates: %w", err)
	}
	return nil
}

func sqlFindByText(ctx context.Context, db *sql.DB, pattern string, limit int) ([]catalog.Item, error) {
	like := "%" + escapeLike(pattern) + "%"
	return queryItems(ctx, db, `
		where NormalizedName like ? escape '\' or NormalizedAltNames like ? escape '\'
		order by RatingCount desc, DBID asc
		limit ?`,
		like, like, limit,
	)
}

func sqlFindByExactName(ctx context.Context, db *sql.DB, name string) ([]catalog.Item, error) {
	return queryItems(ctx, db, `
		where NormalizedName = ?
		order by RatingCount desc, DBID asc`,
		name,
	)
}

func sqlFindOne(ctx context.Context, q queryer, where string, arg any) (catalog.Item, error) {
	items, err := queryItems(ctx, q, where+` limit 1`, arg)
	if err != nil {
		return catalog.Item{}, err
	}
	if len(items) == 0 {
		return catalog.Item{}, ErrNotFound
	}
	return items[0], nil
}

// sqlUpsertItem inserts an item or updates the row with the same slug, then
// replaces its release dates.
//
//nolint:gocritic // item copied for insertion
func sqlUpsertItem(ctx context.Context, q queryer, it catalog.Item) (int64, error) {
	altNames, err := encodeList(it.AlternativeNames)
	if err != nil {
		return 0, err
	}
	platforms, err := encodeList(it.Platforms)
	if err != nil {
		return 0, err
	}
	category := it.Category
	if category == "" {
		category = catalog.CategoryUnknown
	}

	var id int64
	err = q.QueryRowContext(ctx, `
		insert into Items(
			ExternalID, ParentExternalID, Slug, Name, NormalizedName,
			AlternativeNames, NormalizedAltNames, Category, Status,
			Developer, Publisher, Franchise, Description, CoverURL, Platforms,
			Rating, RatingCount, Follows, Hypes, Override, RankFlag, LastSynced
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		on conflict(Slug) do update set
			ExternalID = excluded.ExternalID,
			ParentExternalID = excluded.ParentExternalID,
			Name = excluded.Name,
			NormalizedName = excluded.NormalizedName,
			AlternativeNames = excluded.AlternativeNames,
			NormalizedAltNames = excluded.NormalizedAltNames,
			Category = excluded.Category,
			Status = excluded.Status,
			Developer = excluded.Developer,
			Publisher = excluded.Publisher,
			Franchise = excluded.Franchise,
			Description = excluded.Description,
			CoverURL = excluded.CoverURL,
			Platforms = excluded.Platforms,
			Rating = excluded.Rating,
			RatingCount = excluded.RatingCount,
			Follows = excluded.Follows,
			Hypes = excluded.Hypes,
			Override = excluded.Override,
			RankFlag = excluded.RankFlag,
			LastSynced = excluded.LastSynced
		returning DBID;`,
		nullInt(it.ExternalID), nullInt(it.ParentExternalID), it.Slug, it.Name,
		query.MustNormalize(it.Name), altNames, normalizedAltNames(it.AlternativeNames),
		string(category), string(it.Status), it.Developer, it.Publisher, it.Franchise,
		it.Description, it.CoverURL, platforms, nullRating(it.Rating),
		it.RatingCount, it.Follows, it.Hypes, string(it.Override), string(it.RankFlag),
		nullTime(it.LastSynced),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert item %q: %w", it.Slug, err)
	}

	if _, err := q.ExecContext(ctx, `delete from ItemReleases where ItemDBID = ?;`, id); err != nil {
		return 0, fmt.Errorf("failed to clear release dates: %w", err)
	}
	for _, at := range it.ReleaseDates {
		if at.IsZero() {
			continue
		}
		_, err := q.ExecContext(ctx,
			`insert or ignore into ItemReleases(ItemDBID, ReleasedAt) values (?, ?);`,
			id, at.Unix(),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert release date: %w", err)
		}
	}
	return id, nil
}

func sqlSetFlag(ctx context.Context, db *sql.DB, column string, id int64, value string) error {
	// column is one of a fixed set chosen by the caller
	res, err := db.ExecContext(ctx, `update Items set `+column+` = ? where DBID = ?;`, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// sqlListStale returns items with an external id that were never synced, or
// were synced before cutoff and still miss enrichment data. Most rated first.
func sqlListStale(ctx context.Context, db *sql.DB, cutoff time.Time, limit int) ([]catalog.Item, error) {
	return queryItems(ctx, db, `
		where ExternalID is not null and (
			LastSynced is null or (
				LastSynced < ? and (
					CoverURL = '' or Description = '' or Developer = ''
					or not exists (select 1 from ItemReleases r where r.ItemDBID = Items.DBID)
				)
			)
		)
		order by RatingCount desc, DBID asc
		limit ?`,
		cutoff.Unix(), limit,
	)
}

// sqlApplyEnrichment fills missing fields of stored items from fetched
// ones, matched on external id. Unknown external ids are skipped.
func sqlApplyEnrichment(ctx context.Context, db *sql.DB, items []catalog.Item, now time.Time) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to rollback enrichment transaction")
		}
	}()

	updated := 0
	for i := range items {
		incoming := items[i]
		if incoming.ExternalID == 0 {
			continue
		}
		existing, err := sqlFindOne(ctx, tx, `where ExternalID = ?`, incoming.ExternalID)
		if errors.Is(err, ErrNotFound) {
			log.Debug().Int64("externalId", incoming.ExternalID).Msg("skipping enrichment for unknown item")
			continue
		} else if err != nil {
			return 0, err
		}

		merged := catalog.MergeMissing(existing, incoming)
		merged.Slug = existing.Slug
		merged.LastSynced = &now
		if _, err := sqlUpsertItem(ctx, tx, merged); err != nil {
			return 0, err
		}
		updated++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit enrichment: %w", err)
	}
	return updated, nil
}

func sqlWriteSearchEvents(ctx context.Context, db *sql.DB, events []catalog.SearchEvent) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Warn().Err(rbErr).Msg("failed to rollback search event transaction")
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		insert or ignore into SearchEvents(
			ID, At, Query, Normalized, Franchise, Results, DurationMs,
			CacheHit, FastMode, ExternalError
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare search event insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	for i := range events {
		ev := &events[i]
		_, err := stmt.ExecContext(ctx,
			ev.ID, ev.At.Unix(), ev.Query, ev.Normalized, ev.Franchise, ev.Results,
			ev.Duration.Milliseconds(), ev.CacheHit, ev.FastMode, ev.ExternalError,
		)
		if err != nil {
			return fmt.Errorf("failed to execute search event insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit search events: %w", err)
	}
	return nil
}

func sqlCountSearchEvents(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `select count(*) from SearchEvents;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count search events: %w", err)
	}
	return n, nil
}
