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

// Package catalogdb is the local catalog store. Items are written by the
// catalog sync and moderation calls and read by the search coordinator.
// Items are never deleted.
package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrNullSQL  = errors.New("CatalogDB is not connected")
	ErrNotFound = errors.New("item not found")
)

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON"

// CatalogDB is a SQLite backed catalog store.
type CatalogDB struct {
	sql   *sql.DB
	clock clockwork.Clock
	path  string
}

// Open opens the database at path, creating it and running migrations as
// needed.
func Open(ctx context.Context, path string) (*CatalogDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory for database: %w", err)
	}
	sqlInstance, err := sql.Open("sqlite3", path+sqliteConnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlInstance.PingContext(ctx); err != nil {
		_ = sqlInstance.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &CatalogDB{sql: sqlInstance, path: path, clock: clockwork.NewRealClock()}
	if err := db.MigrateUp(ctx); err != nil {
		_ = sqlInstance.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB wraps an existing connection. Used by tests with temporary or
// mocked databases; migrations are not run.
func NewWithDB(sqlDB *sql.DB, clock clockwork.Clock) *CatalogDB {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CatalogDB{sql: sqlDB, clock: clock}
}

func (db *CatalogDB) GetDBPath() string {
	return db.path
}

func (db *CatalogDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *CatalogDB) MigrateUp(ctx context.Context) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(ctx, db.sql)
}

func (db *CatalogDB) Vacuum(ctx context.Context) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(ctx, db.sql)
}

func (db *CatalogDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
