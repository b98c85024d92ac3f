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

// Package database holds helpers shared by the SQLite stores.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

// goose keeps its filesystem, dialect and logger in package globals.
var migrationMutex syncutil.Mutex

// gooseLogger sends goose output to zerolog instead of stdout.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	log.Debug().Msgf(format, v...)
}

func (gooseLogger) Fatalf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// MigrateUp applies every pending migration in dir of migrationFiles and
// logs the resulting schema version.
func MigrateUp(ctx context.Context, db *sql.DB, migrationFiles fs.FS, dir string) error {
	migrationMutex.Lock()
	defer migrationMutex.Unlock()

	goose.SetLogger(gooseLogger{})
	goose.SetBaseFS(migrationFiles)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("failed to run migrations up: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Debug().Int64("version", version).Str("dir", dir).Msg("database migrations applied")
	return nil
}
