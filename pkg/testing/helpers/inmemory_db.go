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

package helpers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gamedex/gamedex-core/pkg/database/catalogdb"
)

// NewInMemoryCatalogDB opens a migrated catalog database in a temporary
// directory. The database is closed when the test ends.
func NewInMemoryCatalogDB(t *testing.T) *catalogdb.CatalogDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "catalog_test.db")
	db, err := catalogdb.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close CatalogDB: %v", err)
		}
	})

	return db
}
