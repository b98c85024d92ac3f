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

package config

import (
	"context"
	"time"

	"github.com/gamedex/gamedex-core/pkg/catalog"
)

// nopStore satisfies search.Store for building services in tests.
type nopStore struct{}

func (nopStore) FindByText(context.Context, string, int) ([]catalog.Item, error) {
	return nil, nil
}

func (nopStore) FindByExactName(context.Context, string) ([]catalog.Item, error) {
	return nil, nil
}

func (nopStore) ReleaseDatesByExternalID(context.Context, []int64) (map[int64][]time.Time, error) {
	return nil, nil
}
