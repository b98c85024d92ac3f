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

package methods

import (
	"errors"
	"net/http"

	"github.com/gamedex/gamedex-core/pkg/api/models"
	"github.com/gamedex/gamedex-core/pkg/api/validation"
	"github.com/gamedex/gamedex-core/pkg/catalog"
	"github.com/gamedex/gamedex-core/pkg/database/catalogdb"
	"github.com/rs/zerolog/log"
)

func writeFlagError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalogdb.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	log.Error().Err(err).Msg("failed to update item flag")
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

// HandleSetOverride serves PUT /api/admin/items/{id}/override. The cache is
// cleared so the next search sees the new decision.
func HandleSetOverride(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var params models.OverrideParams
		if err := validation.DecodeAndValidate(r.Body, &params); err != nil {
			writeDecodeError(w, err)
			return
		}

		if err := env.Items.SetOverride(r.Context(), id, catalog.Override(params.Override)); err != nil {
			writeFlagError(w, err)
			return
		}
		env.Search.ClearCache()

		log.Info().Int64("id", id).Str("override", params.Override).Msg("item override updated")
		writeJSON(w, http.StatusOK, models.OverrideResponse{ID: id, Override: params.Override})
	}
}

// HandleSetRankFlag serves PUT /api/admin/items/{id}/rank-flag.
func HandleSetRankFlag(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := itemID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var params models.RankFlagParams
		if err := validation.DecodeAndValidate(r.Body, &params); err != nil {
			writeDecodeError(w, err)
			return
		}

		if err := env.Items.SetRankFlag(r.Context(), id, catalog.RankFlag(params.RankFlag)); err != nil {
			writeFlagError(w, err)
			return
		}
		env.Search.ClearCache()

		log.Info().Int64("id", id).Str("rankFlag", params.RankFlag).Msg("item rank flag updated")
		writeJSON(w, http.StatusOK, models.RankFlagResponse{ID: id, RankFlag: params.RankFlag})
	}
}
