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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gamedex/gamedex-core/pkg/api/models"
	"github.com/gamedex/gamedex-core/pkg/api/validation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var errInvalidID = errors.New("id must be a positive integer")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := models.ErrorResponse{Error: err.Error()}
	var valErr *validation.Error
	if errors.As(err, &valErr) {
		resp.Error = "validation failed"
		resp.Fields = make([]models.FieldError, len(valErr.Fields))
		for i, fe := range valErr.Fields {
			resp.Fields[i] = models.FieldError{Field: fe.Field, Message: fe.Message}
		}
	}
	writeJSON(w, status, resp)
}

// writeDecodeError maps a DecodeAndValidate error to a 400 response.
func writeDecodeError(w http.ResponseWriter, err error) {
	log.Debug().Err(err).Msg("rejected request body")
	writeError(w, http.StatusBadRequest, err)
}

func itemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
