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
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gamedex/gamedex-core/pkg/api/models"
	"github.com/gamedex/gamedex-core/pkg/api/validation"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/rs/zerolog/log"
)

// applyAndSave swaps the running configuration first, so a rejected
// update never reaches the config file, then records and persists it.
func applyAndSave(w http.ResponseWriter, what string, apply, record, save func() error) bool {
	if err := apply(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := record(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := save(); err != nil {
		log.Error().Err(err).Str("config", what).Msg("failed to save config")
		writeError(w, http.StatusInternalServerError, errors.New("configuration applied but not saved"))
		return false
	}
	return true
}

func HandleGetFilters(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.FiltersResponse{Rules: env.Search.Rules()})
	}
}

// HandleSetFilters serves PUT /api/admin/filters.
func HandleSetFilters(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.FiltersParams
		if err := validation.DecodeAndValidate(r.Body, &params); err != nil {
			writeDecodeError(w, err)
			return
		}
		ok := applyAndSave(w, "filters",
			func() error { return env.Search.UpdateRules(params.Rules) },
			func() error { return env.Config.SetFilters(params.Rules) },
			env.Config.Save,
		)
		if !ok {
			return
		}
		log.Info().Int("rules", len(params.Rules)).Msg("filter rules replaced")
		writeJSON(w, http.StatusOK, models.FiltersResponse{Rules: env.Search.Rules()})
	}
}

func HandleGetCopyright(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.CopyrightResponse{Policies: env.Search.Policies()})
	}
}

// HandleSetCopyright serves PUT /api/admin/copyright.
func HandleSetCopyright(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.CopyrightParams
		if err := validation.DecodeAndValidate(r.Body, &params); err != nil {
			writeDecodeError(w, err)
			return
		}
		ok := applyAndSave(w, "copyright",
			func() error { return env.Search.UpdatePolicies(params.Policies) },
			func() error { return env.Config.SetCopyright(params.Policies) },
			env.Config.Save,
		)
		if !ok {
			return
		}
		log.Info().Int("policies", len(params.Policies)).Msg("copyright policies replaced")
		writeJSON(w, http.StatusOK, models.CopyrightResponse{Policies: env.Search.Policies()})
	}
}

func HandleGetRelevance(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, env.Search.Relevance())
	}
}

// HandleSetRelevance serves PUT /api/admin/relevance. The body is applied
// over the running weights, so fields it leaves out keep their value.
func HandleSetRelevance(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := env.Search.Relevance()
		if err := validation.DecodeAndValidate(r.Body, &rc); err != nil {
			writeDecodeError(w, err)
			return
		}
		ok := applyAndSave(w, "relevance",
			func() error { return env.Search.UpdateRelevance(rc) },
			func() error { return env.Config.SetRelevance(rc) },
			env.Config.Save,
		)
		if !ok {
			return
		}
		log.Info().Msg("relevance weights updated")
		writeJSON(w, http.StatusOK, env.Search.Relevance())
	}
}

func HandleGetRanking(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, env.Search.Ranking())
	}
}

// HandleSetRanking serves PUT /api/admin/ranking. Like relevance, the body
// is applied over the running boosts.
func HandleSetRanking(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := env.Search.Ranking()
		if err := validation.DecodeAndValidate(r.Body, &rc); err != nil {
			writeDecodeError(w, err)
			return
		}
		ok := applyAndSave(w, "ranking",
			func() error { return env.Search.UpdateRanking(rc) },
			func() error { return env.Config.SetRanking(rc) },
			env.Config.Save,
		)
		if !ok {
			return
		}
		log.Info().Msg("ranking boosts updated")
		writeJSON(w, http.StatusOK, env.Search.Ranking())
	}
}

func HandleGetFranchises(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, models.FranchisesResponse{Patterns: env.Search.Franchises()})
	}
}

// HandleSetFranchises serves PUT /api/admin/franchises.
func HandleSetFranchises(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params models.FranchisesParams
		if err := validation.DecodeAndValidate(r.Body, &params); err != nil {
			writeDecodeError(w, err)
			return
		}
		ok := applyAndSave(w, "franchises",
			func() error { return env.Search.UpdateFranchises(params.Patterns) },
			func() error { return env.Config.SetFranchises(params.Patterns) },
			env.Config.Save,
		)
		if !ok {
			return
		}
		log.Info().Int("patterns", len(params.Patterns)).Msg("franchise patterns replaced")
		writeJSON(w, http.StatusOK, models.FranchisesResponse{Patterns: env.Search.Franchises()})
	}
}

func flagshipsResponse(table *franchise.FlagshipTable) models.FlagshipsResponse {
	entries := table.Entries()
	if entries == nil {
		entries = []franchise.Flagship{}
	}
	return models.FlagshipsResponse{Entries: entries, Count: table.Len()}
}

func HandleGetFlagships(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, flagshipsResponse(env.Search.Flagships()))
	}
}

// decodeFlagships reads a flagship table from a JSON body, or from a CSV
// document in the flagship file format when the content type is text/csv.
func decodeFlagships(r *http.Request) (models.FlagshipsParams, error) {
	var params models.FlagshipsParams
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/csv" {
		err = validation.DecodeAndValidate(r.Body, &params)
		return params, err
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, validation.MaxBodyBytes+1))
	if err != nil {
		return params, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > validation.MaxBodyBytes {
		return params, fmt.Errorf("%w: body too large", validation.ErrInvalidParams)
	}
	if params.Entries, err = franchise.ParseFlagships(data); err != nil {
		return params, fmt.Errorf("%w: %w", validation.ErrInvalidParams, err)
	}
	return params, validation.DefaultValidator.Validate(&params)
}

// HandleSetFlagships serves PUT /api/admin/flagships. The new table
// replaces any flagship file named in the config.
func HandleSetFlagships(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := decodeFlagships(r)
		if err != nil {
			writeDecodeError(w, err)
			return
		}
		ok := applyAndSave(w, "flagships",
			func() error {
				table, err := franchise.NewFlagshipTable(params.Entries)
				if err != nil {
					return err
				}
				return env.Search.UpdateFlagships(table)
			},
			func() error { return env.Config.SetFlagships(params.Entries) },
			env.Config.Save,
		)
		if !ok {
			return
		}
		log.Info().Int("entries", len(params.Entries)).Msg("flagship table replaced")
		writeJSON(w, http.StatusOK, flagshipsResponse(env.Search.Flagships()))
	}
}
