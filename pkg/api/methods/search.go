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
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gamedex/gamedex-core/pkg/api/models"
	"github.com/gamedex/gamedex-core/pkg/api/validation"
	"github.com/gamedex/gamedex-core/pkg/search"
	"github.com/rs/zerolog/log"
)

// parseSearchParams reads q, limit, fast and metrics from the query string.
func parseSearchParams(values url.Values) (models.SearchParams, error) {
	params := models.SearchParams{Query: values.Get("q")}

	if s := values.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return params, fmt.Errorf("%w: limit must be an integer", validation.ErrInvalidParams)
		}
		params.Limit = limit
	}

	for name, dst := range map[string]*bool{"fast": &params.Fast, "metrics": &params.Metrics} {
		s := values.Get(name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseBool(s)
		if err != nil {
			return params, fmt.Errorf("%w: %s must be a boolean", validation.ErrInvalidParams, name)
		}
		*dst = v
	}

	if err := validation.DefaultValidator.Validate(&params); err != nil {
		return params, err
	}
	return params, nil
}

// HandleSearch serves GET /api/search. A query that normalizes to nothing
// returns an empty result set, not an error.
func HandleSearch(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseSearchParams(r.URL.Query())
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		log.Debug().
			Str("query", params.Query).
			Int("limit", params.Limit).
			Bool("fast", params.Fast).
			Msg("received search request")

		resp, err := env.Search.Search(r.Context(), params.Query, search.Options{
			Limit:          params.Limit,
			FastMode:       params.Fast,
			IncludeMetrics: params.Metrics,
		})
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, resp)
		case errors.Is(err, search.ErrSourcesUnavailable):
			log.Warn().Err(err).Str("query", params.Query).Msg("search failed")
			writeError(w, http.StatusServiceUnavailable, err)
		case errors.Is(err, context.DeadlineExceeded):
			log.Warn().Err(err).Str("query", params.Query).Msg("search timed out")
			writeError(w, http.StatusGatewayTimeout, err)
		case errors.Is(err, context.Canceled):
			log.Debug().Str("query", params.Query).Msg("search cancelled by client")
		default:
			log.Error().Err(err).Str("query", params.Query).Msg("search failed")
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		}
	}
}
