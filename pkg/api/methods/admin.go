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
	"net/http"

	"github.com/gamedex/gamedex-core/pkg/api/models"
	"github.com/rs/zerolog/log"
)

// HandleClearCache serves POST /api/admin/cache/clear.
func HandleClearCache(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := env.Search.CacheLen()
		env.Search.ClearCache()
		log.Info().Int("entries", n).Msg("search cache cleared")
		writeJSON(w, http.StatusOK, models.CacheClearResponse{Cleared: n})
	}
}

func syncStatus(env *Env) models.SyncResponse {
	if env.Syncer == nil {
		return models.SyncResponse{}
	}
	resp := models.SyncResponse{Enabled: true, Running: env.Syncer.Running()}
	if last, ok := env.Syncer.LastStats(); ok {
		resp.Last = &last
	}
	return resp
}

// HandleSyncStatus serves GET /api/admin/sync.
func HandleSyncStatus(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, syncStatus(env))
	}
}

// HandleTriggerSync serves POST /api/admin/sync. The run happens in the
// background; a trigger while one is already queued is coalesced.
func HandleTriggerSync(env *Env) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if env.Syncer == nil {
			writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "catalog sync is disabled"})
			return
		}
		queued := env.Syncer.Trigger()
		resp := syncStatus(env)
		resp.Queued = queued
		log.Info().Bool("queued", queued).Msg("catalog sync requested")
		writeJSON(w, http.StatusAccepted, resp)
	}
}
