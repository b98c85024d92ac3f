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

package igdb

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_igdb_requests_total",
			Help: "IGDB game queries, by kind and result",
		},
		[]string{"kind", "result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamedex_igdb_request_duration_seconds",
			Help:    "IGDB query latency including rate limiter waits",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// 0 closed, 1 half-open, 2 open
	breakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamedex_igdb_circuit_state",
			Help: "IGDB circuit breaker state",
		},
	)
)
