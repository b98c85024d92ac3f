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

package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics describes how one search was served.
type Metrics struct {
	Query           string        `json:"query"`
	Normalized      string        `json:"normalized"`
	Franchise       string        `json:"franchise,omitempty"`
	Variants        []string      `json:"variants,omitempty"`
	LocalCount      int           `json:"localCount"`
	ExternalCount   int           `json:"externalCount"`
	Merged          int           `json:"merged"`
	Filtered        int           `json:"filtered"`
	Rejected        int           `json:"rejected"`
	Returned        int           `json:"returned"`
	Lookups         int           `json:"lookups"`
	LookupDuration  time.Duration `json:"lookupDuration"`
	RankDuration    time.Duration `json:"rankDuration"`
	TotalDuration   time.Duration `json:"totalDuration"`
	CacheHit        bool          `json:"cacheHit"`
	Shared          bool          `json:"shared"`
	ExternalSkipped bool          `json:"externalSkipped"`
	ExternalFailed  bool          `json:"externalFailed"`
	LocalFailed     bool          `json:"localFailed"`
}

var (
	searchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_search_requests_total",
			Help: "Searches served, by outcome",
		},
		[]string{"outcome"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gamedex_search_duration_seconds",
			Help:    "Search latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	searchLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_search_lookups_total",
			Help: "Underlying lookups issued, by source",
		},
		[]string{"source"},
	)

	searchLookupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamedex_search_lookup_failures_total",
			Help: "Underlying lookups that failed or timed out, by source",
		},
		[]string{"source"},
	)

	searchFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gamedex_search_filtered_items_total",
			Help: "Candidates removed by filter rules or copyright policy",
		},
	)

	searchCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gamedex_search_cache_entries",
			Help: "Entries currently held in the search result cache",
		},
	)
)

const (
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeEmpty = "empty"
	outcomeError = "error"

	sourceLocal    = "local"
	sourceExternal = "external"
)

func observeSearch(outcome string, d time.Duration) {
	searchRequests.WithLabelValues(outcome).Inc()
	searchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
