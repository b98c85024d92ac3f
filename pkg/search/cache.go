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

	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/jonboulle/clockwork"
)

type cacheEntry struct {
	stored  time.Time
	expires time.Time
	results []ranking.Ranked
	metrics Metrics
}

// resultCache is a TTL cache of ranked results. Clearing bumps the
// generation so lookups started before the clear cannot repopulate it.
type resultCache struct {
	clock      clockwork.Clock
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
	generation uint64
	mu         syncutil.RWMutex
}

func newResultCache(clock clockwork.Clock, ttl time.Duration, maxEntries int) *resultCache {
	return &resultCache{
		clock:      clock,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *resultCache) get(key string) (cacheEntry, bool) {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return cacheEntry{}, false
	}
	if !now.Before(e.expires) {
		c.mu.Lock()
		if cur, still := c.entries[key]; still && !now.Before(cur.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return cacheEntry{}, false
	}
	return e, true
}

// set stores an entry unless the cache was cleared since gen was read.
func (c *resultCache) set(key string, gen uint64, results []ranking.Ranked, m Metrics) bool {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = cacheEntry{
		stored:  now,
		expires: now.Add(c.ttl),
		results: results,
		metrics: m,
	}
	return true
}

// evictLocked drops expired entries, then the oldest one if still full.
func (c *resultCache) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.stored.Before(oldest) {
			oldestKey, oldest = k, e.stored
		}
	}
	delete(c.entries, oldestKey)
}

func (c *resultCache) gen() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.generation++
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
