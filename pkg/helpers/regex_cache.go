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
	"container/list"
	"fmt"
	"regexp"

	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
)

// DefaultRegexCacheSize bounds the global cache. Filter patterns are
// operator supplied, so the set is small but not fixed.
const DefaultRegexCacheSize = 512

type regexEntry struct {
	err     error
	re      *regexp.Regexp
	pattern string
}

// RegexCache holds compiled patterns, including failed compiles, and
// evicts the least recently used entry once full.
type RegexCache struct {
	entries map[string]*list.Element
	order   *list.List
	size    int
	mu      syncutil.Mutex
}

// GlobalRegexCache is shared by filter rule validation and the filter
// engine, so a rule set is compiled once per distinct pattern.
var GlobalRegexCache = NewRegexCache(DefaultRegexCacheSize)

func NewRegexCache(size int) *RegexCache {
	if size <= 0 {
		size = DefaultRegexCacheSize
	}
	return &RegexCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		size:    size,
	}
}

// Compile returns the compiled pattern, compiling it on first use. A
// pattern that failed to compile keeps failing without being recompiled
// until it is evicted.
func (rc *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if el, ok := rc.entries[pattern]; ok {
		rc.order.MoveToFront(el)
		e, _ := el.Value.(*regexEntry)
		return e.re, e.err
	}

	e := &regexEntry{pattern: pattern}
	e.re, e.err = regexp.Compile(pattern)
	if e.err != nil {
		e.re = nil
		e.err = fmt.Errorf("failed to compile regex pattern %q: %w", pattern, e.err)
	}

	rc.entries[pattern] = rc.order.PushFront(e)
	for rc.order.Len() > rc.size {
		oldest := rc.order.Back()
		rc.order.Remove(oldest)
		if old, ok := oldest.Value.(*regexEntry); ok {
			delete(rc.entries, old.pattern)
		}
	}

	return e.re, e.err
}

// MustCompile is Compile for patterns known to be valid.
func (rc *RegexCache) MustCompile(pattern string) *regexp.Regexp {
	re, err := rc.Compile(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

func (rc *RegexCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.entries = make(map[string]*list.Element)
	rc.order.Init()
}

func (rc *RegexCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.order.Len()
}
