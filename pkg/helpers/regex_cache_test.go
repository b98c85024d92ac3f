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
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexCache_ReusesCompiledPattern(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache(4)

	re1, err := cache.Compile(`(?i)\bremaster(ed)?\b`)
	require.NoError(t, err)
	re2, err := cache.Compile(`(?i)\bremaster(ed)?\b`)
	require.NoError(t, err)

	assert.Same(t, re1, re2)
	assert.True(t, re1.MatchString("Ocarina Remastered"))
	assert.Equal(t, 1, cache.Len())
}

func TestRegexCache_CachesFailures(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache(4)

	re, err := cache.Compile(`[`)
	require.Error(t, err)
	assert.Nil(t, re)
	assert.Contains(t, err.Error(), "failed to compile regex pattern")

	_, err2 := cache.Compile(`[`)
	assert.Equal(t, err, err2)
	assert.Equal(t, 1, cache.Len())
}

func TestRegexCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache(2)

	first, err := cache.Compile(`a`)
	require.NoError(t, err)
	_, err = cache.Compile(`b`)
	require.NoError(t, err)

	// touch a so b is the eviction candidate
	_, err = cache.Compile(`a`)
	require.NoError(t, err)
	_, err = cache.Compile(`c`)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	again, err := cache.Compile(`a`)
	require.NoError(t, err)
	assert.Same(t, first, again)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestRegexCache_MustCompilePanics(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache(0)
	assert.NotNil(t, cache.MustCompile(`ok`))
	assert.Panics(t, func() { cache.MustCompile(`(`) })
}

func TestRegexCache_Concurrent(t *testing.T) {
	t.Parallel()
	cache := NewRegexCache(8)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Compile(fmt.Sprintf(`item%d`, i%12))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, cache.Len(), 8)
}

func BenchmarkRegexCache(b *testing.B) {
	cache := NewRegexCache(DefaultRegexCacheSize)
	for b.Loop() {
		re := cache.MustCompile(`sonic\s+\d+`)
		re.MatchString("sonic 3")
	}
}
