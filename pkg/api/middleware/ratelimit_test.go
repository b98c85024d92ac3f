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

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testPerMinute = 60
	testBurst     = 5
)

func TestIPRateLimiter_BasicFunctionality(t *testing.T) {
	t.Parallel()
	limiter := NewIPRateLimiter(testPerMinute, testBurst, clockwork.NewFakeClock())

	rl := limiter.GetLimiter("192.168.1.100")
	require.NotNil(t, rl)

	for i := range testBurst {
		assert.True(t, rl.Allow(), "should allow request %d within burst", i+1)
	}
	assert.False(t, rl.Allow(), "should block request beyond burst size")
}

func TestIPRateLimiter_DifferentIPs(t *testing.T) {
	t.Parallel()
	limiter := NewIPRateLimiter(testPerMinute, testBurst, clockwork.NewFakeClock())

	rl1 := limiter.GetLimiter("192.168.1.100")
	rl2 := limiter.GetLimiter("192.168.1.101")
	assert.NotSame(t, rl1, rl2)

	for range testBurst {
		rl1.Allow()
	}
	assert.False(t, rl1.Allow())
	assert.True(t, rl2.Allow())

	assert.Same(t, rl1, limiter.GetLimiter("192.168.1.100"))
}

func TestHTTPRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	limiter := NewIPRateLimiter(testPerMinute, testBurst, clockwork.NewFakeClock())

	calls := 0
	handler := HTTPRateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for range testBurst {
		req := httptest.NewRequest(http.MethodGet, "/api/search?q=mario", http.NoBody)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=mario", http.NoBody)
	req.RemoteAddr = "192.168.1.100:23456"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, testBurst, calls)

	req = httptest.NewRequest(http.MethodGet, "/api/search?q=mario", http.NoBody)
	req.RemoteAddr = "[2001:db8::1]:8080"
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "other clients are unaffected")
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiter(testPerMinute, testBurst, clock)

	limiter.GetLimiter("old.ip")
	clock.Advance(limiterMaxAge - time.Minute)
	limiter.GetLimiter("new.ip")
	clock.Advance(2 * time.Minute)

	limiter.Cleanup()
	assert.Equal(t, 1, limiter.Len())
	assert.Contains(t, limiter.limiters, "new.ip")
}

func TestIPRateLimiter_StartCleanup(t *testing.T) {
	t.Parallel()
	clock := clockwork.NewFakeClock()
	limiter := NewIPRateLimiter(testPerMinute, testBurst, clock)
	limiter.GetLimiter("10.0.0.1")

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	limiter.StartCleanup(ctx)

	clock.Advance(limiterMaxAge + cleanupInterval)
	require.Eventually(t, func() bool {
		return limiter.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
}
