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

package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultIGDBRequestsPerSecond = 4
	DefaultSyncBatchSize         = 500
	DefaultSyncParallel          = 4
	DefaultAnalyticsBatchSize    = 100
	DefaultAnalyticsQueueSize    = 1000
)

type Database struct {
	Path string `toml:"path,omitempty"`
}

// IGDB configures the external catalog client. Credentials live in
// auth.toml under IGDBAuthURL.
type IGDB struct {
	Enabled           *bool  `toml:"enabled,omitempty"`
	BaseURL           string `toml:"base_url,omitempty" validate:"omitempty,url"`
	TokenURL          string `toml:"token_url,omitempty" validate:"omitempty,url"`
	RequestsPerSecond *int   `toml:"requests_per_second,omitempty" validate:"omitempty,min=1,max=8"`
	Timeout           string `toml:"timeout,omitempty"`
}

// Sync configures background enrichment of the local catalog.
type Sync struct {
	Enabled   *bool  `toml:"enabled,omitempty"`
	Interval  string `toml:"interval,omitempty"`
	MaxAge    string `toml:"max_age,omitempty"`
	BatchSize *int   `toml:"batch_size,omitempty" validate:"omitempty,min=1,max=500"`
	Parallel  *int   `toml:"parallel,omitempty" validate:"omitempty,min=1,max=20"`
	Limit     *int   `toml:"limit,omitempty" validate:"omitempty,min=1"`
}

// Analytics configures search event recording.
type Analytics struct {
	Enabled       *bool  `toml:"enabled,omitempty"`
	FlushInterval string `toml:"flush_interval,omitempty"`
	BatchSize     *int   `toml:"batch_size,omitempty" validate:"omitempty,min=1"`
	QueueSize     *int   `toml:"queue_size,omitempty" validate:"omitempty,min=1"`
}

// Telemetry configures opt-in error reporting.
type Telemetry struct {
	ErrorReporting bool   `toml:"error_reporting"`
	DSN            string `toml:"dsn,omitempty"`
	Environment    string `toml:"environment,omitempty"`
}

// durationOr parses s, returning def when s is empty, invalid or not
// positive.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// DatabasePath returns the configured catalog database path, or the
// default file in dataDir.
func (c *Instance) DatabasePath(dataDir string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Database.Path != "" {
		return c.vals.Database.Path
	}
	return filepath.Join(dataDir, CatalogDbFile)
}

func (c *Instance) IGDBEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return boolOr(c.vals.IGDB.Enabled, true)
}

func (c *Instance) IGDBBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.IGDB.BaseURL
}

func (c *Instance) IGDBTokenURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.IGDB.TokenURL
}

func (c *Instance) IGDBRequestsPerSecond() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.IGDB.RequestsPerSecond, DefaultIGDBRequestsPerSecond)
}

func (c *Instance) IGDBTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return durationOr(c.vals.IGDB.Timeout, 10*time.Second)
}

// IGDBCredentials returns the Twitch client id and secret from auth.toml.
func (*Instance) IGDBCredentials() (clientID, clientSecret string, ok bool) {
	creds := LookupAuth(GetAuthCfg(), IGDBAuthURL)
	if creds == nil || creds.Username == "" || creds.Password == "" {
		return "", "", false
	}
	return creds.Username, creds.Password, true
}

func (c *Instance) SyncEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return boolOr(c.vals.Sync.Enabled, true)
}

func (c *Instance) SyncInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return durationOr(c.vals.Sync.Interval, 6*time.Hour)
}

// SyncMaxAge is how long a synced but incomplete item waits before it is
// fetched again.
func (c *Instance) SyncMaxAge() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return durationOr(c.vals.Sync.MaxAge, 7*24*time.Hour)
}

func (c *Instance) SyncBatchSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Sync.BatchSize, DefaultSyncBatchSize)
}

func (c *Instance) SyncParallel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Sync.Parallel, DefaultSyncParallel)
}

// SyncLimit is the most items one sync run processes.
func (c *Instance) SyncLimit() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Sync.Limit, 5000)
}

func (c *Instance) AnalyticsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return boolOr(c.vals.Analytics.Enabled, true)
}

func (c *Instance) AnalyticsFlushInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return durationOr(c.vals.Analytics.FlushInterval, 30*time.Second)
}

func (c *Instance) AnalyticsBatchSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Analytics.BatchSize, DefaultAnalyticsBatchSize)
}

func (c *Instance) AnalyticsQueueSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return intOr(c.vals.Analytics.QueueSize, DefaultAnalyticsQueueSize)
}

func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.ErrorReporting
}

func (c *Instance) TelemetryDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Telemetry.DSN
}

func (c *Instance) TelemetryEnvironment() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Telemetry.Environment == "" {
		return "production"
	}
	return c.vals.Telemetry.Environment
}
