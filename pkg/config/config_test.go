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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gamedex/gamedex-core/pkg/search"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/gamedex/gamedex-core/pkg/testing/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, CfgFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return dir
}

func loadInstance(t *testing.T, body string) (*Instance, error) {
	t.Helper()
	dir := writeConfig(t, body)
	cfg := &Instance{
		cfgPath:  filepath.Join(dir, CfgFile),
		authPath: filepath.Join(dir, AuthFile),
		defaults: BaseDefaults,
		vals:     BaseDefaults,
	}
	return cfg, cfg.Load()
}

func TestNewConfig_WritesDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CfgEnv, "")

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, CfgFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "config_schema = 1")
	assert.NotEmpty(t, cfg.InstanceID())

	again, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, cfg.InstanceID(), again.InstanceID(), "existing file is not overwritten")
}

func TestNewConfig_EnvPath(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "nested", "custom.toml")
	t.Setenv(CfgEnv, custom)

	cfg, err := NewConfig(filepath.Join(dir, "unused"), BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, custom, cfg.ConfigPath())
	assert.FileExists(t, custom)
}

func TestLoad_SchemaMismatch(t *testing.T) {
	t.Parallel()
	_, err := loadInstance(t, "config_schema = 99\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version mismatch")
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := loadInstance(t, "config_schema = 1\n")
	require.NoError(t, err)

	assert.Equal(t, ":7480", cfg.APIListen())
	perMinute, burst := cfg.RateLimit()
	assert.Equal(t, DefaultRequestsPerMinute, perMinute)
	assert.Equal(t, DefaultRateBurst, burst)
	assert.Equal(t, filter.DefaultRules(), cfg.Filters())
	assert.Equal(t, filter.DefaultPolicies(), cfg.Copyright())
	assert.Equal(t, relevance.DefaultConfig(), cfg.Relevance())
	assert.True(t, cfg.IGDBEnabled())
	assert.Equal(t, 6*time.Hour, cfg.SyncInterval())
	assert.Equal(t, 30*time.Second, cfg.AnalyticsFlushInterval())
	assert.Equal(t, filepath.Join("data", CatalogDbFile), cfg.DatabasePath("data"))
	assert.False(t, cfg.ErrorReporting())
}

func TestLoad_PartialRelevanceKeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := loadInstance(t, `
config_schema = 1

[relevance]
exact_score = 120.0
`)
	require.NoError(t, err)

	rc := cfg.Relevance()
	assert.InDelta(t, 120.0, rc.ExactScore, 0.001)
	def := relevance.DefaultConfig()
	assert.InDelta(t, def.PrefixScore, rc.PrefixScore, 0.001)
	assert.InDelta(t, def.FranchiseThreshold, rc.FranchiseThreshold, 0.001)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "threshold order",
			body: "config_schema = 1\n[relevance]\nfranchise_threshold = 0.5\nspecific_threshold = 0.1\n",
		},
		{
			name: "bad filter regex",
			body: `config_schema = 1
[[filters]]
id = "x"
type = "content_pattern"
enabled = true
[filters.patterns]
patterns = ["(unclosed"]
`,
		},
		{
			name: "unknown copyright tier",
			body: "config_schema = 1\n[[copyright]]\ncompany = \"Acme\"\ntier = \"lenient\"\n",
		},
		{
			name: "bad duration",
			body: "config_schema = 1\n[search]\ncache_ttl = \"soon\"\n",
		},
		{
			name: "port out of range",
			body: "config_schema = 1\n[service]\napi_port = 70000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadInstance(t, tt.body)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestSearchSettings(t *testing.T) {
	t.Parallel()
	cfg, err := loadInstance(t, `
config_schema = 1

[search]
default_limit = 10
cache_ttl = "5m"
max_in_flight = 4

[flagships]
path = "/etc/gamedex/flagships.csv"

[[copyright]]
company = "Acme Games"
tier = "block_all"
`)
	require.NoError(t, err)

	fsh := helpers.NewMemoryFS()
	require.NoError(t, fsh.CreateFlagshipsFile("/etc/gamedex/flagships.csv", []franchise.Flagship{
		{Franchise: "acme", Title: "Acme Quest", Base: 10, Significance: 10, Age: 10},
	}))

	s, err := cfg.SearchSettings(fsh.Fs)
	require.NoError(t, err)
	assert.Equal(t, 10, s.DefaultLimit)
	assert.Equal(t, search.MaxLimit, s.MaxLimit)
	assert.Equal(t, 5*time.Minute, s.CacheTTL)
	assert.Equal(t, int64(4), s.MaxInFlight)
	assert.Equal(t, search.DefaultExternalTO, s.ExternalTimeout)
	require.Len(t, s.Policies, 1)
	assert.Equal(t, filter.TierBlockAll, s.Policies[0].Tier)
	require.NotNil(t, s.Flagships)
	assert.True(t, s.Flagships.IsFlagship("acme", "acme quest"))

	_, err = search.New(nopStore{}, nil, s)
	require.NoError(t, err, "settings from config build a service")
}

func TestSearchSettings_MissingFlagshipFile(t *testing.T) {
	t.Parallel()
	cfg, err := loadInstance(t, "config_schema = 1\n[flagships]\npath = \"/missing.csv\"\n")
	require.NoError(t, err)

	_, err = cfg.SearchSettings(afero.NewMemMapFs())
	require.Error(t, err)
}

func TestSetters_ValidateAndPersist(t *testing.T) {
	t.Parallel()
	cfg, err := loadInstance(t, "config_schema = 1\n")
	require.NoError(t, err)

	rc := relevance.DefaultConfig()
	rc.SpecificThreshold = 2
	require.Error(t, cfg.SetRelevance(rc))
	assert.Equal(t, relevance.DefaultConfig(), cfg.Relevance())

	rc = relevance.DefaultConfig()
	rc.FuzzyScore = 10
	require.NoError(t, cfg.SetRelevance(rc))

	policies := []filter.Policy{{Company: "Acme", Tier: filter.TierModerate}}
	require.NoError(t, cfg.SetCopyright(policies))
	require.Error(t, cfg.SetFilters([]filter.Rule{{ID: "x", Type: "nope"}}))
	require.NoError(t, cfg.Save())

	require.NoError(t, cfg.Load())
	assert.InDelta(t, 10.0, cfg.Relevance().FuzzyScore, 0.001)
	assert.Equal(t, policies, cfg.Copyright())
}

func TestSetters_SearchTuningPersist(t *testing.T) {
	t.Parallel()
	cfg, err := loadInstance(t, "config_schema = 1\n[flagships]\npath = \"/etc/gamedex/flagships.csv\"\n")
	require.NoError(t, err)

	rc := ranking.DefaultConfig()
	rc.NicheBoost = rc.FlagshipBoost + 1
	require.ErrorIs(t, cfg.SetRanking(rc), ranking.ErrInvalidConfig)
	assert.Equal(t, ranking.DefaultConfig(), cfg.Ranking())

	rc = ranking.DefaultConfig()
	rc.FlagshipBoost = 75
	require.NoError(t, cfg.SetRanking(rc))

	require.Error(t, cfg.SetFranchises(nil))
	require.ErrorIs(t, cfg.SetFranchises([]franchise.Pattern{{ID: "acme"}}), franchise.ErrInvalidPattern)
	patterns := []franchise.Pattern{{ID: "acme", Name: "Acme", Match: []string{"acme"}}}
	require.NoError(t, cfg.SetFranchises(patterns))

	require.Error(t, cfg.SetFlagships(nil))
	require.ErrorIs(t, cfg.SetFlagships([]franchise.Flagship{
		{Franchise: "acme", Title: "Acme Quest", Base: -1},
	}), franchise.ErrInvalidFlagship)
	entries := []franchise.Flagship{{Franchise: "acme", Title: "Acme Quest", Base: 10, Significance: 5, Age: 2}}
	require.NoError(t, cfg.SetFlagships(entries))

	require.NoError(t, cfg.Save())
	require.NoError(t, cfg.Load())

	assert.InDelta(t, 75.0, cfg.Ranking().FlagshipBoost, 0.001)
	assert.Equal(t, patterns, cfg.Franchises())

	// inline entries win over the file, which does not exist here
	s, err := cfg.SearchSettings(afero.NewMemMapFs())
	require.NoError(t, err)
	require.NotNil(t, s.Flagships)
	assert.Equal(t, entries, s.Flagships.Entries())
	assert.Equal(t, patterns, s.Franchises)
	assert.InDelta(t, 75.0, s.Ranking.FlagshipBoost, 0.001)
}

func TestLoad_AuthFile(t *testing.T) {
	dir := writeConfig(t, "config_schema = 1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, AuthFile), []byte(`
["https://api.igdb.com"]
username = "client-id"
password = "client-secret"
`), 0o600))
	t.Cleanup(func() { SetAuthCfgForTesting(nil) })

	t.Setenv(CfgEnv, "")
	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	id, secret, ok := cfg.IGDBCredentials()
	require.True(t, ok)
	assert.Equal(t, "client-id", id)
	assert.Equal(t, "client-secret", secret)
}

func TestAccessorsWithValues(t *testing.T) {
	t.Parallel()

	port := 9000
	off := false
	batch := 250
	cfg := &Instance{vals: Values{
		Service: Service{
			APIListen: "127.0.0.1", APIPort: &port,
			AdminAllowedIPs: []string{"10.0.0.0/8"},
		},
		IGDB:      IGDB{Enabled: &off, Timeout: "bogus"},
		Sync:      Sync{BatchSize: &batch, Interval: "-1h"},
		Database:  Database{Path: "/var/lib/gamedex/catalog.db"},
		Telemetry: Telemetry{ErrorReporting: true},
	}}

	assert.Equal(t, "127.0.0.1:9000", cfg.APIListen())
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.AdminAllowedIPs())
	assert.False(t, cfg.IGDBEnabled())
	assert.Equal(t, 10*time.Second, cfg.IGDBTimeout(), "invalid duration falls back")
	assert.Equal(t, 250, cfg.SyncBatchSize())
	assert.Equal(t, 6*time.Hour, cfg.SyncInterval(), "negative duration falls back")
	assert.Equal(t, "/var/lib/gamedex/catalog.db", cfg.DatabasePath("ignored"))
	assert.True(t, cfg.ErrorReporting())
	assert.Equal(t, "production", cfg.TelemetryEnvironment())
}
