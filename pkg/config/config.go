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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gamedex/gamedex-core/pkg/helpers/syncutil"
	"github.com/gamedex/gamedex-core/pkg/search/filter"
	"github.com/gamedex/gamedex-core/pkg/search/franchise"
	"github.com/gamedex/gamedex-core/pkg/search/ranking"
	"github.com/gamedex/gamedex-core/pkg/search/relevance"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "GAMEDEX_CFG"
)

var ErrInvalidConfig = errors.New("invalid config")

type Values struct {
	Relevance    *relevance.Config   `toml:"relevance,omitempty"`
	Ranking      *ranking.Config     `toml:"ranking,omitempty"`
	Service      Service             `toml:"service"`
	Database     Database            `toml:"database,omitempty"`
	Search       Search              `toml:"search,omitempty"`
	Flagships    Flagships           `toml:"flagships,omitempty"`
	IGDB         IGDB                `toml:"igdb,omitempty"`
	Sync         Sync                `toml:"sync,omitempty"`
	Analytics    Analytics           `toml:"analytics,omitempty"`
	Telemetry    Telemetry           `toml:"telemetry,omitempty"`
	Filters      []filter.Rule       `toml:"filters,omitempty"`
	Copyright    []filter.Policy     `toml:"copyright,omitempty"`
	Franchises   []franchise.Pattern `toml:"franchises,omitempty"`
	ConfigSchema int                 `toml:"config_schema"`
	DebugLogging bool                `toml:"debug_logging"`
}

type Auth struct {
	Creds map[string]CredentialEntry `toml:"creds,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
}

type Instance struct {
	cfgPath  string
	authPath string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

var (
	authCfg  atomic.Value
	validate = validator.New(validator.WithRequiredStructEnabled())
)

func GetAuthCfg() map[string]CredentialEntry {
	val := authCfg.Load()
	if val == nil {
		return nil
	}
	creds, ok := val.(map[string]CredentialEntry)
	if !ok {
		return nil
	}
	return creds
}

// SetAuthCfgForTesting sets the global auth config for testing purposes
func SetAuthCfgForTesting(creds map[string]CredentialEntry) {
	authCfg.Store(creds)
}

// NewConfig loads the config file from configDir, or from the path in
// GAMEDEX_CFG, writing a default file first when none exists.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		cfgPath:  cfgPath,
		authPath: filepath.Join(filepath.Dir(cfgPath), AuthFile),
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// sectionOverlay decodes the tuning sections on top of their defaults, so
// a file that sets one weight keeps the default for every other.
type sectionOverlay struct {
	Relevance relevance.Config `toml:"relevance"`
	Ranking   ranking.Config   `toml:"ranking"`
}

type sectionPresence struct {
	Relevance map[string]any `toml:"relevance"`
	Ranking   map[string]any `toml:"ranking"`
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	var present sectionPresence
	if err := toml.Unmarshal(data, &present); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	overlay := sectionOverlay{Relevance: relevance.DefaultConfig(), Ranking: ranking.DefaultConfig()}
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	newVals.Relevance, newVals.Ranking = nil, nil
	if present.Relevance != nil {
		newVals.Relevance = &overlay.Relevance
	}
	if present.Ranking != nil {
		newVals.Ranking = &overlay.Ranking
	}

	if err := newVals.Validate(); err != nil {
		return err
	}

	c.vals = newVals
	zerolog.SetGlobalLevel(levelFor(c.vals.DebugLogging))

	if _, err := os.Stat(c.authPath); err == nil {
		log.Info().Msg("loading auth file")
		authData, err := os.ReadFile(c.authPath)
		if err != nil {
			return fmt.Errorf("failed to read auth file: %w", err)
		}
		creds := LoadAuthFromData(authData)
		log.Info().Msgf("loaded %d auth entries", len(creds))
		authCfg.Store(creds)
	}

	return nil
}

// Validate checks struct tags and the search tuning sections.
//
//nolint:gocritic // values copied by callers
func (v Values) Validate() error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if v.Relevance != nil {
		if err := v.Relevance.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if v.Ranking != nil {
		if err := v.Ranking.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if err := filter.ValidateRules(v.Filters); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := filter.ValidatePolicies(v.Copyright); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if v.Franchises != nil {
		if err := franchise.ValidatePatterns(v.Franchises); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if len(v.Flagships.Entries) > 0 {
		if _, err := franchise.NewFlagshipTable(v.Flagships.Entries); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	if _, err := v.Search.durations(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	if c.vals.Service.InstanceID == "" {
		newID := uuid.New().String()
		c.vals.Service.InstanceID = newID
		log.Info().Msgf("generated new instance id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Instance) ConfigPath() string {
	return c.cfgPath
}

func levelFor(debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
	zerolog.SetGlobalLevel(levelFor(enabled))
}
