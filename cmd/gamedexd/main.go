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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/gamedex/gamedex-core/internal/telemetry"
	"github.com/gamedex/gamedex-core/pkg/config"
	"github.com/gamedex/gamedex-core/pkg/helpers"
	"github.com/gamedex/gamedex-core/pkg/service"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String(
		"config",
		"",
		"path to config file (default $XDG_CONFIG_HOME/gamedex/gamedex.toml)",
	)
	dataDir := flag.String(
		"data",
		filepath.Join(xdg.DataHome, config.AppName),
		"directory for the catalog database and logs",
	)
	daemonMode := flag.Bool(
		"daemon",
		false,
		"log to stderr as well as the log file",
	)
	showVersion := flag.Bool(
		"version",
		false,
		"print version and exit",
	)
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Fprintln(os.Stdout, config.AppVersion)
		return nil
	}

	var logWriters []io.Writer
	if *daemonMode {
		logWriters = []io.Writer{os.Stderr}
	}
	if err := helpers.InitLogging(filepath.Join(*dataDir, config.LogFile), logWriters); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if *cfgPath != "" {
		if err := os.Setenv(config.CfgEnv, *cfgPath); err != nil {
			return fmt.Errorf("failed to set config path: %w", err)
		}
	}
	cfg, err := config.NewConfig(filepath.Join(xdg.ConfigHome, config.AppName), config.BaseDefaults)
	if err != nil {
		log.Error().Err(err).Msg("error loading config")
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := telemetry.Init(telemetry.Options{
		Enabled:     cfg.ErrorReporting(),
		DSN:         cfg.TelemetryDSN(),
		Environment: cfg.TelemetryEnvironment(),
		InstanceID:  cfg.InstanceID(),
		Version:     config.AppVersion,
	}); err != nil {
		log.Warn().Err(err).Msg("error reporting not started")
	}
	defer telemetry.Close()

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %v\n", r)
			telemetry.Flush()
			log.Fatal().Msgf("panic: %v", r)
		}
	}()

	stop, done, err := service.Start(service.Deps{Config: cfg, DataDir: *dataDir})
	if err != nil {
		log.Error().Err(err).Msg("error starting service")
		return fmt.Errorf("error starting service: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-done:
		log.Warn().Msg("service exited")
	}

	if err := stop(); err != nil {
		log.Error().Err(err).Msg("error stopping service")
		return fmt.Errorf("error stopping service: %w", err)
	}
	return nil
}
