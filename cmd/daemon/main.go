// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/ecosystem/internal/config"
	"github.com/ManuGH/ecosystem/internal/daemon"
	xglog "github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/telemetry"
	"github.com/ManuGH/ecosystem/internal/version"
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(healthcheckCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "ecosystem",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = resolveDefaultConfigPath()
	}

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(path, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	// Re-configure logger with loaded configuration
	logCfg := xglog.Config{
		Level:     cfg.Log.Level,
		Service:   cfg.Log.Service,
		Version:   cfg.Version,
		FileLevel: cfg.Log.FileLevel,
	}
	if cfg.Log.Dir != "" {
		logCfg.File = &xglog.FileConfig{Dir: cfg.Log.Dir, Prefix: cfg.Log.Service + ".log"}
	}
	xglog.Configure(logCfg)
	defer func() { _ = xglog.Close() }()
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "telemetry.init_failed").Msg("failed to initialise tracing")
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	sealer, err := daemon.ResolveSealer(cfg.Seal.Key, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "seal.init_failed").Msg("failed to initialise sealer")
	}

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Msg("starting ecosystem")
	if cfg.Shortener.Enabled {
		store := cfg.Shortener.Store
		target := store.Path
		if store.Driver == "postgres" {
			target = maskURL(store.DSN)
		}
		logger.Info().Msgf("→ Shortener: %s (store: %s %s, cache: %s)", cfg.Shortener.ListenAddr, store.Driver, target, cfg.Shortener.Cache.Driver)
	}
	if cfg.Chat.Enabled {
		logger.Info().Msgf("→ Chat: %s", cfg.Chat.ListenAddr)
	}
	if cfg.Proxy.Enabled {
		logger.Info().Msgf("→ Proxy: %s → %s", cfg.Proxy.ListenAddr, cfg.Proxy.UpstreamAddr)
	}
	if cfg.UserAPI.Enabled {
		logger.Info().Msgf("→ User API: %s", cfg.UserAPI.ListenAddr)
	}
	if cfg.Greeter.Enabled {
		logger.Info().Msgf("→ Greeter: %s", cfg.Greeter.ListenAddr)
	}

	app, err := daemon.NewApp(ctx, config.NewHolder(cfg, loader), sealer)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "daemon.build_failed").
			Msg("failed to build services")
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "daemon.failed").
			Msg("daemon failed")
		_ = xglog.Close()
		os.Exit(1)
	}

	logger.Info().Str("event", "shutdown.complete").Msg("server exiting")
}
