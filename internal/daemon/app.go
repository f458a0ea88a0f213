// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon assembles the configured services and owns their lifecycle.
package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/ecosystem/internal/config"
	"github.com/ManuGH/ecosystem/internal/health"
	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/proxy"
	"github.com/ManuGH/ecosystem/internal/seal"
)

// App owns the long-lived runtime lifecycle (watchers, reload wiring) and
// delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      *Manager
	health       *health.Manager
	cfgHolder    *config.Holder
	proxy        *proxy.Server
	reloadSignal os.Signal
}

// NewApp builds every service enabled in the holder's current configuration.
func NewApp(ctx context.Context, cfgHolder *config.Holder, sealer *seal.Sealer) (*App, error) {
	cfg := cfgHolder.Current()
	hm := health.NewManager(cfg.Version)
	m := NewManager(cfg.Server.ShutdownTimeout)

	proxySrv, err := build(ctx, cfg, sealer, m, hm)
	if err != nil {
		m.runHooks(context.Background())
		return nil, err
	}

	return &App{
		logger:       log.WithComponent("daemon"),
		manager:      m,
		health:       hm,
		cfgHolder:    cfgHolder,
		proxy:        proxySrv,
		reloadSignal: syscall.SIGHUP,
	}, nil
}

// Manager exposes the service manager, mainly for listener addresses.
func (a *App) Manager() *Manager { return a.manager }

// Health exposes the health manager.
func (a *App) Health() *health.Manager { return a.health }

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	// Config watcher is best-effort: startup should not fail if watcher cannot be started.
	g.Go(func() error {
		if err := a.cfgHolder.Watch(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		return nil
	})

	if a.proxy != nil {
		updates := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(updates)
		g.Go(func() error {
			a.proxy.FollowConfig(ctx, updates)
			return nil
		})
	}

	if a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")
					// Reload logs its own failure and keeps the previous config.
					_ = a.cfgHolder.Reload(ctx)
				}
			}
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}
