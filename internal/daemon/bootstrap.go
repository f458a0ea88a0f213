// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/ecosystem/internal/api/middleware"
	"github.com/ManuGH/ecosystem/internal/cache"
	"github.com/ManuGH/ecosystem/internal/chat"
	"github.com/ManuGH/ecosystem/internal/config"
	"github.com/ManuGH/ecosystem/internal/greeter"
	"github.com/ManuGH/ecosystem/internal/health"
	"github.com/ManuGH/ecosystem/internal/log"
	"github.com/ManuGH/ecosystem/internal/proxy"
	"github.com/ManuGH/ecosystem/internal/ratelimit"
	"github.com/ManuGH/ecosystem/internal/seal"
	"github.com/ManuGH/ecosystem/internal/shortener"
	"github.com/ManuGH/ecosystem/internal/user"
)

// Service names used for listeners, logs and health checks.
const (
	ServiceShortener = "shortener"
	ServiceChat      = "chat"
	ServiceProxy     = "proxy"
	ServiceUserAPI   = "userapi"
	ServiceGreeter   = "greeter"
	ServiceOps       = "ops"
)

// ResolveSealer builds the sealer for profile fields. An empty key yields a
// random one, which makes sealed values unreadable after a restart.
func ResolveSealer(key string, logger zerolog.Logger) (*seal.Sealer, error) {
	if key == "" {
		raw, err := seal.GenerateKey()
		if err != nil {
			return nil, err
		}
		logger.Warn().
			Str(log.FieldEvent, "seal.key_generated").
			Msg("no seal key configured, generated an ephemeral key; sealed values will not survive a restart")
		return seal.New(raw)
	}
	raw, err := seal.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("seal key: %w", err)
	}
	return seal.New(raw)
}

// build wires every enabled service from cfg into m.
func build(ctx context.Context, cfg config.AppConfig, sealer *seal.Sealer, m *Manager, hm *health.Manager) (*proxy.Server, error) {
	logger := log.WithComponent("daemon")
	var proxySrv *proxy.Server

	if cfg.Shortener.Enabled {
		if err := buildShortener(ctx, cfg, m, hm); err != nil {
			return nil, err
		}
	}

	if cfg.Chat.Enabled {
		srv := chat.NewServer(chat.Config{
			MaxConnections: cfg.Chat.MaxConnections,
			QueueSize:      cfg.Chat.QueueSize,
			Limiter:        ratelimit.New(ServiceChat, acceptLimits(cfg.Chat.AcceptRate, cfg.Chat.AcceptBurst)),
		})
		m.Add(ServiceChat, cfg.Chat.ListenAddr, func(ln net.Listener) error {
			if err := srv.Serve(ln); !errors.Is(err, chat.ErrServerClosed) {
				return err
			}
			return nil
		}, srv.Shutdown)
		hm.RegisterChecker(health.NewListenerChecker(ServiceChat, addrOf(srv.Addr)))
	}

	if cfg.Proxy.Enabled {
		srv, err := proxy.New(proxy.Config{
			ListenAddr:     cfg.Proxy.ListenAddr,
			UpstreamAddr:   cfg.Proxy.UpstreamAddr,
			DialTimeout:    cfg.Proxy.DialTimeout,
			MaxConnections: cfg.Proxy.MaxConnections,
			Limiter:        ratelimit.New(ServiceProxy, acceptLimits(cfg.Proxy.AcceptRate, cfg.Proxy.AcceptBurst)),
			Logger:         log.WithComponent(ServiceProxy),

			BreakerThreshold: cfg.Proxy.BreakerThreshold,
			BreakerReset:     cfg.Proxy.BreakerReset,
		})
		if err != nil {
			return nil, err
		}
		m.Add(ServiceProxy, cfg.Proxy.ListenAddr, srv.Serve, srv.Shutdown)
		hm.RegisterChecker(health.NewListenerChecker(ServiceProxy, addrOf(srv.Addr)))
		proxySrv = srv
	}

	if cfg.UserAPI.Enabled {
		u, p := user.Seed(time.Now())
		r := newRouter(ServiceUserAPI)
		user.NewHandler(user.NewStore(u, p), user.NewCodec(sealer)).Register(r)
		addHTTP(m, ServiceUserAPI, cfg.UserAPI.ListenAddr, r, cfg.Server)
	}

	if cfg.Greeter.Enabled {
		r := newRouter(ServiceGreeter)
		greeter.NewHandler(greeter.Config{TaskBudget: cfg.Greeter.TaskBudget}).Register(r)
		addHTTP(m, ServiceGreeter, cfg.Greeter.ListenAddr, r, cfg.Server)
	}

	if len(m.services) == 0 {
		return nil, ErrNoServices
	}

	if cfg.Ops.ListenAddr != "" {
		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/healthz", hm.ServeHealth)
		r.Get("/readyz", hm.ServeReady)
		addHTTP(m, ServiceOps, cfg.Ops.ListenAddr, r, cfg.Server)
	}

	logger.Info().
		Str(log.FieldEvent, "daemon.services_built").
		Int("services", len(m.services)).
		Msg("services configured")
	return proxySrv, nil
}

func buildShortener(ctx context.Context, cfg config.AppConfig, m *Manager, hm *health.Manager) error {
	sc := cfg.Shortener
	store, err := shortener.OpenStore(ctx, shortener.StoreOptions{
		Driver: sc.Store.Driver,
		DSN:    sc.Store.DSN,
		Path:   sc.Store.Path,
	})
	if err != nil {
		return fmt.Errorf("shortener store: %w", err)
	}
	m.RegisterShutdownHook("shortener_store", func(context.Context) error { return store.Close() })

	c, err := cache.New(ctx, cache.Options{
		Driver: sc.Cache.Driver,
		TTL:    sc.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     sc.Cache.RedisAddr,
			Password: sc.Cache.RedisPassword,
			DB:       sc.Cache.RedisDB,
		},
	}, log.WithComponent("cache"))
	if err != nil {
		return fmt.Errorf("shortener cache: %w", err)
	}
	m.RegisterShutdownHook("shortener_cache", func(context.Context) error { return c.Close() })

	svc := shortener.NewService(store, c, shortener.Options{CacheTTL: sc.Cache.TTL})
	hm.RegisterChecker(health.NewPingChecker("shortener_store", true, svc.Ping))
	hm.RegisterChecker(health.NewPingChecker("shortener_cache", false, c.Ping))

	r := newRouter(ServiceShortener)
	limit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestLimit: sc.RateLimit.Requests,
		WindowSize:   sc.RateLimit.Window,
	})
	shortener.NewHandler(svc, sc.PublicBaseURL).Register(r, limit)
	addHTTP(m, ServiceShortener, sc.ListenAddr, r, cfg.Server)
	return nil
}

func newRouter(service string) *chi.Mux {
	return middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: service,
		EnableLogging:  true,
	})
}

func addHTTP(m *Manager, name, addr string, h http.Handler, sc config.ServerConfig) {
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: sc.ReadTimeout / 2,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
		MaxHeaderBytes:    sc.MaxHeaderBytes,
	}
	m.Add(name, addr, func(ln net.Listener) error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, srv.Shutdown)
}

func acceptLimits(perIP float64, burst int) ratelimit.Config {
	rc := ratelimit.DefaultConfig()
	if perIP > 0 {
		rc.PerIPRate = rate.Limit(perIP)
	}
	if burst > 0 {
		rc.PerIPBurst = burst
	}
	return rc
}

func addrOf(fn func() net.Addr) func() string {
	return func() string {
		if a := fn(); a != nil {
			return a.String()
		}
		return ""
	}
}
