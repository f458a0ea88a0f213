// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/ecosystem/internal/seal"
	"github.com/ManuGH/ecosystem/internal/validate"
)

// Validate checks the configuration of every enabled service.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("log.level", cfg.Log.Level, []string{"trace", "debug", "info", "warn", "error"})
	if cfg.Log.Dir != "" {
		v.OneOf("log.fileLevel", cfg.Log.FileLevel, []string{"trace", "debug", "info", "warn", "error"})
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	if cfg.Ops.ListenAddr != "" {
		v.ListenAddr("ops.listenAddr", cfg.Ops.ListenAddr)
	}
	v.MinDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout, time.Second)

	if s := cfg.Shortener; s.Enabled {
		v.ListenAddr("shortener.listenAddr", s.ListenAddr)
		v.URL("shortener.publicBaseURL", s.PublicBaseURL, []string{"http", "https"})
		v.OneOf("shortener.store.driver", s.Store.Driver, []string{"sqlite", "postgres", "badger"})
		switch s.Store.Driver {
		case "postgres":
			v.NotEmpty("shortener.store.dsn", s.Store.DSN)
		case "sqlite", "badger":
			v.NotEmpty("shortener.store.path", s.Store.Path)
		}
		v.OneOf("shortener.cache.driver", s.Cache.Driver, []string{"memory", "redis", "none"})
		if s.Cache.Driver == "redis" {
			v.ListenAddr("shortener.cache.redisAddr", s.Cache.RedisAddr)
			v.Range("shortener.cache.redisDB", s.Cache.RedisDB, 0, 15)
		}
		if s.Cache.Driver != "none" {
			v.MinDuration("shortener.cache.ttl", s.Cache.TTL, time.Second)
		}
		v.Positive("shortener.rateLimit.requests", s.RateLimit.Requests)
		v.MinDuration("shortener.rateLimit.window", s.RateLimit.Window, time.Second)
	}

	if c := cfg.Chat; c.Enabled {
		v.ListenAddr("chat.listenAddr", c.ListenAddr)
		v.Positive("chat.maxConnections", c.MaxConnections)
		v.Positive("chat.queueSize", c.QueueSize)
		v.Positive("chat.acceptBurst", c.AcceptBurst)
	}

	if p := cfg.Proxy; p.Enabled {
		v.ListenAddr("proxy.listenAddr", p.ListenAddr)
		v.ListenAddr("proxy.upstreamAddr", p.UpstreamAddr)
		v.MinDuration("proxy.dialTimeout", p.DialTimeout, 10*time.Millisecond)
		v.Positive("proxy.maxConnections", p.MaxConnections)
		v.Positive("proxy.acceptBurst", p.AcceptBurst)
		if p.BreakerThreshold < 0 {
			v.AddError("proxy.breakerThreshold", "value must not be negative", p.BreakerThreshold)
		}
		if p.BreakerThreshold > 0 {
			v.MinDuration("proxy.breakerReset", p.BreakerReset, 100*time.Millisecond)
		}
	}

	if cfg.UserAPI.Enabled {
		v.ListenAddr("userapi.listenAddr", cfg.UserAPI.ListenAddr)
	}
	if cfg.Greeter.Enabled {
		v.ListenAddr("greeter.listenAddr", cfg.Greeter.ListenAddr)
		v.MinDuration("greeter.taskBudget", cfg.Greeter.TaskBudget, time.Millisecond)
	}

	if cfg.Seal.Key != "" {
		if _, err := seal.ParseKey(cfg.Seal.Key); err != nil {
			v.AddError("seal.key", ErrInvalidSealKey.Error(), "<redacted>")
		}
	}

	return v.Err()
}
