// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Default returns the configuration used when neither file nor environment set a value.
func Default() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:     "info",
			Service:   "ecosystem",
			FileLevel: "warn",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "development",
			SamplingRate: 1.0,
		},
		Ops: OpsConfig{ListenAddr: "127.0.0.1:9090"},
		Server: ServerConfig{
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Shortener: ShortenerConfig{
			Enabled:       true,
			ListenAddr:    "127.0.0.1:9876",
			PublicBaseURL: "http://127.0.0.1:9876",
			Store:         StoreConfig{Driver: "sqlite", Path: "shortener.db"},
			Cache:         CacheConfig{Driver: "memory", TTL: 10 * time.Minute},
			RateLimit:     RateLimitConfig{Requests: 60, Window: time.Minute},
		},
		Chat: ChatConfig{
			Enabled:        true,
			ListenAddr:     "127.0.0.1:8080",
			MaxConnections: 1024,
			QueueSize:      128,
			AcceptRate:     5,
			AcceptBurst:    10,
		},
		Proxy: ProxyConfig{
			Enabled:        false,
			ListenAddr:     "127.0.0.1:8081",
			UpstreamAddr:   "127.0.0.1:8080",
			DialTimeout:    5 * time.Second,
			MaxConnections: 1024,
			AcceptRate:     20,
			AcceptBurst:    40,

			BreakerThreshold: 5,
			BreakerReset:     10 * time.Second,
		},
		UserAPI: UserAPIConfig{Enabled: true, ListenAddr: "127.0.0.1:8082"},
		Greeter: GreeterConfig{
			Enabled:    true,
			ListenAddr: "127.0.0.1:8083",
			TaskBudget: 100 * time.Millisecond,
		},
	}
}
