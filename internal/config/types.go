// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads, validates and hot-reloads the daemon configuration.
package config

import "time"

// AppConfig is the complete daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Ops       OpsConfig       `yaml:"ops"`
	Server    ServerConfig    `yaml:"server"`
	Shortener ShortenerConfig `yaml:"shortener"`
	Chat      ChatConfig      `yaml:"chat"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	UserAPI   UserAPIConfig   `yaml:"userapi"`
	Greeter   GreeterConfig   `yaml:"greeter"`
	Seal      SealConfig      `yaml:"seal"`
}

// LogConfig configures the zerolog sinks.
type LogConfig struct {
	Level     string `yaml:"level"`
	Service   string `yaml:"service"`
	Dir       string `yaml:"dir"`       // empty disables the rotating file sink
	FileLevel string `yaml:"fileLevel"` // minimum level written to the file sink
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// OpsConfig configures the metrics and health listener.
type OpsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// ServerConfig holds HTTP server timeouts shared by all HTTP services.
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes  int           `yaml:"maxHeaderBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// ShortenerConfig configures the URL shortener service.
type ShortenerConfig struct {
	Enabled       bool            `yaml:"enabled"`
	ListenAddr    string          `yaml:"listenAddr"`
	PublicBaseURL string          `yaml:"publicBaseURL"`
	Store         StoreConfig     `yaml:"store"`
	Cache         CacheConfig     `yaml:"cache"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`
}

// StoreConfig selects the shortener persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite | postgres | badger
	DSN    string `yaml:"dsn"`    // postgres connection string
	Path   string `yaml:"path"`   // sqlite file or badger directory
}

// CacheConfig selects the resolve cache.
type CacheConfig struct {
	Driver        string        `yaml:"driver"` // memory | redis | none
	TTL           time.Duration `yaml:"ttl"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
}

// RateLimitConfig is a sliding window request limit per client IP.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// ChatConfig configures the TCP chat room.
type ChatConfig struct {
	Enabled        bool    `yaml:"enabled"`
	ListenAddr     string  `yaml:"listenAddr"`
	MaxConnections int     `yaml:"maxConnections"`
	QueueSize      int     `yaml:"queueSize"`
	AcceptRate     float64 `yaml:"acceptRate"` // accepted connections per second per IP
	AcceptBurst    int     `yaml:"acceptBurst"`
}

// ProxyConfig configures the TCP reverse proxy.
type ProxyConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ListenAddr     string        `yaml:"listenAddr"`
	UpstreamAddr   string        `yaml:"upstreamAddr"`
	DialTimeout    time.Duration `yaml:"dialTimeout"`
	MaxConnections int           `yaml:"maxConnections"`
	AcceptRate     float64       `yaml:"acceptRate"`
	AcceptBurst    int           `yaml:"acceptBurst"`
	// BreakerThreshold consecutive dial failures open the upstream breaker.
	// Zero disables it.
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// UserAPIConfig configures the user JSON API.
type UserAPIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

// GreeterConfig configures the traced hello endpoint.
type GreeterConfig struct {
	Enabled    bool          `yaml:"enabled"`
	ListenAddr string        `yaml:"listenAddr"`
	TaskBudget time.Duration `yaml:"taskBudget"`
}

// SealConfig holds the symmetric key used for sealed profile fields.
type SealConfig struct {
	Key string `yaml:"key"` // 64 hex characters or 32 raw bytes
}
