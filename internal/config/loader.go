// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. An empty configPath means
// environment and defaults only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Path returns the file the loader reads, if any.
func (l *Loader) Path() string {
	return l.configPath
}

// Load builds the effective configuration and validates it.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := decodeFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile decodes path on top of the defaults without applying environment overrides.
func LoadFile(path string) (AppConfig, error) {
	cfg := Default()
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decode(data, cfg)
}

func decode(data []byte, cfg *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil // empty file keeps defaults
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.Log.Level = ParseString("ECO_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = ParseString("ECO_LOG_SERVICE", cfg.Log.Service)
	cfg.Log.Dir = ParseString("ECO_LOG_DIR", cfg.Log.Dir)
	cfg.Log.FileLevel = ParseString("ECO_LOG_FILE_LEVEL", cfg.Log.FileLevel)

	cfg.Telemetry.Enabled = ParseBool("ECO_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString("ECO_TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString("ECO_OTLP_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = ParseString("ECO_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = ParseFloat("ECO_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	cfg.Ops.ListenAddr = ParseString("ECO_OPS_LISTEN", cfg.Ops.ListenAddr)

	cfg.Server.ReadTimeout = ParseDuration("ECO_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = ParseDuration("ECO_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = ParseDuration("ECO_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = ParseDuration("ECO_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Shortener.Enabled = ParseBool("ECO_SHORTENER_ENABLED", cfg.Shortener.Enabled)
	cfg.Shortener.ListenAddr = ParseString("ECO_SHORTENER_LISTEN", cfg.Shortener.ListenAddr)
	cfg.Shortener.PublicBaseURL = ParseString("ECO_SHORTENER_PUBLIC_URL", cfg.Shortener.PublicBaseURL)
	cfg.Shortener.Store.Driver = ParseString("ECO_SHORTENER_STORE", cfg.Shortener.Store.Driver)
	cfg.Shortener.Store.DSN = ParseString("ECO_SHORTENER_DSN", cfg.Shortener.Store.DSN)
	cfg.Shortener.Store.Path = ParseString("ECO_SHORTENER_STORE_PATH", cfg.Shortener.Store.Path)
	cfg.Shortener.Cache.Driver = ParseString("ECO_SHORTENER_CACHE", cfg.Shortener.Cache.Driver)
	cfg.Shortener.Cache.TTL = ParseDuration("ECO_SHORTENER_CACHE_TTL", cfg.Shortener.Cache.TTL)
	cfg.Shortener.Cache.RedisAddr = ParseString("ECO_REDIS_ADDR", cfg.Shortener.Cache.RedisAddr)
	cfg.Shortener.Cache.RedisPassword = ParseString("ECO_REDIS_PASSWORD", cfg.Shortener.Cache.RedisPassword)
	cfg.Shortener.Cache.RedisDB = ParseInt("ECO_REDIS_DB", cfg.Shortener.Cache.RedisDB)

	cfg.Chat.Enabled = ParseBool("ECO_CHAT_ENABLED", cfg.Chat.Enabled)
	cfg.Chat.ListenAddr = ParseString("ECO_CHAT_LISTEN", cfg.Chat.ListenAddr)
	cfg.Chat.MaxConnections = ParseInt("ECO_CHAT_MAX_CONNECTIONS", cfg.Chat.MaxConnections)

	cfg.Proxy.Enabled = ParseBool("ECO_PROXY_ENABLED", cfg.Proxy.Enabled)
	cfg.Proxy.ListenAddr = ParseString("ECO_PROXY_LISTEN", cfg.Proxy.ListenAddr)
	cfg.Proxy.UpstreamAddr = ParseString("ECO_PROXY_UPSTREAM", cfg.Proxy.UpstreamAddr)
	cfg.Proxy.DialTimeout = ParseDuration("ECO_PROXY_DIAL_TIMEOUT", cfg.Proxy.DialTimeout)
	cfg.Proxy.BreakerThreshold = ParseInt("ECO_PROXY_BREAKER_THRESHOLD", cfg.Proxy.BreakerThreshold)

	cfg.UserAPI.Enabled = ParseBool("ECO_USERAPI_ENABLED", cfg.UserAPI.Enabled)
	cfg.UserAPI.ListenAddr = ParseString("ECO_USERAPI_LISTEN", cfg.UserAPI.ListenAddr)

	cfg.Greeter.Enabled = ParseBool("ECO_GREETER_ENABLED", cfg.Greeter.Enabled)
	cfg.Greeter.ListenAddr = ParseString("ECO_GREETER_LISTEN", cfg.Greeter.ListenAddr)

	cfg.Seal.Key = ParseString("ECO_SEAL_KEY", cfg.Seal.Key)
}
