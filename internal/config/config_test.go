// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/ecosystem/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := NewLoader("", "v-test").Load()
	require.NoError(t, err)

	assert.Equal(t, "v-test", cfg.Version)
	assert.Equal(t, "127.0.0.1:9876", cfg.Shortener.ListenAddr)
	assert.Equal(t, "sqlite", cfg.Shortener.Store.Driver)
	assert.Equal(t, 128, cfg.Chat.QueueSize)
	assert.False(t, cfg.Proxy.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
shortener:
  listenAddr: 0.0.0.0:7000
  cache:
    driver: none
proxy:
  enabled: true
  upstreamAddr: 10.0.0.1:80
  dialTimeout: 2s
`)
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7000", cfg.Shortener.ListenAddr)
	assert.Equal(t, "none", cfg.Shortener.Cache.Driver)
	assert.True(t, cfg.Proxy.Enabled)
	assert.Equal(t, "10.0.0.1:80", cfg.Proxy.UpstreamAddr)
	assert.Equal(t, 2*time.Second, cfg.Proxy.DialTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, "127.0.0.1:8081", cfg.Proxy.ListenAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "chat:\n  listenAddr: 127.0.0.1:1111\n")
	t.Setenv("ECO_CHAT_LISTEN", "127.0.0.1:2222")
	t.Setenv("ECO_SHORTENER_ENABLED", "no")

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2222", cfg.Chat.ListenAddr)
	assert.False(t, cfg.Shortener.Enabled)
}

func TestLoad_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("ECO_CHAT_MAX_CONNECTIONS", "lots")
	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.Chat.MaxConnections)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "shortener:\n  bogus: true\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), err)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Chat, cfg.Chat)
}

func TestValidate_Failures(t *testing.T) {
	cfg := Default()
	cfg.Shortener.Store.Driver = "mysql"
	cfg.Chat.ListenAddr = "nope"
	cfg.Seal.Key = "too-short"

	err := Validate(cfg)
	require.Error(t, err)

	var verr validate.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Errors()))
	for _, e := range verr.Errors() {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"shortener.store.driver", "chat.listenAddr", "seal.key"}, fields)
	assert.NotContains(t, err.Error(), "too-short")
}

func TestValidate_PostgresNeedsDSN(t *testing.T) {
	cfg := Default()
	cfg.Shortener.Store.Driver = "postgres"
	err := Validate(cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "shortener.store.dsn"))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Proxy.UpstreamAddr = "127.0.0.1:9999"

	require.NoError(t, WriteFile(path, cfg, false))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Proxy, loaded.Proxy)
	assert.Equal(t, cfg.Server, loaded.Server)

	err = WriteFile(path, cfg, false)
	require.Error(t, err, "existing file must not be overwritten")
	require.NoError(t, WriteFile(path, cfg, true))
}

func TestHolder_ReloadNotifiesListeners(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "proxy:\n  upstreamAddr: 127.0.0.1:1000\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	writeConfig(t, dir, "proxy:\n  upstreamAddr: 127.0.0.1:2000\n")
	require.NoError(t, h.Reload(context.Background()))

	select {
	case got := <-ch:
		assert.Equal(t, "127.0.0.1:2000", got.Proxy.UpstreamAddr)
	case <-time.After(time.Second):
		t.Fatal("listener not notified")
	}
	assert.Equal(t, "127.0.0.1:2000", h.Current().Proxy.UpstreamAddr)
}

func TestHolder_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "chat:\n  queueSize: 64\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	writeConfig(t, dir, "chat:\n  queueSize: 0\n")
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, 64, h.Current().Chat.QueueSize)
}

func TestHolder_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "proxy:\n  upstreamAddr: 127.0.0.1:1000\n")
	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx) }()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "proxy:\n  upstreamAddr: 127.0.0.1:3000\n")

	assert.Eventually(t, func() bool {
		return h.Current().Proxy.UpstreamAddr == "127.0.0.1:3000"
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
