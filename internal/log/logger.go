// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level   string    // optional log level ("debug", "info", etc.)
	Output  io.Writer // optional writer (defaults to os.Stdout)
	Service string    // optional service name attached to every log entry
	Version string    // optional build version attached to every log entry

	// File enables a second sink that only receives entries at or above FileLevel.
	File      *FileConfig
	FileLevel string
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
	sink io.Closer
)

// Configure (re)initialises the global zerolog logger. It is safe to call
// again once the real configuration has been loaded.
func Configure(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	} else if env := os.Getenv("LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	var closer io.Closer
	if cfg.File != nil && cfg.File.Dir != "" {
		fileLevel := zerolog.WarnLevel
		if parsed, err := zerolog.ParseLevel(cfg.FileLevel); err == nil && cfg.FileLevel != "" {
			fileLevel = parsed
		}
		fw, err := newFileSink(*cfg.File, fileLevel)
		if err == nil {
			writer = zerolog.MultiLevelWriter(writer, fw)
			closer = fw
		} else {
			_, _ = io.WriteString(os.Stderr, "log: file sink disabled: "+err.Error()+"\n")
		}
	}

	service := cfg.Service
	if service == "" {
		service = os.Getenv("LOG_SERVICE")
		if service == "" {
			service = "ecosystem"
		}
	}

	version := cfg.Version
	if version == "" {
		version = os.Getenv("VERSION")
	}

	l := zerolog.New(writer).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()

	mu.Lock()
	prev := sink
	base = l
	sink = closer
	mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

// Close flushes and closes the optional file sink.
func Close() error {
	mu.Lock()
	prev := sink
	sink = nil
	mu.Unlock()
	if prev == nil {
		return nil
	}
	return prev.Close()
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// L returns a pointer to a copy of the base logger, for call sites that want
// the short form.
func L() *zerolog.Logger {
	l := logger()
	return &l
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str(FieldComponent, component).Logger()
}

func init() {
	Configure(Config{})
}
