// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Options selects and configures a cache backend.
type Options struct {
	Driver string // "memory", "redis" or "none"
	TTL    time.Duration
	Redis  RedisConfig
}

// New builds the cache selected by opts.Driver.
func New(ctx context.Context, opts Options, logger zerolog.Logger) (Cache, error) {
	switch opts.Driver {
	case "", "memory":
		interval := opts.TTL
		if interval <= 0 || interval > time.Minute {
			interval = time.Minute
		}
		return NewMemoryCache(interval), nil
	case "redis":
		return NewRedisCache(ctx, opts.Redis, logger)
	case "none":
		return NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q (supported: memory, redis, none)", opts.Driver)
	}
}
