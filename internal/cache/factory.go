// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string
	// Prefix is the key prefix for Redis.
	Prefix          string
	DefaultTTL      time.Duration
	MaxSize         int // memory backend only
	CleanupInterval time.Duration
}

// New creates the configured cache. If Redis is configured but unreachable,
// it logs a warning and falls back to memory so the site keeps serving.
func New(ctx context.Context, cfg Config, logger *slog.Logger) Cacher {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}
		rc, err := NewRedisCache(ctx, opts)
		if err == nil {
			logger.Info("using redis cache", "prefix", opts.Prefix)
			return rc
		}
		logger.Warn("redis cache unavailable, falling back to memory", "error", err)
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	logger.Info("using memory cache", "max_size", cfg.MaxSize)
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: interval,
	})
}
