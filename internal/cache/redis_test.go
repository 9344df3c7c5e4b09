// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("PORTAL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: PORTAL_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)
	ctx := context.Background()

	opts := DefaultRedisCacheOptions()
	opts.URL = url
	opts.Prefix = "portal-test:"
	cache, err := NewRedisCache(ctx, opts)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer func() { _ = cache.Close() }()
	_ = cache.Clear(ctx)

	if err := cache.Set(ctx, "news:list", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := cache.Get(ctx, "news:list")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := cache.DeleteByPrefix(ctx, "news:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if _, err := cache.Get(ctx, "news:list"); err != ErrCacheMiss {
		t.Errorf("Get after DeleteByPrefix = %v, want ErrCacheMiss", err)
	}
	if st := cache.Stats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisCacheOptions{}); err == nil {
		t.Fatal("expected error for empty URL")
	}
	if _, err := NewRedisCache(context.Background(), RedisCacheOptions{URL: "not a url"}); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}

func TestNew_FallsBackToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(context.Background(), Config{
		RedisURL: "redis://127.0.0.1:1/0",
	}, logger)
	defer func() { _ = c.Close() }()

	if _, ok := c.(*MemoryCache); !ok {
		t.Fatalf("New returned %T, want *MemoryCache", c)
	}
}

func TestNew_Memory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(context.Background(), Config{MaxSize: 10, DefaultTTL: time.Minute}, logger)
	defer func() { _ = c.Close() }()

	mc, ok := c.(*MemoryCache)
	if !ok {
		t.Fatalf("New returned %T, want *MemoryCache", c)
	}
	if mc.maxSize != 10 || mc.defaultTTL != time.Minute {
		t.Errorf("options not applied: max=%d ttl=%v", mc.maxSize, mc.defaultTTL)
	}
}
