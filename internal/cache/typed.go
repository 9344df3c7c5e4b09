// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// TypedCache stores values of T as JSON in a Cacher under a key namespace.
type TypedCache[T any] struct {
	cache      Cacher
	namespace  string
	defaultTTL time.Duration

	// gen counts invalidations. A fill that spans one is removed again.
	gen atomic.Uint64
}

// NewTypedCache creates a TypedCache whose keys are prefixed with namespace + ":".
func NewTypedCache[T any](c Cacher, namespace string, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{cache: c, namespace: namespace, defaultTTL: defaultTTL}
}

func (c *TypedCache[T]) key(k string) string {
	return c.namespace + ":" + k
}

// Get returns the cached value and true, or false on miss or decode failure.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	data, err := c.cache.Get(ctx, c.key(key))
	if err != nil {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false
	}
	return v, true
}

// Set stores a value with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding cache value: %w", err)
	}
	return c.cache.Set(ctx, c.key(key), data, c.defaultTTL)
}

// GetOrSet returns the cached value or computes, stores and returns it.
// A failed store is ignored; the computed value is still returned. If
// Invalidate runs while fn is computing, the value is returned but not stored.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}
	gen := c.gen.Load()
	v, err := fn()
	if err != nil {
		return v, err
	}
	if c.gen.Load() != gen {
		return v, nil
	}
	_ = c.Set(ctx, key, v)
	// Invalidate bumps gen before deleting, so a Set that raced past its
	// delete is caught here.
	if c.gen.Load() != gen {
		_ = c.cache.Delete(ctx, c.key(key))
	}
	return v, nil
}

// Invalidate removes every key in the namespace.
func (c *TypedCache[T]) Invalidate(ctx context.Context) error {
	c.gen.Add(1)
	return c.cache.DeleteByPrefix(ctx, c.namespace+":")
}
