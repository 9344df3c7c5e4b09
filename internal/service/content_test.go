// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/cache"
	"github.com/olegiv/portal/internal/store"
	"github.com/olegiv/portal/internal/testutil"
)

func newTestContent(t *testing.T) (*Content, *cache.MemoryCache, authz.Caller, authz.Caller) {
	t.Helper()
	st := testutil.TestStore(t)
	admin := testutil.MustAdmin(t, st, "admin@example.com")
	user := testutil.MustUser(t, st, "user@example.com")

	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mc.Close() })
	return NewContent(st, mc, time.Minute, testutil.TestLoggerSilent()), mc, admin, user
}

func TestListNews_CachedUntilWrite(t *testing.T) {
	svc, mc, admin, _ := newTestContent(t)
	ctx := context.Background()

	_, err := svc.CreateNews(ctx, admin, store.NewsParams{Title: "First", Content: "Body"})
	require.NoError(t, err)

	items, err := svc.ListNews(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	ok, err := mc.Has(ctx, "content:news:list:0:0")
	require.NoError(t, err)
	assert.True(t, ok, "list should be cached")

	// A write that bypasses the service is not visible until invalidation.
	_, err = svc.Store().CreateNews(ctx, admin, store.NewsParams{Title: "Second", Content: "Body"})
	require.NoError(t, err)
	items, err = svc.ListNews(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, err = svc.CreateNews(ctx, admin, store.NewsParams{Title: "Third", Content: "Body"})
	require.NoError(t, err)
	items, err = svc.ListNews(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestDeniedWriteKeepsCache(t *testing.T) {
	svc, mc, admin, user := newTestContent(t)
	ctx := context.Background()

	_, err := svc.CreateStaff(ctx, admin, store.StaffParams{FullName: "Ann", Position: "Dean"})
	require.NoError(t, err)
	_, err = svc.ListStaff(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)

	_, err = svc.CreateStaff(ctx, user, store.StaffParams{FullName: "Bob", Position: "Clerk"})
	assert.ErrorIs(t, err, store.ErrAccessDenied)

	ok, _ := mc.Has(ctx, "content:staff:list:0:0")
	assert.True(t, ok, "failed writes must not invalidate")
}

func TestActivitiesInvalidation(t *testing.T) {
	svc, mc, admin, _ := newTestContent(t)
	ctx := context.Background()
	when := time.Now().UTC().Add(48 * time.Hour)

	a, err := svc.CreateActivity(ctx, admin, store.ActivityParams{Title: "Open day", Description: "Tour", ActivityDate: when})
	require.NoError(t, err)

	list, err := svc.ListActivities(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	upcoming, err := svc.UpcomingActivities(ctx, authz.Anonymous(), time.Now(), 5)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	require.NoError(t, svc.DeleteActivity(ctx, admin, a.ID))
	ok, _ := mc.Has(ctx, "content:activities:list:0:0")
	assert.False(t, ok)

	list, err = svc.ListActivities(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// hookedCacher runs beforeSet once, just before the first Set reaches the
// backend.
type hookedCacher struct {
	cache.Cacher
	beforeSet func()
}

func (h *hookedCacher) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if fn := h.beforeSet; fn != nil {
		h.beforeSet = nil
		fn()
	}
	return h.Cacher.Set(ctx, key, value, ttl)
}

func TestListNews_WriteDuringFillIsVisible(t *testing.T) {
	st := testutil.TestStore(t)
	admin := testutil.MustAdmin(t, st, "admin@example.com")
	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mc.Close() })

	hooked := &hookedCacher{Cacher: mc}
	svc := NewContent(st, hooked, time.Minute, testutil.TestLoggerSilent())
	ctx := context.Background()

	hooked.beforeSet = func() {
		_, err := svc.CreateNews(ctx, admin, store.NewsParams{Title: "Late", Content: "Body"})
		require.NoError(t, err)
	}

	items, err := svc.ListNews(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, items, "the fill read the table before the write")

	items, err = svc.ListNews(ctx, authz.Anonymous(), store.ListParams{})
	require.NoError(t, err)
	assert.Len(t, items, 1, "a successful write must be visible after invalidation")
}
