// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
	"github.com/olegiv/portal/internal/testutil"
)

type janitorEnv struct {
	store   *store.Store
	objects *storage.Store
	admin   authz.Caller
}

func newJanitorEnv(t *testing.T) *janitorEnv {
	t.Helper()
	st := testutil.TestStore(t)
	objects, err := storage.New(t.TempDir(), st.Authorizer(), testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	return &janitorEnv{
		store:   st,
		objects: objects,
		admin:   testutil.MustAdmin(t, st, "janitor@example.com"),
	}
}

func (e *janitorEnv) put(t *testing.T, bucket model.Bucket, name string) storage.Object {
	t.Helper()
	obj, err := e.objects.Put(context.Background(), e.admin, bucket, name, "image/png", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	return obj
}

func TestJanitor_DeletesOrphans(t *testing.T) {
	env := newJanitorEnv(t)
	ctx := context.Background()

	used := env.put(t, model.BucketNewsImages, "used.png")
	avatar := env.put(t, model.BucketStaffImages, "avatar.png")
	orphan := env.put(t, model.BucketActivityImages, "orphan.png")

	if _, err := env.store.CreateNews(ctx, env.admin, store.NewsParams{Title: "t", Content: "c", ImageURL: &used.URL}); err != nil {
		t.Fatalf("CreateNews: %v", err)
	}
	absolute := "https://portal.example.com" + avatar.URL
	if _, err := env.store.UpdateProfile(ctx, env.admin, env.admin.IdentityID, store.UpdateProfileParams{FullName: "Janitor", AvatarURL: &absolute}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}

	var observed int
	j := NewJanitor(env.store, env.objects, JanitorConfig{
		IdentityEmail: "janitor@example.com",
		GracePeriod:   time.Hour,
		Now:           func() time.Time { return time.Now().Add(2 * time.Hour) },
		Observe:       func(deleted int, _ error) { observed = deleted },
	}, testutil.TestLoggerSilent())

	deleted, err := j.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deleted != 1 || observed != 1 {
		t.Errorf("deleted = %d, observed = %d; want 1", deleted, observed)
	}

	if _, _, err := env.objects.Open(ctx, authz.Anonymous(), model.BucketActivityImages, orphan.Name); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("orphan still present: %v", err)
	}
	for _, obj := range []storage.Object{used, avatar} {
		f, _, err := env.objects.Open(ctx, authz.Anonymous(), obj.Bucket, obj.Name)
		if err != nil {
			t.Errorf("referenced object %s removed: %v", obj.URL, err)
			continue
		}
		_ = f.Close()
	}
}

func TestJanitor_GracePeriod(t *testing.T) {
	env := newJanitorEnv(t)
	env.put(t, model.BucketNewsImages, "fresh.png")

	j := NewJanitor(env.store, env.objects, JanitorConfig{
		IdentityEmail: "janitor@example.com",
		GracePeriod:   time.Hour,
	}, testutil.TestLoggerSilent())

	deleted, err := j.Run(context.Background())
	if err != nil || deleted != 0 {
		t.Errorf("Run() = %d, %v; want 0, nil", deleted, err)
	}
}

func TestJanitor_NonAdminIdentityDenied(t *testing.T) {
	env := newJanitorEnv(t)
	env.put(t, model.BucketNewsImages, "orphan.png")
	testutil.MustUser(t, env.store, "nobody@example.com")

	var observedErr error
	j := NewJanitor(env.store, env.objects, JanitorConfig{
		IdentityEmail: "nobody@example.com",
		Now:           func() time.Time { return time.Now().Add(time.Hour) },
		Observe:       func(_ int, err error) { observedErr = err },
	}, testutil.TestLoggerSilent())

	deleted, err := j.Run(context.Background())
	if !errors.Is(err, authz.ErrDenied) || deleted != 0 {
		t.Errorf("Run() = %d, %v; want 0, denied", deleted, err)
	}
	if !errors.Is(observedErr, authz.ErrDenied) {
		t.Errorf("observed error = %v", observedErr)
	}

	objects, _ := env.objects.List(context.Background(), authz.Anonymous(), model.BucketNewsImages)
	if len(objects) != 1 {
		t.Errorf("object deleted by a non-admin janitor")
	}
}

func TestJanitor_UnknownIdentity(t *testing.T) {
	env := newJanitorEnv(t)
	j := NewJanitor(env.store, env.objects, JanitorConfig{IdentityEmail: "ghost@example.com"}, nil)
	if _, err := j.Run(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Run() error = %v; want not found", err)
	}
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/storage/news-images/a.png", "/storage/news-images/a.png", true},
		{"https://cdn.example.com/storage/staff-images/b.jpg", "/storage/staff-images/b.jpg", true},
		{"https://elsewhere.example.com/c.png", "", false},
		{"/storage/unknown/a.png", "", false},
	}
	for _, tt := range tests {
		got, ok := objectKey(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("objectKey(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
