// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

func TestUpdateProfileOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	avatar := "/storage/staff-images/me.png"
	f.clock.Advance(time.Second)
	p, err := f.store.UpdateProfile(ctx, f.user, f.user.IdentityID, UpdateProfileParams{FullName: "New Name", AvatarURL: &avatar})
	if err != nil {
		t.Fatalf("UpdateProfile(self): %v", err)
	}
	if p.FullName != "New Name" || p.AvatarURL == nil || *p.AvatarURL != avatar {
		t.Errorf("profile = %+v", p)
	}
	if !p.UpdatedAt.Equal(f.clock.Now()) {
		t.Errorf("updated_at = %v, want %v", p.UpdatedAt, f.clock.Now())
	}

	// admin role grants nothing on someone else's profile
	for _, caller := range []authz.Caller{f.admin, authz.Anonymous()} {
		_, err := f.store.UpdateProfile(ctx, caller, f.user.IdentityID, UpdateProfileParams{FullName: "Hijack"})
		if !errors.Is(err, ErrAccessDenied) {
			t.Errorf("UpdateProfile by %s = %v, want ErrAccessDenied", caller, err)
		}
	}

	got, err := f.store.GetProfile(ctx, authz.Anonymous(), f.user.IdentityID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.FullName != "New Name" {
		t.Errorf("FullName = %q after denied updates", got.FullName)
	}
}

func TestDeleteProfileAlwaysDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, caller := range []authz.Caller{f.user, f.admin, authz.Anonymous()} {
		if err := f.store.DeleteProfile(ctx, caller, f.user.IdentityID); !errors.Is(err, ErrAccessDenied) {
			t.Errorf("DeleteProfile by %s = %v, want ErrAccessDenied", caller, err)
		}
	}
	if _, err := f.store.GetProfile(ctx, authz.Anonymous(), f.user.IdentityID); err != nil {
		t.Errorf("profile gone after denied deletes: %v", err)
	}
}

func TestCreateProfileOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// the trigger already created it, so the owner gets a conflict
	_, err := f.store.CreateProfile(ctx, f.user, CreateProfileParams{ID: f.user.IdentityID, Email: "user@example.com"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("CreateProfile(self) = %v, want ErrConflict", err)
	}
	_, err = f.store.CreateProfile(ctx, f.admin, CreateProfileParams{ID: "someone-else", Email: "x@example.com"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("CreateProfile(other) = %v, want ErrAccessDenied", err)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.GetProfile(context.Background(), authz.Anonymous(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProfile = %v, want ErrNotFound", err)
	}
}

func TestDeleteIdentityCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := mustIdentity(t, f.store, "author@example.com", "Author")
	if _, err := f.store.AssignRole(ctx, f.admin, author.ID, model.RoleAdmin); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if _, err := f.store.AssignRole(ctx, f.admin, author.ID, model.RoleUser); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	news, err := f.store.CreateNews(ctx, authz.AsIdentity(author.ID), NewsParams{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("CreateNews: %v", err)
	}

	if err := f.store.DeleteIdentity(ctx, author.ID); err != nil {
		t.Fatalf("DeleteIdentity: %v", err)
	}

	if _, err := f.store.GetProfile(ctx, authz.Anonymous(), author.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("profile after delete: %v, want ErrNotFound", err)
	}
	roles, err := f.store.ListRoles(ctx, f.user, author.ID)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != 0 {
		t.Errorf("roles after delete = %+v, want none", roles)
	}

	got, err := f.store.GetNews(ctx, authz.Anonymous(), news.ID)
	if err != nil {
		t.Fatalf("news removed with its author: %v", err)
	}
	if got.CreatedBy != nil {
		t.Errorf("created_by = %v, want NULL", *got.CreatedBy)
	}

	if err := f.store.DeleteIdentity(ctx, author.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteIdentity = %v, want ErrNotFound", err)
	}
}
