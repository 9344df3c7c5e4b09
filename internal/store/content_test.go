// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/portal/internal/authz"
)

func TestContentWritesRequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	news, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("CreateNews(admin): %v", err)
	}
	staff, err := f.store.CreateStaff(ctx, f.admin, StaffParams{FullName: "N", Position: "P"})
	if err != nil {
		t.Fatalf("CreateStaff(admin): %v", err)
	}
	act, err := f.store.CreateActivity(ctx, f.admin, ActivityParams{Title: "T", Description: "D", ActivityDate: f.clock.Now()})
	if err != nil {
		t.Fatalf("CreateActivity(admin): %v", err)
	}

	for _, caller := range []authz.Caller{f.user, authz.Anonymous()} {
		writes := map[string]error{}
		_, writes["create news"] = f.store.CreateNews(ctx, caller, NewsParams{Title: "T", Content: "C"})
		_, writes["update news"] = f.store.UpdateNews(ctx, caller, news.ID, NewsParams{Title: "X", Content: "C"})
		writes["delete news"] = f.store.DeleteNews(ctx, caller, news.ID)
		_, writes["create staff"] = f.store.CreateStaff(ctx, caller, StaffParams{FullName: "N", Position: "P"})
		_, writes["update staff"] = f.store.UpdateStaff(ctx, caller, staff.ID, StaffParams{FullName: "X", Position: "P"})
		writes["delete staff"] = f.store.DeleteStaff(ctx, caller, staff.ID)
		_, writes["create activity"] = f.store.CreateActivity(ctx, caller, ActivityParams{Title: "T", Description: "D", ActivityDate: f.clock.Now()})
		_, writes["update activity"] = f.store.UpdateActivity(ctx, caller, act.ID, ActivityParams{Title: "X", Description: "D", ActivityDate: f.clock.Now()})
		writes["delete activity"] = f.store.DeleteActivity(ctx, caller, act.ID)
		_, writes["assign role"] = f.store.AssignRole(ctx, caller, f.user.IdentityID, "admin")

		for name, err := range writes {
			if !errors.Is(err, ErrAccessDenied) {
				t.Errorf("%s by %s: got %v, want ErrAccessDenied", name, caller, err)
			}
			if !errors.Is(err, authz.ErrDenied) {
				t.Errorf("%s by %s: ErrAccessDenied does not wrap authz.ErrDenied", name, caller)
			}
		}
	}

	// nothing changed
	got, err := f.store.GetNews(ctx, authz.Anonymous(), news.ID)
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if got.Title != "T" {
		t.Errorf("news title = %q, want unchanged", got.Title)
	}
	all, _ := f.store.ListNews(ctx, authz.Anonymous(), ListParams{})
	if len(all) != 1 {
		t.Errorf("news count = %d, want 1", len(all))
	}
}

func TestDenialDoesNotRevealExistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	news, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("CreateNews: %v", err)
	}

	errExisting := f.store.DeleteNews(ctx, f.user, news.ID)
	errMissing := f.store.DeleteNews(ctx, f.user, "no-such-id")
	if !errors.Is(errExisting, ErrAccessDenied) || !errors.Is(errMissing, ErrAccessDenied) {
		t.Fatalf("got %v and %v, want ErrAccessDenied for both", errExisting, errMissing)
	}
	if errors.Is(errMissing, ErrNotFound) {
		t.Error("denial for a missing row reports ErrNotFound")
	}

	if err := f.store.DeleteNews(ctx, f.admin, "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("admin delete of missing row = %v, want ErrNotFound", err)
	}
}

func TestPublicReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := f.clock.Now()
	older := base.Add(-48 * time.Hour)
	if _, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "Old", Content: "c", PublishedAt: &older}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "New", Content: "c"}); err != nil {
		t.Fatal(err)
	}

	items, err := f.store.ListNews(ctx, authz.Anonymous(), ListParams{})
	if err != nil {
		t.Fatalf("ListNews: %v", err)
	}
	if len(items) != 2 || items[0].Title != "New" || items[1].Title != "Old" {
		t.Fatalf("ListNews order = %+v", items)
	}
	if !items[0].PublishedAt.Equal(base) {
		t.Errorf("default published_at = %v, want %v", items[0].PublishedAt, base)
	}
	if items[0].CreatedBy == nil || *items[0].CreatedBy != f.admin.IdentityID {
		t.Errorf("created_by = %v, want admin", items[0].CreatedBy)
	}

	if _, err := f.store.CreateActivity(ctx, f.admin, ActivityParams{Title: "Past", Description: "d", ActivityDate: base.Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.CreateActivity(ctx, f.admin, ActivityParams{Title: "Next", Description: "d", ActivityDate: base.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}
	upcoming, err := f.store.ListUpcomingActivities(ctx, authz.Anonymous(), base, 10)
	if err != nil {
		t.Fatalf("ListUpcomingActivities: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].Title != "Next" {
		t.Errorf("upcoming = %+v", upcoming)
	}
}

func TestContentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"news title", func() error {
			_, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "  ", Content: "c"})
			return err
		}, "title"},
		{"news content", func() error {
			_, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "t"})
			return err
		}, "content"},
		{"staff position", func() error {
			_, err := f.store.CreateStaff(ctx, f.admin, StaffParams{FullName: "n"})
			return err
		}, "position"},
		{"staff email", func() error {
			bad := "nope"
			_, err := f.store.CreateStaff(ctx, f.admin, StaffParams{FullName: "n", Position: "p", Email: &bad})
			return err
		}, "email"},
		{"activity date", func() error {
			_, err := f.store.CreateActivity(ctx, f.admin, ActivityParams{Title: "t", Description: "d"})
			return err
		}, "activity_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr *ValidationError
			if err := tt.call(); !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %s", verr.Fields, tt.field)
			}
		})
	}
}

func TestBlankOptionalFieldsStoredAsNull(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	blank := "   "
	m, err := f.store.CreateStaff(ctx, f.admin, StaffParams{FullName: "n", Position: "p", Department: &blank, Bio: &blank})
	if err != nil {
		t.Fatalf("CreateStaff: %v", err)
	}
	got, err := f.store.GetStaff(ctx, authz.Anonymous(), m.ID)
	if err != nil {
		t.Fatalf("GetStaff: %v", err)
	}
	if got.Department != nil || got.Bio != nil {
		t.Errorf("blank optional fields stored as %v / %v", got.Department, got.Bio)
	}
}

func TestUpdatedAtFollowsClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("CreateNews: %v", err)
	}
	if !n.UpdatedAt.Equal(f.clock.Now()) {
		t.Fatalf("initial updated_at = %v, want %v", n.UpdatedAt, f.clock.Now())
	}

	f.clock.Advance(time.Minute)
	upd, err := f.store.UpdateNews(ctx, f.admin, n.ID, NewsParams{Title: "T2", Content: "C"})
	if err != nil {
		t.Fatalf("UpdateNews: %v", err)
	}
	if !upd.UpdatedAt.Equal(f.clock.Now()) {
		t.Errorf("updated_at = %v, want clock time %v", upd.UpdatedAt, f.clock.Now())
	}
	if !upd.CreatedAt.Equal(n.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", n.CreatedAt, upd.CreatedAt)
	}

	stored, err := f.store.GetNews(ctx, authz.Anonymous(), n.ID)
	if err != nil {
		t.Fatalf("GetNews: %v", err)
	}
	if !stored.UpdatedAt.Equal(upd.UpdatedAt) {
		t.Errorf("stored updated_at = %v, want %v", stored.UpdatedAt, upd.UpdatedAt)
	}
}

func TestUpdatedAtStrictlyIncreases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.store.CreateActivity(ctx, f.admin, ActivityParams{Title: "T", Description: "D", ActivityDate: f.clock.Now()})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}

	prev := a.UpdatedAt
	// clock frozen, then moved backwards
	for i := range 3 {
		if i == 2 {
			f.clock.Advance(-time.Hour)
		}
		upd, err := f.store.UpdateActivity(ctx, f.admin, a.ID, ActivityParams{Title: "T", Description: "D", ActivityDate: f.clock.Now()})
		if err != nil {
			t.Fatalf("UpdateActivity: %v", err)
		}
		if !upd.UpdatedAt.After(prev) {
			t.Fatalf("update %d: updated_at %v not after %v", i, upd.UpdatedAt, prev)
		}
		prev = upd.UpdatedAt
	}
}

func TestUpdateMissingRow(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.UpdateStaff(context.Background(), f.admin, "missing", StaffParams{FullName: "n", Position: "p"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateStaff = %v, want ErrNotFound", err)
	}
}

func TestReferencedURLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img := "/storage/news-images/a.png"
	if _, err := f.store.CreateNews(ctx, f.admin, NewsParams{Title: "T", Content: "C", ImageURL: &img}); err != nil {
		t.Fatal(err)
	}
	refs, err := f.store.ReferencedURLs(ctx, authz.Anonymous())
	if err != nil {
		t.Fatalf("ReferencedURLs: %v", err)
	}
	if _, ok := refs[img]; !ok || len(refs) != 1 {
		t.Errorf("refs = %v", refs)
	}
}
