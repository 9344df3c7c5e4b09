// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/store"
)

type fakeIdentities map[string]model.Identity

func (f fakeIdentities) GetIdentity(_ context.Context, id string) (model.Identity, error) {
	ident, ok := f[id]
	if !ok {
		return model.Identity{}, fmt.Errorf("getting identity: %w", store.ErrNotFound)
	}
	return ident, nil
}

var alice = model.Identity{ID: "id-alice", Email: "alice@example.com"}

func newSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Store = memstore.New()
	return sm
}

// sessionCookie runs put inside a session and returns the resulting cookie.
func sessionCookie(t *testing.T, sm *scs.SessionManager, put func(ctx context.Context)) *http.Cookie {
	t.Helper()
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		put(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}
	return cookies[0]
}

func TestCallerFrom_DefaultsToAnonymous(t *testing.T) {
	c := CallerFrom(context.Background())
	if c.Authenticated() {
		t.Errorf("CallerFrom(empty) = %v, want anonymous", c)
	}
	ctx := WithIdentity(context.Background(), alice)
	if got := CallerFrom(ctx).IdentityID; got != alice.ID {
		t.Errorf("CallerFrom = %q, want %q", got, alice.ID)
	}
	if ident, ok := IdentityFrom(ctx); !ok || ident.Email != alice.Email {
		t.Errorf("IdentityFrom = %+v, %v", ident, ok)
	}
}

func TestLoadCaller(t *testing.T) {
	sm := newSessionManager()
	ids := fakeIdentities{alice.ID: alice}

	var seen string
	h := sm.LoadAndSave(LoadCaller(sm, ids)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFrom(r.Context()).String()
	})))

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   string
	}{
		{"no session", nil, "anonymous"},
		{"known identity", sessionCookie(t, sm, func(ctx context.Context) { sm.Put(ctx, session.KeyIdentityID, alice.ID) }), alice.ID},
		{"deleted identity", sessionCookie(t, sm, func(ctx context.Context) { sm.Put(ctx, session.KeyIdentityID, "gone") }), "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if seen != tt.want {
				t.Errorf("caller = %q, want %q", seen, tt.want)
			}
		})
	}
}

func TestRequireLogin(t *testing.T) {
	h := RequireLogin("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("anonymous: got %d %q, want 303 /login", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	h.ServeHTTP(rec, req.WithContext(WithIdentity(req.Context(), alice)))
	if rec.Code != http.StatusNoContent {
		t.Errorf("signed in: got %d, want 204", rec.Code)
	}
}

func TestBearerCaller(t *testing.T) {
	tokens, err := auth.NewTokens("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	good, _, err := tokens.Issue(alice.ID, alice.Email)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	orphan, _, _ := tokens.Issue("gone", "gone@example.com")

	var seen string
	h := BearerCaller(tokens, fakeIdentities{alice.ID: alice})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFrom(r.Context()).String()
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCaller string
	}{
		{"anonymous", "", http.StatusOK, "anonymous"},
		{"valid token", "Bearer " + good, http.StatusOK, alice.ID},
		{"lowercase scheme", "bearer " + good, http.StatusOK, alice.ID},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, ""},
		{"deleted identity", "Bearer " + orphan, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/news", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if seen != tt.wantCaller {
				t.Errorf("caller = %q, want %q", seen, tt.wantCaller)
			}
		})
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	h := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/news/42", nil))
	if got != "/news/42" {
		t.Errorf("GetRequestPath = %q", got)
	}
}
