// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/cache"
	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/service"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
	"github.com/olegiv/portal/internal/testutil"
	"github.com/olegiv/portal/web"
)

// testIdentityHeader signs a request in as the given identity id.
const testIdentityHeader = "X-Test-Identity"

func TestMain(m *testing.M) {
	if err := i18n.Init(nil); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testEnv struct {
	store    *store.Store
	content  *service.Content
	storage  *storage.Store
	sm       *scs.SessionManager
	renderer *render.Renderer
	router   chi.Router

	admin authz.Caller
	user  authz.Caller
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := testutil.TestStore(t)
	logger := testutil.TestLoggerSilent()

	mc := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mc.Close() })

	objects, err := storage.New(t.TempDir(), st.Authorizer(), logger)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	sm := scs.New()
	sm.Store = memstore.New()

	isAdmin := func(ctx context.Context) bool {
		ok, _ := st.IsAdmin(ctx, middleware.CallerFrom(ctx))
		return ok
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates,
		SessionManager: sm,
		IsAdmin:        isAdmin,
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env := &testEnv{
		store:    st,
		content:  service.NewContent(st, mc, time.Minute, logger),
		storage:  objects,
		sm:       sm,
		renderer: renderer,
		admin:    testutil.MustAdmin(t, st, "admin@example.com"),
		user:     testutil.MustUser(t, st, "user@example.com"),
	}

	accounts := service.NewAccounts(st, nil, logger)
	noLimit := func(next http.Handler) http.Handler { return next }

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.Language(sm))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get(testIdentityHeader); id != "" {
				sm.Put(r.Context(), session.KeyIdentityID, id)
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(middleware.LoadCaller(sm, st))

	public := NewPublicHandler(env.content, renderer)
	RegisterPublicRoutes(r, public)
	RegisterAuthRoutes(r, NewAuthHandler(accounts, renderer, sm), noLimit)
	r.Get(RouteStorageObject, NewStorageHandler(objects, renderer).Serve)
	r.Route(RouteAdmin, func(r chi.Router) {
		r.Use(middleware.RequireLogin(RouteLogin))
		RegisterAdminRoutes(r, NewAdminHandler(env.content, objects, renderer, sm, 1<<20))
	})
	r.NotFound(public.NotFound)

	env.router = r
	return env
}

// client carries session cookies across requests.
type client struct {
	t        *testing.T
	env      *testEnv
	identity string
	cookies  []*http.Cookie
}

func (e *testEnv) client(t *testing.T, caller authz.Caller) *client {
	return &client{t: t, env: e, identity: caller.IdentityID}
}

func (c *client) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.identity != "" {
		req.Header.Set(testIdentityHeader, c.identity)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.env.router.ServeHTTP(w, req)
	if cs := w.Result().Cookies(); len(cs) > 0 {
		c.cookies = cs
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(http.MethodGet, path, nil, "")
}

func (c *client) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// follow asserts a 303 and requests its Location.
func (c *client) follow(w *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	c.t.Helper()
	if w.Code != http.StatusSeeOther {
		c.t.Fatalf("status = %d, want 303; body: %s", w.Code, w.Body.String())
	}
	return c.get(w.Header().Get("Location"))
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status = %d; want %d", got, want)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}
