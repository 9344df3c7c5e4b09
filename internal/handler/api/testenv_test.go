// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/cache"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/service"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
	"github.com/olegiv/portal/internal/testutil"
)

type testEnv struct {
	store   *store.Store
	content *service.Content
	storage *storage.Store
	tokens  *auth.Tokens
	jobs    *fakeJobs
	router  chi.Router

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
	tokens, err := auth.NewTokens("test-secret-test-secret-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}

	env := &testEnv{
		store:   st,
		content: service.NewContent(st, mc, time.Minute, logger),
		storage: objects,
		tokens:  tokens,
		jobs:    &fakeJobs{runs: map[string]int{}},
		admin:   testutil.MustAdmin(t, st, "admin@example.com"),
		user:    testutil.MustUser(t, st, "user@example.com"),
	}

	h := NewHandler(Config{
		Content:       env.content,
		Storage:       objects,
		Accounts:      service.NewAccounts(st, nil, logger),
		Tokens:        tokens,
		Jobs:          env.jobs,
		MaxUploadSize: 1 << 20,
	})

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BearerCaller(tokens, st))
		r.Use(middleware.RequireJSON)
		h.Routes(r)
	})
	env.router = r
	return env
}

// tokenFor issues a bearer token for caller, or "" for anonymous.
func (e *testEnv) tokenFor(t *testing.T, caller authz.Caller) string {
	t.Helper()
	if !caller.Authenticated() {
		return ""
	}
	tok, _, err := e.tokens.Issue(caller.IdentityID, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, caller authz.Caller, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := e.tokenFor(t, caller); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// assertStatusCode checks that the response has the expected status code.
func assertStatusCode(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("expected status %d, got %d; body: %s", expected, w.Code, w.Body.String())
	}
}

// assertErrorResponse unmarshals and validates an error response.
func assertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error.Code != expectedCode {
		t.Errorf("expected code '%s', got %s", expectedCode, resp.Error.Code)
	}
	return resp
}

// decodeData unmarshals the data field of a success response into dst.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) *Meta {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if err := json.Unmarshal(resp.Data, dst); err != nil {
		t.Fatalf("failed to unmarshal data: %v; body: %s", err, w.Body.String())
	}
	return resp.Meta
}
