// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/portal/internal/i18n"
)

func TestLanguage(t *testing.T) {
	if err := i18n.Init(nil); err != nil {
		t.Fatalf("i18n.Init: %v", err)
	}
	sm := newSessionManager()

	var got string
	h := sm.LoadAndSave(Language(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LangFrom(r.Context())
	})))

	serve := func(target, accept string, cookies []*http.Cookie) []*http.Cookie {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if accept != "" {
			req.Header.Set("Accept-Language", accept)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Result().Cookies()
	}

	serve("/", "", nil)
	if got != "en" {
		t.Errorf("default = %q, want en", got)
	}

	serve("/", "ru-RU,ru;q=0.9", nil)
	if got != "ru" {
		t.Errorf("Accept-Language = %q, want ru", got)
	}

	cookies := serve("/?lang=ru", "en-US", nil)
	if got != "ru" {
		t.Errorf("?lang = %q, want ru", got)
	}
	serve("/news", "en-US", cookies)
	if got != "ru" {
		t.Errorf("session preference = %q, want ru", got)
	}

	serve("/?lang=xx", "", nil)
	if got != "en" {
		t.Errorf("unsupported ?lang = %q, want en", got)
	}
}

func TestLangFromDefault(t *testing.T) {
	if got := LangFrom(context.Background()); got != "en" {
		t.Errorf("LangFrom = %q", got)
	}
}
