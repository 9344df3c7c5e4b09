// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var testAuthKey = []byte("12345678901234567890123456789012")

func TestDefaultCSRFConfig(t *testing.T) {
	dev := DefaultCSRFConfig(testAuthKey, true, "portal.local:8081")
	want := map[string]bool{"localhost:8080": true, "127.0.0.1:8080": true, "portal.local:8081": true}
	if len(dev.TrustedOrigins) != len(want) {
		t.Fatalf("TrustedOrigins = %v", dev.TrustedOrigins)
	}
	for _, o := range dev.TrustedOrigins {
		if !want[o] || strings.HasPrefix(o, "http") {
			t.Errorf("unexpected origin %q", o)
		}
	}

	if got := DefaultCSRFConfig(testAuthKey, true, ":8080").TrustedOrigins; len(got) != 2 {
		t.Errorf("bare port should not be trusted: %v", got)
	}
	if got := DefaultCSRFConfig(testAuthKey, false, "").TrustedOrigins; len(got) != 0 {
		t.Errorf("production TrustedOrigins = %v, want none", got)
	}
}

func TestCSRF_BlocksCrossSitePost(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(testAuthKey, false, ""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		method   string
		fetch    string
		wantCode int
	}{
		{"safe method", http.MethodGet, "cross-site", http.StatusOK},
		{"same origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross site post", http.MethodPost, "cross-site", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/admin/news", nil)
			req.Header.Set("Sec-Fetch-Site", tt.fetch)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestCSRF_CustomErrorHandler(t *testing.T) {
	called := false
	cfg := DefaultCSRFConfig(testAuthKey, false, "")
	cfg.ErrorHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})
	h := CSRF(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodPost, "http://example.com/login", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusTeapot {
		t.Errorf("custom handler called=%v status=%d", called, rec.Code)
	}
}
