// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutNormalRequest(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "ok")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if rec.Header().Get("X-Test") != "ok" {
		t.Error("header not propagated")
	}
	if rec.Body.String() != "done" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestTimeoutSlowRequest(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestTimeoutHandlerWithoutWrite(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Empty", "1")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Empty") != "1" {
		t.Errorf("got %d %v", rec.Code, rec.Header())
	}
}

func TestTimeoutWriterIgnoresSecondWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	tw := &timeoutWriter{ResponseWriter: rec, header: make(http.Header)}

	tw.WriteHeader(http.StatusAccepted)
	tw.WriteHeader(http.StatusTeapot)
	if rec.Code != http.StatusAccepted || tw.code != http.StatusAccepted {
		t.Errorf("code = %d, want 202", rec.Code)
	}
}
