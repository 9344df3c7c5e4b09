// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// DemoModeMessage is shown when an action is blocked in demo mode.
const DemoModeMessage = "This action is disabled in demo mode"

// IsDemoRestricted reports whether a request would destroy shared demo data:
// any DELETE, admin deletions and uploads, and role changes.
func IsDemoRestricted(r *http.Request) bool {
	p := r.URL.Path
	switch r.Method {
	case http.MethodDelete:
		return true
	case http.MethodPost:
		return strings.HasSuffix(p, "/delete") ||
			strings.HasPrefix(p, "/admin/uploads/") ||
			strings.HasPrefix(p, "/api/v1/storage/") ||
			p == "/api/v1/roles"
	}
	return false
}

// DemoGuard blocks restricted requests with 403 when enabled.
func DemoGuard(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsDemoRestricted(r) {
				slog.Info("demo mode blocked request", "method", r.Method, "path", r.URL.Path)
				if strings.HasPrefix(r.URL.Path, "/api/") {
					WriteAPIError(w, http.StatusForbidden, "demo_mode", DemoModeMessage, nil)
					return
				}
				http.Error(w, DemoModeMessage, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
