// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterPublicRoutes mounts the public site.
func RegisterPublicRoutes(r chi.Router, h *PublicHandler) {
	r.Get(RouteRoot, h.Home)
	r.Get(RouteNews, h.News)
	r.Get(RouteNews+RouteParamID, h.NewsDetail)
	r.Get(RouteStaff, h.Staff)
	r.Get(RouteActivities, h.Activities)
}

// RegisterAuthRoutes mounts login, logout and registration. limit wraps the
// POST handlers.
func RegisterAuthRoutes(r chi.Router, h *AuthHandler, limit func(http.Handler) http.Handler) {
	r.Get(RouteLogin, h.LoginForm)
	r.With(limit).Post(RouteLogin, h.Login)
	r.Post(RouteLogout, h.Logout)
	r.Get(RouteRegister, h.RegisterForm)
	r.With(limit).Post(RouteRegister, h.Register)
}

// RegisterAdminRoutes mounts the admin panel under the current router.
func RegisterAdminRoutes(r chi.Router, h *AdminHandler) {
	r.Get(RouteRoot, h.Dashboard)
	r.Post(RouteAdminUpload, h.Upload)
	r.Post(RouteAdminKind, h.Save)
	r.Post(RouteAdminKindID, h.Save)
	r.Post(RouteAdminKindIDDelete, h.Delete)
}

// RegisterHealthRoutes mounts the health probes.
func RegisterHealthRoutes(r chi.Router, h *HealthHandler) {
	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)
}
