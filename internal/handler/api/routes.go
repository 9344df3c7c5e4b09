// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts every API endpoint on r. Authentication and rate limiting
// are applied by the caller; authorization happens in the store.
func (h *Handler) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})

	r.Post("/auth/register", h.Register)
	r.Post("/auth/token", h.Token)

	r.Get("/news", h.ListNews)
	r.Post("/news", h.CreateNews)
	r.Get("/news/{id}", h.GetNews)
	r.Put("/news/{id}", h.UpdateNews)
	r.Delete("/news/{id}", h.DeleteNews)

	r.Get("/staff", h.ListStaff)
	r.Post("/staff", h.CreateStaff)
	r.Get("/staff/{id}", h.GetStaff)
	r.Put("/staff/{id}", h.UpdateStaff)
	r.Delete("/staff/{id}", h.DeleteStaff)

	r.Get("/activities", h.ListActivities)
	r.Post("/activities", h.CreateActivity)
	r.Get("/activities/{id}", h.GetActivity)
	r.Put("/activities/{id}", h.UpdateActivity)
	r.Delete("/activities/{id}", h.DeleteActivity)

	r.Get("/profiles", h.ListProfiles)
	r.Post("/profiles", h.CreateProfile)
	r.Get("/profiles/{id}", h.GetProfile)
	r.Put("/profiles/{id}", h.UpdateProfile)
	r.Delete("/profiles/{id}", h.DeleteProfile)

	r.Get("/roles", h.ListRoles)
	r.Post("/roles", h.AssignRole)
	r.Delete("/roles/{id}", h.RevokeRole)

	r.Get("/storage/{bucket}", h.ListObjects)
	r.Post("/storage/{bucket}", h.UploadObject)
	r.Delete("/storage/{bucket}/{name}", h.DeleteObject)

	r.Get("/jobs", h.ListJobs)
	r.Post("/jobs/{name}/run", h.RunJob)
}
