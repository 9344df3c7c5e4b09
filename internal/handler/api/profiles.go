// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
)

// CreateProfileRequest is the body of POST /profiles.
type CreateProfileRequest struct {
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// UpdateProfileRequest is the body of PUT /profiles/{id}.
type UpdateProfileRequest struct {
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (req UpdateProfileRequest) params() store.UpdateProfileParams {
	return store.UpdateProfileParams{FullName: req.FullName, AvatarURL: req.AvatarURL}
}

// RoleRequest is the body of POST /roles.
type RoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ListProfiles handles GET /api/v1/profiles
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	listResource(w, r, "profiles", h.store.ListProfiles)
}

// GetProfile handles GET /api/v1/profiles/{id}
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	getResource(w, r, "profile", h.store.GetProfile)
}

// CreateProfile handles POST /api/v1/profiles
// The profile is created for the caller's own identity. Registration already
// does this, so the usual answer is 409.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.CallerFrom(ctx)
	var req CreateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var email string
	if caller.Authenticated() {
		ident, err := h.store.GetIdentity(ctx, caller.IdentityID)
		if err != nil {
			writeStoreError(w, r, "create profile", err)
			return
		}
		email = ident.Email
	}

	p, err := h.store.CreateProfile(ctx, caller, store.CreateProfileParams{
		ID:        caller.IdentityID,
		Email:     email,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeStoreError(w, r, "create profile", err)
		return
	}
	WriteCreated(w, p)
}

// UpdateProfile handles PUT /api/v1/profiles/{id}
// Only the profile's own identity may update it.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	updateResource[model.Profile, store.UpdateProfileParams, UpdateProfileRequest](w, r, "profile", h.store.UpdateProfile)
}

// DeleteProfile handles DELETE /api/v1/profiles/{id}
// Profiles go away with their identity; the policy denies every caller.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	deleteResource(w, r, "profile", h.store.DeleteProfile)
}

// ListRoles handles GET /api/v1/roles
// ?user_id= filters by profile.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items, err := h.store.ListRoles(ctx, middleware.CallerFrom(ctx), r.URL.Query().Get("user_id"))
	if err != nil {
		writeStoreError(w, r, "list roles", err)
		return
	}
	if items == nil {
		items = []model.RoleAssignment{}
	}
	WriteSuccess(w, items, nil)
}

// AssignRole handles POST /api/v1/roles
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req RoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ra, err := h.store.AssignRole(ctx, middleware.CallerFrom(ctx), req.UserID, model.Role(req.Role))
	if err != nil {
		writeStoreError(w, r, "assign role", err)
		return
	}
	WriteCreated(w, ra)
}

// RevokeRole handles DELETE /api/v1/roles/{id}
func (h *Handler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.store.RevokeRole(ctx, middleware.CallerFrom(ctx), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, "revoke role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
