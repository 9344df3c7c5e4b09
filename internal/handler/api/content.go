// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
)

// NewsRequest is the body of POST and PUT /news.
type NewsRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ImageURL    *string    `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

func (req NewsRequest) params() store.NewsParams {
	return store.NewsParams{
		Title:       req.Title,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		PublishedAt: req.PublishedAt,
	}
}

// StaffRequest is the body of POST and PUT /staff.
type StaffRequest struct {
	FullName   string  `json:"full_name"`
	Position   string  `json:"position"`
	Department *string `json:"department,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	ImageURL   *string `json:"image_url,omitempty"`
	Bio        *string `json:"bio,omitempty"`
}

func (req StaffRequest) params() store.StaffParams {
	return store.StaffParams{
		FullName:   req.FullName,
		Position:   req.Position,
		Department: req.Department,
		Email:      req.Email,
		Phone:      req.Phone,
		ImageURL:   req.ImageURL,
		Bio:        req.Bio,
	}
}

// ActivityRequest is the body of POST and PUT /activities.
type ActivityRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ActivityDate *time.Time `json:"activity_date"`
	Location     *string    `json:"location,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty"`
}

func (req ActivityRequest) params() store.ActivityParams {
	p := store.ActivityParams{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	}
	if req.ActivityDate != nil {
		p.ActivityDate = *req.ActivityDate
	}
	return p
}

// paramsRequest is a request body that converts to store params.
type paramsRequest[P any] interface {
	params() P
}

func listResource[T any](w http.ResponseWriter, r *http.Request, name string, list func(context.Context, authz.Caller, store.ListParams) ([]T, error)) {
	ctx := r.Context()
	page, perPage := parsePagination(r)
	items, err := list(ctx, middleware.CallerFrom(ctx), listParams(page, perPage))
	if err != nil {
		writeStoreError(w, r, "list "+name, err)
		return
	}
	items, meta := pageOf(items, page, perPage)
	WriteSuccess(w, items, meta)
}

func getResource[T any](w http.ResponseWriter, r *http.Request, name string, get func(context.Context, authz.Caller, string) (T, error)) {
	ctx := r.Context()
	item, err := get(ctx, middleware.CallerFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, "retrieve "+name, err)
		return
	}
	WriteSuccess(w, item, nil)
}

func createResource[T, P any, R paramsRequest[P]](w http.ResponseWriter, r *http.Request, name string, create func(context.Context, authz.Caller, P) (T, error)) {
	ctx := r.Context()
	var req R
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := create(ctx, middleware.CallerFrom(ctx), req.params())
	if err != nil {
		writeStoreError(w, r, "create "+name, err)
		return
	}
	WriteCreated(w, item)
}

func updateResource[T, P any, R paramsRequest[P]](w http.ResponseWriter, r *http.Request, name string, update func(context.Context, authz.Caller, string, P) (T, error)) {
	ctx := r.Context()
	var req R
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := update(ctx, middleware.CallerFrom(ctx), chi.URLParam(r, "id"), req.params())
	if err != nil {
		writeStoreError(w, r, "update "+name, err)
		return
	}
	WriteSuccess(w, item, nil)
}

func deleteResource(w http.ResponseWriter, r *http.Request, name string, remove func(context.Context, authz.Caller, string) error) {
	ctx := r.Context()
	if err := remove(ctx, middleware.CallerFrom(ctx), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, "delete "+name, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNews handles GET /api/v1/news
func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	listResource(w, r, "news", h.content.ListNews)
}

// GetNews handles GET /api/v1/news/{id}
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	getResource(w, r, "news", h.content.GetNews)
}

// CreateNews handles POST /api/v1/news
func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	createResource[model.NewsItem, store.NewsParams, NewsRequest](w, r, "news", h.content.CreateNews)
}

// UpdateNews handles PUT /api/v1/news/{id}
func (h *Handler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	updateResource[model.NewsItem, store.NewsParams, NewsRequest](w, r, "news", h.content.UpdateNews)
}

// DeleteNews handles DELETE /api/v1/news/{id}
func (h *Handler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	deleteResource(w, r, "news", h.content.DeleteNews)
}

// ListStaff handles GET /api/v1/staff
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	listResource(w, r, "staff", h.content.ListStaff)
}

// GetStaff handles GET /api/v1/staff/{id}
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	getResource(w, r, "staff member", h.content.GetStaff)
}

// CreateStaff handles POST /api/v1/staff
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	createResource[model.StaffMember, store.StaffParams, StaffRequest](w, r, "staff member", h.content.CreateStaff)
}

// UpdateStaff handles PUT /api/v1/staff/{id}
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	updateResource[model.StaffMember, store.StaffParams, StaffRequest](w, r, "staff member", h.content.UpdateStaff)
}

// DeleteStaff handles DELETE /api/v1/staff/{id}
func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	deleteResource(w, r, "staff member", h.content.DeleteStaff)
}

// ListActivities handles GET /api/v1/activities
// ?upcoming=true lists only activities from now on, soonest first.
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("upcoming") != "true" {
		listResource(w, r, "activities", h.content.ListActivities)
		return
	}
	ctx := r.Context()
	_, perPage := parsePagination(r)
	items, err := h.content.UpcomingActivities(ctx, middleware.CallerFrom(ctx), time.Now(), perPage)
	if err != nil {
		writeStoreError(w, r, "list activities", err)
		return
	}
	if items == nil {
		items = []model.Activity{}
	}
	WriteSuccess(w, items, &Meta{Page: 1, PerPage: perPage})
}

// GetActivity handles GET /api/v1/activities/{id}
func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	getResource(w, r, "activity", h.content.GetActivity)
}

// CreateActivity handles POST /api/v1/activities
func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	createResource[model.Activity, store.ActivityParams, ActivityRequest](w, r, "activity", h.content.CreateActivity)
}

// UpdateActivity handles PUT /api/v1/activities/{id}
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	updateResource[model.Activity, store.ActivityParams, ActivityRequest](w, r, "activity", h.content.UpdateActivity)
}

// DeleteActivity handles DELETE /api/v1/activities/{id}
func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	deleteResource(w, r, "activity", h.content.DeleteActivity)
}
