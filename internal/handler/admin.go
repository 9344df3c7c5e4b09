// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/service"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
)

// sessionKeyUploadedURL carries the last uploaded object URL to the form.
const sessionKeyUploadedURL = "admin_uploaded_url"

// AdminHandler serves the admin panel: one page with a tab per content
// kind, each listing rows next to a single shared form.
type AdminHandler struct {
	content        *service.Content
	storage        *storage.Store
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	maxUploadSize  int64
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(content *service.Content, st *storage.Store, renderer *render.Renderer, sm *scs.SessionManager, maxUploadSize int64) *AdminHandler {
	return &AdminHandler{
		content:        content,
		storage:        st,
		renderer:       renderer,
		sessionManager: sm,
		maxUploadSize:  maxUploadSize,
	}
}

// adminPage is the data of the dashboard template.
type adminPage struct {
	Tab         model.Kind
	Tabs        []model.Kind
	Rows        []adminRow
	Pagination  Pagination
	Form        adminForm
	Bucket      model.Bucket
	UploadedURL string
}

// Dashboard renders the tab named by ?tab (news by default). ?edit=<id>
// pre-populates the form with that row.
// GET /admin
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.CallerFrom(ctx)
	lang := middleware.LangFrom(ctx)

	tab, ok := model.ParseKind(r.URL.Query().Get("tab"))
	if !ok {
		tab = model.KindNews
	}
	editID := r.URL.Query().Get("edit")

	rows, pagination, values, err := h.load(ctx, caller, tab, editID, parsePage(r))
	if err != nil {
		if editID != "" && errors.Is(err, store.ErrNotFound) {
			flashError(w, r, h.sessionManager, redirectAdminTab(string(tab)), errorMessage(lang, err))
			return
		}
		renderError(w, r, h.renderer, err)
		return
	}

	page := adminPage{
		Tab:    tab,
		Tabs:   model.Kinds,
		Rows:       rows,
		Pagination: pagination,
		Bucket: tab.Bucket(),
		Form:   adminForm{Action: RouteAdmin + "/" + string(tab)},
	}
	if editID != "" {
		page.Form.EditID = editID
		page.Form.Action += "/" + url.PathEscape(editID)
	}
	if u := h.sessionManager.PopString(ctx, sessionKeyUploadedURL); u != "" {
		page.UploadedURL = u
		values["image_url"] = u
	}
	page.Form.Fields = buildFields(tab, values)

	renderPage(w, r, h.renderer, TemplateAdmin, render.TemplateData{
		Title: i18n.T(lang, "admin.title"),
		Data:  page,
	})
}

// load returns one page of rows of tab and, when editID is set, the form
// values of that row.
func (h *AdminHandler) load(ctx context.Context, caller authz.Caller, tab model.Kind, editID string, page int) ([]adminRow, Pagination, map[string]string, error) {
	params := pageParams(page, AdminPerPage)
	values := map[string]string{}

	switch tab {
	case model.KindNews:
		items, err := h.content.ListNews(ctx, caller, params)
		if err != nil {
			return nil, Pagination{}, nil, err
		}
		if editID != "" {
			n, err := h.content.GetNews(ctx, caller, editID)
			if err != nil {
				return nil, Pagination{}, nil, err
			}
			values = newsValues(n)
		}
		items, pagination := paginate(items, page, AdminPerPage)
		return mapRows(items, newsRow), pagination, values, nil

	case model.KindStaff:
		items, err := h.content.ListStaff(ctx, caller, params)
		if err != nil {
			return nil, Pagination{}, nil, err
		}
		if editID != "" {
			m, err := h.content.GetStaff(ctx, caller, editID)
			if err != nil {
				return nil, Pagination{}, nil, err
			}
			values = staffValues(m)
		}
		items, pagination := paginate(items, page, AdminPerPage)
		return mapRows(items, staffRow), pagination, values, nil

	default:
		items, err := h.content.ListActivities(ctx, caller, params)
		if err != nil {
			return nil, Pagination{}, nil, err
		}
		if editID != "" {
			a, err := h.content.GetActivity(ctx, caller, editID)
			if err != nil {
				return nil, Pagination{}, nil, err
			}
			values = activityValues(a)
		}
		items, pagination := paginate(items, page, AdminPerPage)
		return mapRows(items, activityRow), pagination, values, nil
	}
}

func mapRows[T any](items []T, fn func(T) adminRow) []adminRow {
	rows := make([]adminRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, fn(it))
	}
	return rows
}

// Save creates a row, or updates it when the route carries an id.
// POST /admin/{kind}
// POST /admin/{kind}/{id}
func (h *AdminHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.LangFrom(ctx)

	kind, ok := model.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		flashError(w, r, h.sessionManager, RouteAdmin, i18n.T(lang, "error.not_found"))
		return
	}
	id := chi.URLParam(r, "id")

	back := redirectAdminTab(string(kind))
	retry := back
	if id != "" {
		retry += "&edit=" + url.QueryEscape(id)
	}

	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.sessionManager, retry, i18n.T(lang, "error.generic"))
		return
	}

	if err := h.save(ctx, middleware.CallerFrom(ctx), kind, id, r.PostForm); err != nil {
		h.logFailure("saving content", err, kind, id)
		flashError(w, r, h.sessionManager, retry, errorMessage(lang, err))
		return
	}
	flashSuccess(w, r, h.sessionManager, back, i18n.T(lang, "flash.saved", i18n.T(lang, "kind."+string(kind))))
}

func (h *AdminHandler) save(ctx context.Context, caller authz.Caller, kind model.Kind, id string, form url.Values) error {
	switch kind {
	case model.KindNews:
		p, err := parseNewsForm(form)
		if err != nil {
			return err
		}
		if id == "" {
			_, err = h.content.CreateNews(ctx, caller, p)
		} else {
			_, err = h.content.UpdateNews(ctx, caller, id, p)
		}
		return err

	case model.KindStaff:
		p := parseStaffForm(form)
		var err error
		if id == "" {
			_, err = h.content.CreateStaff(ctx, caller, p)
		} else {
			_, err = h.content.UpdateStaff(ctx, caller, id, p)
		}
		return err

	default:
		p, err := parseActivityForm(form)
		if err != nil {
			return err
		}
		if id == "" {
			_, err = h.content.CreateActivity(ctx, caller, p)
		} else {
			_, err = h.content.UpdateActivity(ctx, caller, id, p)
		}
		return err
	}
}

// Delete removes a row.
// POST /admin/{kind}/{id}/delete
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.LangFrom(ctx)
	caller := middleware.CallerFrom(ctx)

	kind, ok := model.ParseKind(chi.URLParam(r, "kind"))
	if !ok {
		flashError(w, r, h.sessionManager, RouteAdmin, i18n.T(lang, "error.not_found"))
		return
	}
	id := chi.URLParam(r, "id")
	back := redirectAdminTab(string(kind))

	var err error
	switch kind {
	case model.KindNews:
		err = h.content.DeleteNews(ctx, caller, id)
	case model.KindStaff:
		err = h.content.DeleteStaff(ctx, caller, id)
	default:
		err = h.content.DeleteActivity(ctx, caller, id)
	}
	if err != nil {
		h.logFailure("deleting content", err, kind, id)
		flashError(w, r, h.sessionManager, back, errorMessage(lang, err))
		return
	}
	flashSuccess(w, r, h.sessionManager, back, i18n.T(lang, "flash.deleted", i18n.T(lang, "kind."+string(kind))))
}

// Upload stores an image in a bucket and hands its URL to the form.
// POST /admin/uploads/{bucket}
func (h *AdminHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.LangFrom(ctx)

	bucket, ok := model.ParseBucket(chi.URLParam(r, "bucket"))
	if !ok {
		flashError(w, r, h.sessionManager, RouteAdmin, errorMessage(lang, storage.ErrUnknownBucket))
		return
	}
	back := uploadReturnURL(r, bucket)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		slog.Warn("upload rejected", "error", err, "bucket", bucket)
		flashError(w, r, h.sessionManager, back, i18n.T(lang, "error.upload"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		flashError(w, r, h.sessionManager, back, i18n.T(lang, "error.upload"))
		return
	}
	defer func() { _ = file.Close() }()

	obj, err := h.storage.Put(ctx, middleware.CallerFrom(ctx), bucket, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errorStatus(err) == http.StatusInternalServerError {
			slog.Error("storing upload", "error", err, "bucket", bucket)
		}
		flashError(w, r, h.sessionManager, back, errorMessage(lang, err))
		return
	}

	h.sessionManager.Put(ctx, sessionKeyUploadedURL, obj.URL)
	flashSuccess(w, r, h.sessionManager, back, i18n.T(lang, "flash.uploaded", obj.URL))
}

// uploadReturnURL goes back to the tab and edited row the upload came from.
func uploadReturnURL(r *http.Request, bucket model.Bucket) string {
	q := r.URL.Query()
	tab, ok := model.ParseKind(q.Get("tab"))
	if !ok {
		tab = kindForBucket(bucket)
	}
	u := redirectAdminTab(string(tab))
	if edit := q.Get("edit"); edit != "" {
		u += "&edit=" + url.QueryEscape(edit)
	}
	return u
}

func kindForBucket(b model.Bucket) model.Kind {
	for _, k := range model.Kinds {
		if k.Bucket() == b {
			return k
		}
	}
	return model.KindNews
}

func (h *AdminHandler) logFailure(msg string, err error, kind model.Kind, id string) {
	if errorStatus(err) == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "kind", kind, "id", id)
		return
	}
	slog.Debug(msg, "error", err, "kind", kind, "id", id)
}
