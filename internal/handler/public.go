// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/service"
)

// PublicHandler serves the public site.
type PublicHandler struct {
	content  *service.Content
	renderer *render.Renderer
	now      func() time.Time
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(content *service.Content, renderer *render.Renderer) *PublicHandler {
	return &PublicHandler{
		content:  content,
		renderer: renderer,
		now:      time.Now,
	}
}

// listPage is the data of a paginated public list.
type listPage[T any] struct {
	Items      []T
	Pagination Pagination
}

// homePage is the data of the home page.
type homePage struct {
	News     []model.NewsItem
	Upcoming []model.Activity
}

// Home renders the latest news and the next activities.
// GET /
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.CallerFrom(ctx)

	news, err := h.content.ListNews(ctx, caller, pageParams(1, HomeNewsLimit))
	if err != nil {
		renderError(w, r, h.renderer, err)
		return
	}
	if len(news) > HomeNewsLimit {
		news = news[:HomeNewsLimit]
	}
	upcoming, err := h.content.UpcomingActivities(ctx, caller, h.now(), HomeUpcomingLimit)
	if err != nil {
		renderError(w, r, h.renderer, err)
		return
	}

	renderPage(w, r, h.renderer, TemplateHome, render.TemplateData{
		Data: homePage{News: news, Upcoming: upcoming},
	})
}

// News renders the paginated news list.
// GET /news
func (h *PublicHandler) News(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := parsePage(r)
	items, err := h.content.ListNews(ctx, middleware.CallerFrom(ctx), pageParams(page, PublicPerPage))
	if err != nil {
		renderError(w, r, h.renderer, err)
		return
	}
	items, p := paginate(items, page, PublicPerPage)
	renderPage(w, r, h.renderer, TemplateNews, render.TemplateData{
		Title: i18n.T(middleware.LangFrom(ctx), "nav.news"),
		Data:  listPage[model.NewsItem]{Items: items, Pagination: p},
	})
}

// NewsDetail renders one news item.
// GET /news/{id}
func (h *PublicHandler) NewsDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := h.content.GetNews(ctx, middleware.CallerFrom(ctx), chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, h.renderer, err)
		return
	}
	renderPage(w, r, h.renderer, TemplateNewsDetail, render.TemplateData{
		Title: item.Title,
		Data:  item,
	})
}

// Staff renders the staff directory.
// GET /staff
func (h *PublicHandler) Staff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := parsePage(r)
	items, err := h.content.ListStaff(ctx, middleware.CallerFrom(ctx), pageParams(page, PublicPerPage))
	if err != nil {
		renderError(w, r, h.renderer, err)
		return
	}
	items, p := paginate(items, page, PublicPerPage)
	renderPage(w, r, h.renderer, TemplateStaff, render.TemplateData{
		Title: i18n.T(middleware.LangFrom(ctx), "nav.staff"),
		Data:  listPage[model.StaffMember]{Items: items, Pagination: p},
	})
}

// Activities renders all activities; past ones are dimmed.
// GET /activities
func (h *PublicHandler) Activities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := parsePage(r)
	items, err := h.content.ListActivities(ctx, middleware.CallerFrom(ctx), pageParams(page, PublicPerPage))
	if err != nil {
		renderError(w, r, h.renderer, err)
		return
	}
	items, p := paginate(items, page, PublicPerPage)
	renderPage(w, r, h.renderer, TemplateActivities, render.TemplateData{
		Title: i18n.T(middleware.LangFrom(ctx), "nav.activities"),
		Data:  listPage[model.Activity]{Items: items, Pagination: p},
	})
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LangFrom(r.Context())
	renderStatus(w, r, h.renderer, http.StatusNotFound, errorPage{
		Status:  http.StatusNotFound,
		Message: i18n.T(lang, "error.not_found"),
	})
}
