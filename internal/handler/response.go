// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, kind, message string) {
	session.PutFlash(r.Context(), sm, kind, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, session.FlashError, message)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, session.FlashSuccess, message)
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// errorStatus maps store and storage errors to an HTTP status.
func errorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, authz.ErrDenied):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrValidation),
		errors.Is(err, storage.ErrInvalidName),
		errors.Is(err, storage.ErrUnknownBucket):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the single localized message shown for err.
func errorMessage(lang string, err error) string {
	switch {
	case errors.Is(err, authz.ErrDenied):
		return i18n.T(lang, "error.denied")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return i18n.T(lang, "error.not_found")
	case errors.Is(err, store.ErrConflict):
		return i18n.T(lang, "error.conflict")
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrUnknownBucket):
		return i18n.T(lang, "error.upload")
	}
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return i18n.T(lang, "error.validation", validationSummary(ve.Fields))
	}
	return i18n.T(lang, "error.generic")
}

// validationSummary joins field errors in a stable order.
func validationSummary(fields map[string]string) string {
	keys := slices.Sorted(maps.Keys(fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// fieldErrors returns the per-field messages of a validation error, or nil.
func fieldErrors(err error) map[string]string {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// errorPage is the data of the error template.
type errorPage struct {
	Status  int
	Message string
}

// renderError renders the public error page for err. Unexpected errors are
// logged with the request path.
func renderError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "path", middleware.GetRequestPath(r.Context()))
	}
	lang := middleware.LangFrom(r.Context())
	renderStatus(w, r, renderer, status, errorPage{Status: status, Message: errorMessage(lang, err)})
}

// renderStatus renders the error template with an explicit status.
func renderStatus(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, page errorPage) {
	if err := renderer.RenderStatus(w, r, status, TemplateError, render.TemplateData{
		Title: http.StatusText(status),
		Data:  page,
	}); err != nil {
		logAndInternalError(w, "failed to render error page", "error", err)
	}
}

// renderPage renders a page and logs template failures.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "error", err, "template", name)
	}
}
