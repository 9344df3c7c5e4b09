// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API handlers of the portal.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/service"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
)

// Default and maximum page sizes of list endpoints.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// maxJSONBody caps request bodies decoded as JSON.
const maxJSONBody = 1 << 20

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	content       *service.Content
	store         *store.Store
	storage       *storage.Store
	accounts      *service.Accounts
	tokens        *auth.Tokens
	jobs          JobRunner
	maxUploadSize int64
}

// Config holds the dependencies of NewHandler.
type Config struct {
	Content       *service.Content
	Storage       *storage.Store
	Accounts      *service.Accounts
	Tokens        *auth.Tokens
	// Jobs is optional; without it the job endpoints list nothing.
	Jobs          JobRunner
	MaxUploadSize int64
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		content:       cfg.Content,
		store:         cfg.Content.Store(),
		storage:       cfg.Storage,
		accounts:      cfg.Accounts,
		tokens:        cfg.Tokens,
		jobs:          cfg.Jobs,
		maxUploadSize: cfg.MaxUploadSize,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata. HasMore reports whether the next page
// has at least one row.
type Meta struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// writeStoreError maps store and storage errors to API errors. Anything
// unexpected is logged and reported as a 500 with action in the message.
func writeStoreError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var ve *store.ValidationError
	switch {
	case errors.Is(err, authz.ErrDenied):
		WriteForbidden(w, "Access denied")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, store.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "Resource already exists", nil)
	case errors.As(err, &ve):
		WriteValidationError(w, ve.Fields)
	case errors.Is(err, storage.ErrUnknownBucket):
		WriteValidationError(w, map[string]string{"bucket": "unknown bucket"})
	case errors.Is(err, storage.ErrInvalidName):
		WriteValidationError(w, map[string]string{"name": "invalid object name"})
	default:
		slog.Error("api request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		WriteInternalError(w, "Failed to "+action)
	}
}

// decodeJSON decodes the request body into dst. Unknown fields such as
// id or updated_at are ignored. It writes a 400 and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", map[string]string{"body": err.Error()})
		return false
	}
	return true
}

// parsePagination reads ?page= and ?per_page= with defaults and bounds.
func parsePagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// listParams requests one row past the page so HasMore can be computed.
func listParams(page, perPage int) store.ListParams {
	return store.ListParams{Limit: perPage + 1, Offset: (page - 1) * perPage}
}

// pageOf trims the look-ahead row and returns the page metadata.
func pageOf[T any](items []T, page, perPage int) ([]T, *Meta) {
	meta := &Meta{Page: page, PerPage: perPage}
	if len(items) > perPage {
		meta.HasMore = true
		items = items[:perPage]
	}
	if items == nil {
		items = []T{}
	}
	return items, meta
}
