// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/storage"
)

// StorageHandler serves stored objects.
type StorageHandler struct {
	storage  *storage.Store
	renderer *render.Renderer
}

// NewStorageHandler creates a new StorageHandler.
func NewStorageHandler(st *storage.Store, renderer *render.Renderer) *StorageHandler {
	return &StorageHandler{storage: st, renderer: renderer}
}

// Serve streams an object with its stored modification time so range and
// conditional requests work.
// GET /storage/{bucket}/{name}
func (h *StorageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, ok := model.ParseBucket(chi.URLParam(r, "bucket"))
	if !ok {
		renderError(w, r, h.renderer, storage.ErrNotFound)
		return
	}

	f, obj, err := h.storage.Open(ctx, middleware.CallerFrom(ctx), bucket, chi.URLParam(r, "name"))
	if err != nil {
		if errorStatus(err) == http.StatusUnprocessableEntity {
			err = storage.ErrNotFound
		}
		renderError(w, r, h.renderer, err)
		return
	}
	defer func() { _ = f.Close() }()

	// Objects are stored unvalidated; never let one run script in our origin.
	w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'; sandbox")
	w.Header().Set("Content-Type", obj.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, obj.Name, obj.ModTime, f)
}
