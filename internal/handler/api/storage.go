// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/storage"
)

// bucketParam parses the {bucket} URL parameter, writing a 404 for names
// outside the closed bucket set.
func bucketParam(w http.ResponseWriter, r *http.Request) (model.Bucket, bool) {
	bucket, ok := model.ParseBucket(chi.URLParam(r, "bucket"))
	if !ok {
		WriteNotFound(w, "Bucket not found")
	}
	return bucket, ok
}

// ListObjects handles GET /api/v1/storage/{bucket}
func (h *Handler) ListObjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}
	objects, err := h.storage.List(ctx, middleware.CallerFrom(ctx), bucket)
	if err != nil {
		writeStoreError(w, r, "list objects", err)
		return
	}
	if objects == nil {
		objects = []storage.Object{}
	}
	WriteSuccess(w, objects, nil)
}

// UploadObject handles POST /api/v1/storage/{bucket}
// Expects a multipart form with a "file" part.
func (h *Handler) UploadObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "upload_rejected", "Upload too large or malformed", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, map[string]string{"file": "is required"})
		return
	}
	defer func() { _ = file.Close() }()

	obj, err := h.storage.Put(ctx, middleware.CallerFrom(ctx), bucket, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeStoreError(w, r, "store object", err)
		return
	}
	slog.Info("object uploaded via API", "bucket", bucket, "name", obj.Name, "size", obj.Size)
	WriteCreated(w, obj)
}

// DeleteObject handles DELETE /api/v1/storage/{bucket}/{name}
func (h *Handler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bucket, ok := bucketParam(w, r)
	if !ok {
		return
	}
	if err := h.storage.Delete(ctx, middleware.CallerFrom(ctx), bucket, chi.URLParam(r, "name")); err != nil {
		writeStoreError(w, r, "delete object", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
