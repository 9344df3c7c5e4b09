// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/scheduler"
)

// JobRunner lists background jobs and runs them on demand.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	TriggerNow(name string) error
}

// JobRunResponse is the body of a successful manual run.
type JobRunResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// requireAdmin writes a 403 and returns false unless the caller holds the
// admin role. Jobs are not rows, so no table policy covers them.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	ok, err := h.store.IsAdmin(ctx, middleware.CallerFrom(ctx))
	if err != nil {
		slog.Error("admin check failed", "error", err)
		WriteInternalError(w, "Failed to check permissions")
		return false
	}
	if !ok {
		WriteForbidden(w, "Access denied")
		return false
	}
	return true
}

// ListJobs handles GET /api/v1/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	jobs := []scheduler.JobInfo{}
	if h.jobs != nil {
		jobs = append(jobs, h.jobs.Jobs()...)
	}
	WriteSuccess(w, jobs, nil)
}

// RunJob handles POST /api/v1/jobs/{name}/run
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		WriteNotFound(w, "Job not found")
		return
	}

	err := h.jobs.TriggerNow(name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteNotFound(w, "Job not found")
	case err != nil:
		slog.Error("manual job run failed", "job", name, "error", err)
		WriteInternalError(w, "Job failed")
	default:
		WriteSuccess(w, JobRunResponse{Name: name, Status: "completed"}, nil)
	}
}
