// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/scheduler"
	"github.com/olegiv/portal/internal/store"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db         *sql.DB
	uploadsDir string
	version    string
	isAdmin    func(context.Context) bool
	jobs       func() []scheduler.JobInfo
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. isAdmin decides who sees
// check details; nil hides them from everyone.
func NewHealthHandler(db *sql.DB, uploadsDir, version string, isAdmin func(context.Context) bool) *HealthHandler {
	return &HealthHandler{
		db:         db,
		uploadsDir: uploadsDir,
		version:    version,
		isAdmin:    isAdmin,
		startTime:  time.Now(),
	}
}

// WithJobs adds the scheduled jobs to the admin report.
func (h *HealthHandler) WithJobs(jobs func() []scheduler.JobInfo) *HealthHandler {
	h.jobs = jobs
	return h
}

// HealthStatusPublic is the minimal health response for non-admin callers.
type HealthStatusPublic struct {
	Status string `json:"status"`
}

// HealthStatus represents the overall health status (admins only).
type HealthStatus struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Uptime    string              `json:"uptime"`
	Version   string              `json:"version"`
	Schema    int64               `json:"schema_version,omitempty"`
	Checks    map[string]Check    `json:"checks"`
	Jobs      []scheduler.JobInfo `json:"jobs,omitempty"`
	System    *SystemInfo         `json:"system,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo contains system-level information.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health requests.
// Returns minimal status for most callers, full details for admins.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	diskCheck := h.checkDiskSpace()

	overallStatus := "healthy"
	if dbCheck.Status != "healthy" || diskCheck.Status != "healthy" {
		overallStatus = "degraded"
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	if !h.callerIsAdmin(r) {
		writeJSON(w, statusCode, HealthStatusPublic{Status: overallStatus})
		return
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks: map[string]Check{
			"database": dbCheck,
			"disk":     diskCheck,
		},
	}
	if dbCheck.Status == "healthy" {
		if v, err := store.MigrationVersion(h.db); err == nil {
			status.Schema = v
		}
	}
	if h.jobs != nil {
		status.Jobs = h.jobs()
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = h.getSystemInfo()
	}
	writeJSON(w, statusCode, status)
}

// Liveness handles GET /health/live - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready - checks if the service is ready to accept traffic.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	dbCheck := h.checkDatabase(r.Context())
	if dbCheck.Status == "healthy" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	resp := map[string]string{"status": "not_ready"}
	// Only include error details for admins
	if h.callerIsAdmin(r) {
		resp["message"] = dbCheck.Message
	}
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

func (h *HealthHandler) callerIsAdmin(r *http.Request) bool {
	if h.isAdmin == nil || !middleware.CallerFrom(r.Context()).Authenticated() {
		return false
	}
	return h.isAdmin(r.Context())
}

// checkDatabase verifies database connectivity.
func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return Check{
			Status:  "unhealthy",
			Message: err.Error(),
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Message: "Connected",
		Latency: latency.String(),
	}
}

// checkDiskSpace checks available disk space in the uploads directory.
func (h *HealthHandler) checkDiskSpace() Check {
	// Ensure uploads directory exists
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		// Directory doesn't exist, but that's okay - it will be created when needed
		return Check{
			Status:  "healthy",
			Message: "Uploads directory does not exist yet",
		}
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &stat); err != nil {
		return Check{
			Status:  "unhealthy",
			Message: "Failed to check disk space: " + err.Error(),
		}
	}

	// Calculate available space in bytes
	availableBytes := stat.Bavail * uint64(stat.Bsize)

	// Convert to human-readable format
	available := formatBytes(availableBytes)

	// Warn if less than 100MB available
	const minSpace = 100 * 1024 * 1024 // 100MB
	if availableBytes < minSpace {
		return Check{
			Status:  "degraded",
			Message: "Low disk space: " + available + " available",
		}
	}

	return Check{
		Status:  "healthy",
		Message: available + " available",
	}
}

// getSystemInfo returns system-level metrics.
func (h *HealthHandler) getSystemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
