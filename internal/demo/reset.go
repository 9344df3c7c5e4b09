// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package demo refreshes the data of a public demo instance.
package demo

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// timestampFile is the name of the file storing the last reset time.
const timestampFile = ".last_reset"

// DefaultInterval is how often demo data is refreshed.
const DefaultInterval = 24 * time.Hour

// Reset wipes the database and every storage bucket of a demo instance.
// It must run before the database is opened.
type Reset struct {
	DBPath     string
	UploadsDir string
	// DataDir holds the reset timestamp. Defaults to the DBPath directory.
	DataDir  string
	Interval time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

func (r Reset) withDefaults() Reset {
	if r.DataDir == "" {
		r.DataDir = filepath.Dir(r.DBPath)
	}
	if r.Interval <= 0 {
		r.Interval = DefaultInterval
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
	return r
}

// IfStale resets when the last reset is older than Interval or unknown.
// It reports whether a reset happened.
func (r Reset) IfStale() (bool, error) {
	r = r.withDefaults()

	last, ok, err := r.lastReset()
	if err != nil {
		return false, err
	}
	if ok && r.Now().Sub(last) < r.Interval {
		r.Logger.Info("demo reset not needed",
			"last_reset", last.UTC().Format(time.RFC3339),
			"next_reset", last.Add(r.Interval).UTC().Format(time.RFC3339),
		)
		return false, nil
	}

	r.Logger.Info("demo reset overdue, wiping database and buckets")
	return true, r.Run()
}

// Run deletes the database files, empties the uploads root and records the
// reset time.
func (r Reset) Run() error {
	r = r.withDefaults()

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(r.DBPath + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", r.DBPath+suffix, err)
		}
	}
	if err := clearDir(r.UploadsDir); err != nil {
		return fmt.Errorf("clearing uploads: %w", err)
	}

	if err := os.MkdirAll(r.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	stamp := []byte(strconv.FormatInt(r.Now().UTC().Unix(), 10))
	if err := os.WriteFile(filepath.Join(r.DataDir, timestampFile), stamp, 0o644); err != nil {
		return fmt.Errorf("writing reset timestamp: %w", err)
	}

	r.Logger.Info("demo reset complete", "db", r.DBPath, "uploads", r.UploadsDir)
	return nil
}

// lastReset reads the timestamp file. A missing or garbled file is reported
// as unknown.
func (r Reset) lastReset() (time.Time, bool, error) {
	data, err := os.ReadFile(filepath.Join(r.DataDir, timestampFile))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading reset timestamp: %w", err)
	}
	sec, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.Unix(sec, 0), true, nil
}

// clearDir removes the bucket directories inside dir but keeps dir itself.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		p := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
