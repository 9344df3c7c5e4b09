// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the portal's background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrJobNotFound is returned by TriggerNow for an unregistered name.
var ErrJobNotFound = errors.New("job not found")

// jobTimeout bounds a single job run.
const jobTimeout = 10 * time.Minute

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// registeredJob holds metadata about a registered cron job.
type registeredJob struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         Job
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	logger *slog.Logger

	// ctx is cancelled by Stop so running jobs can exit early.
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(),
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add registers job under name with a standard five-field cron expression
// or a descriptor such as @daily.
func (s *Scheduler) Add(name, description, schedule string, job Job) error {
	if _, err := s.parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job already registered: %s", name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		if err := s.execute(name, job); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", name, err)
	}

	s.jobs[name] = &registeredJob{
		name:        name,
		description: description,
		schedule:    schedule,
		entryID:     entryID,
		run:         job,
	}
	s.logger.Debug("registered scheduled job", "job", name, "schedule", schedule)
	return nil
}

// execute runs job with the scheduler's context and a timeout.
func (s *Scheduler) execute(name string, job Job) error {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	err := job(ctx)
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start).String())
	return err
}

// Jobs returns all registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, job := range s.jobs {
		entry := s.cron.Entry(job.entryID)
		result = append(result, JobInfo{
			Name:        job.name,
			Description: job.description,
			Schedule:    job.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) TriggerNow(name string) error {
	s.mu.RLock()
	job, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	s.logger.Info("manually triggering job", "job", name)
	return s.execute(name, job.run)
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
