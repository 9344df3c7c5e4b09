// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store is the guarded data layer. Every exported method takes an
// explicit authz.Caller and evaluates the resource policy before touching
// the database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// Store wraps the database with policy enforcement.
type Store struct {
	db     *sql.DB
	authz  *authz.Evaluator
	clock  func() time.Time
	newID  func() string
	logger *slog.Logger

	authzOpts []authz.Option
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for created_at and updated_at.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithAuthzOptions passes options to the policy evaluator.
func WithAuthzOptions(opts ...authz.Option) Option {
	return func(s *Store) {
		s.authzOpts = append(s.authzOpts, opts...)
	}
}

// New creates a Store. The store itself answers has_role for its evaluator.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		clock:  time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	evalOpts := append([]authz.Option{authz.WithLogger(s.logger)}, s.authzOpts...)
	s.authz = authz.New(s, evalOpts...)
	return s
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Authorizer returns the policy evaluator used by the store.
func (s *Store) Authorizer() *authz.Evaluator {
	return s.authz
}

// HasRole reports whether the identity holds the role. This is the has_role
// predicate used by policies; it is not itself policy-guarded.
func (s *Store) HasRole(ctx context.Context, identityID string, role model.Role) (bool, error) {
	if identityID == "" {
		return false, nil
	}
	ok, err := newQueries(s.db).hasRole(ctx, identityID, role)
	if err != nil {
		return false, fmt.Errorf("checking role: %w", err)
	}
	return ok, nil
}

// IsAdmin is HasRole(ctx, caller, admin) for a caller.
func (s *Store) IsAdmin(ctx context.Context, caller authz.Caller) (bool, error) {
	return s.HasRole(ctx, caller.IdentityID, model.RoleAdmin)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) authorize(ctx context.Context, caller authz.Caller, op authz.Op, res authz.Resource) error {
	if err := s.authz.Authorize(ctx, caller, op, res); err != nil {
		return denied(err)
	}
	return nil
}

// now returns the current clock time in UTC at microsecond precision.
func (s *Store) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

// nextUpdatedAt returns the clock time, or prev+1µs if the clock has not
// moved past prev, so updated_at strictly increases per row.
func (s *Store) nextUpdatedAt(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.UTC().Add(time.Microsecond)
	}
	return now
}

func (q *queries) hasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = ? AND role = ?)`,
		userID, string(role),
	).Scan(&exists)
	return exists, err
}

// ListParams pages list queries.
type ListParams struct {
	Limit  int
	Offset int
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

func (p ListParams) normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
