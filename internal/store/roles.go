// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// ListRoles returns role assignments, optionally filtered by user.
// Any authenticated caller may read every assignment.
func (s *Store) ListRoles(ctx context.Context, caller authz.Caller, userID string) ([]model.RoleAssignment, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, authz.On(authz.ResourceUserRoles)); err != nil {
		return nil, err
	}
	items, err := newQueries(s.db).listRoles(ctx, userID)
	if err != nil {
		return nil, mapDBError(err, "listing roles")
	}
	return items, nil
}

// AssignRole grants role to a profile. Granting an existing (user, role)
// pair returns ErrConflict.
func (s *Store) AssignRole(ctx context.Context, caller authz.Caller, userID string, role model.Role) (model.RoleAssignment, error) {
	if err := s.authorize(ctx, caller, authz.OpInsert, authz.On(authz.ResourceUserRoles)); err != nil {
		return model.RoleAssignment{}, err
	}
	return s.insertRole(ctx, userID, role)
}

func (s *Store) insertRole(ctx context.Context, userID string, role model.Role) (model.RoleAssignment, error) {
	v := validator{}
	v.required("user_id", userID)
	_, ok := model.ParseRole(string(role))
	v.check(ok, "role", "must be admin or user")
	if err := v.err(); err != nil {
		return model.RoleAssignment{}, err
	}

	ra := model.RoleAssignment{
		ID:        s.newID(),
		UserID:    userID,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := newQueries(s.db).insertRole(ctx, ra); err != nil {
		return model.RoleAssignment{}, mapDBError(err, "assigning role")
	}
	return ra, nil
}

// RevokeRole removes a role assignment by id.
func (s *Store) RevokeRole(ctx context.Context, caller authz.Caller, id string) error {
	if err := s.authorize(ctx, caller, authz.OpDelete, authz.On(authz.ResourceUserRoles)); err != nil {
		return err
	}
	n, err := newQueries(s.db).deleteRow(ctx, "user_roles", id)
	if err != nil {
		return mapDBError(err, "revoking role")
	}
	if n == 0 {
		return fmt.Errorf("revoking role: %w", ErrNotFound)
	}
	return nil
}

const roleColumns = `id, user_id, role, created_at`

func scanRole(row rowScanner) (model.RoleAssignment, error) {
	var (
		ra   model.RoleAssignment
		role string
	)
	err := row.Scan(&ra.ID, &ra.UserID, &role, &ra.CreatedAt)
	ra.Role = model.Role(role)
	return ra, err
}

func (q *queries) listRoles(ctx context.Context, userID string) ([]model.RoleAssignment, error) {
	query := `SELECT ` + roleColumns + ` FROM user_roles`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.RoleAssignment
	for rows.Next() {
		ra, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ra)
	}
	return items, rows.Err()
}

func (q *queries) insertRole(ctx context.Context, ra model.RoleAssignment) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO user_roles (`+roleColumns+`) VALUES (?, ?, ?, ?)`,
		ra.ID, ra.UserID, string(ra.Role), ra.CreatedAt,
	)
	return err
}
