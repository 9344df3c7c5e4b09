// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// CreateProfileParams holds data for an explicit profile insert.
type CreateProfileParams struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL *string
}

// UpdateProfileParams holds the editable profile fields.
type UpdateProfileParams struct {
	FullName  string
	AvatarURL *string
}

func validateProfile(fullName string, avatarURL *string) error {
	v := validator{}
	v.maxLen("full_name", fullName, 200)
	if avatarURL != nil {
		v.maxLen("avatar_url", *avatarURL, 2048)
	}
	return v.err()
}

// ListProfiles returns profiles ordered by creation time.
func (s *Store) ListProfiles(ctx context.Context, caller authz.Caller, p ListParams) ([]model.Profile, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, authz.On(authz.ResourceProfiles)); err != nil {
		return nil, err
	}
	p = p.normalize()
	rows, err := newQueries(s.db).listProfiles(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, mapDBError(err, "listing profiles")
	}
	return rows, nil
}

// GetProfile returns a profile by id.
func (s *Store) GetProfile(ctx context.Context, caller authz.Caller, id string) (model.Profile, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, authz.OwnedBy(authz.ResourceProfiles, id)); err != nil {
		return model.Profile{}, err
	}
	p, err := newQueries(s.db).getProfile(ctx, id)
	if err != nil {
		return model.Profile{}, mapDBError(err, "getting profile")
	}
	return p, nil
}

// CreateProfile inserts a profile for the caller's own identity. Normally the
// registration trigger does this; the method exists for identities whose
// profile was never created.
func (s *Store) CreateProfile(ctx context.Context, caller authz.Caller, arg CreateProfileParams) (model.Profile, error) {
	if err := s.authorize(ctx, caller, authz.OpInsert, authz.OwnedBy(authz.ResourceProfiles, arg.ID)); err != nil {
		return model.Profile{}, err
	}
	arg.FullName = strings.TrimSpace(arg.FullName)
	if err := validateProfile(arg.FullName, arg.AvatarURL); err != nil {
		return model.Profile{}, err
	}

	now := s.now()
	p := model.Profile{
		ID:        arg.ID,
		Email:     NormalizeEmail(arg.Email),
		FullName:  arg.FullName,
		AvatarURL: arg.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := newQueries(s.db).insertProfile(ctx, p); err != nil {
		return model.Profile{}, mapDBError(err, "creating profile")
	}
	return p, nil
}

// UpdateProfile changes the caller's own profile. Any role, including admin,
// is denied for profiles other than the caller's.
func (s *Store) UpdateProfile(ctx context.Context, caller authz.Caller, id string, arg UpdateProfileParams) (model.Profile, error) {
	if err := s.authorize(ctx, caller, authz.OpUpdate, authz.OwnedBy(authz.ResourceProfiles, id)); err != nil {
		return model.Profile{}, err
	}
	arg.FullName = strings.TrimSpace(arg.FullName)
	if err := validateProfile(arg.FullName, arg.AvatarURL); err != nil {
		return model.Profile{}, err
	}

	var out model.Profile
	err := withTx(ctx, s.db, func(q *queries) error {
		prev, err := q.updatedAt(ctx, "profiles", id)
		if err != nil {
			return err
		}
		ts := s.nextUpdatedAt(prev)
		if err := q.updateProfile(ctx, id, arg, ts); err != nil {
			return err
		}
		out, err = q.getProfile(ctx, id)
		return err
	})
	if err != nil {
		return model.Profile{}, mapDBError(err, "updating profile")
	}
	return out, nil
}

// DeleteProfile is governed by the profiles policy, which grants delete to
// nobody. Profiles disappear only when their identity is deleted.
func (s *Store) DeleteProfile(ctx context.Context, caller authz.Caller, id string) error {
	if err := s.authorize(ctx, caller, authz.OpDelete, authz.OwnedBy(authz.ResourceProfiles, id)); err != nil {
		return err
	}
	n, err := newQueries(s.db).deleteRow(ctx, "profiles", id)
	if err != nil {
		return mapDBError(err, "deleting profile")
	}
	if n == 0 {
		return fmt.Errorf("deleting profile: %w", ErrNotFound)
	}
	return nil
}

const profileColumns = `id, email, full_name, avatar_url, created_at, updated_at`

func scanProfile(row rowScanner) (model.Profile, error) {
	var (
		p      model.Profile
		avatar sql.NullString
	)
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &avatar, &p.CreatedAt, &p.UpdatedAt)
	p.AvatarURL = stringPtr(avatar)
	return p, err
}

func (q *queries) getProfile(ctx context.Context, id string) (model.Profile, error) {
	return scanProfile(q.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id))
}

func (q *queries) listProfiles(ctx context.Context, limit, offset int) ([]model.Profile, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY created_at, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (q *queries) insertProfile(ctx context.Context, p model.Profile) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, nullString(p.AvatarURL), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (q *queries) updateProfile(ctx context.Context, id string, arg UpdateProfileParams, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE profiles SET full_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		arg.FullName, nullString(arg.AvatarURL), updatedAt, id,
	)
	return err
}

// updatedAt reads a row's updated_at. Table names come from constants only.
func (q *queries) updatedAt(ctx context.Context, table, id string) (time.Time, error) {
	var ts time.Time
	err := q.db.QueryRowContext(ctx, `SELECT updated_at FROM `+table+` WHERE id = ?`, id).Scan(&ts)
	return ts, err
}

func (q *queries) deleteRow(ctx context.Context, table, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
