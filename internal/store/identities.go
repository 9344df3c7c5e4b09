// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/olegiv/portal/internal/model"
)

// Identity operations belong to the authentication system rather than the
// protected tables, so they take no Caller.

// CreateIdentityParams holds registration data.
type CreateIdentityParams struct {
	Email        string
	PasswordHash string
	FullName     string
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateIdentity registers an identity. The profile is created by the
// identities_create_profile trigger in the same statement.
func (s *Store) CreateIdentity(ctx context.Context, arg CreateIdentityParams) (model.Identity, error) {
	arg.Email = NormalizeEmail(arg.Email)
	arg.FullName = strings.TrimSpace(arg.FullName)

	v := validator{}
	v.required("email", arg.Email)
	if arg.Email != "" {
		_, err := mail.ParseAddress(arg.Email)
		v.check(err == nil, "email", "is not a valid email address")
	}
	v.required("password", arg.PasswordHash)
	v.maxLen("full_name", arg.FullName, 200)
	if err := v.err(); err != nil {
		return model.Identity{}, err
	}

	ident := model.Identity{
		ID:           s.newID(),
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		FullName:     arg.FullName,
		CreatedAt:    s.now(),
	}
	err := withTx(ctx, s.db, func(q *queries) error {
		return q.insertIdentity(ctx, ident)
	})
	if err != nil {
		return model.Identity{}, mapDBError(err, "creating identity")
	}
	return ident, nil
}

// GetIdentityByEmail looks up an identity for authentication.
func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (model.Identity, error) {
	ident, err := newQueries(s.db).getIdentityByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return model.Identity{}, mapDBError(err, "getting identity")
	}
	return ident, nil
}

// GetIdentity looks up an identity by id.
func (s *Store) GetIdentity(ctx context.Context, id string) (model.Identity, error) {
	ident, err := newQueries(s.db).getIdentity(ctx, id)
	if err != nil {
		return model.Identity{}, mapDBError(err, "getting identity")
	}
	return ident, nil
}

// UpdatePasswordHash replaces the stored hash of an identity.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	n, err := newQueries(s.db).updatePasswordHash(ctx, id, passwordHash)
	if err != nil {
		return mapDBError(err, "updating password hash")
	}
	if n == 0 {
		return fmt.Errorf("updating password hash: %w", ErrNotFound)
	}
	return nil
}

// DeleteIdentity removes an identity. The profile and its role assignments
// cascade; content authored by it keeps a NULL creator.
func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	n, err := newQueries(s.db).deleteIdentity(ctx, id)
	if err != nil {
		return mapDBError(err, "deleting identity")
	}
	if n == 0 {
		return fmt.Errorf("deleting identity: %w", ErrNotFound)
	}
	return nil
}

const identityColumns = `id, email, password_hash, full_name, created_at`

func scanIdentity(row rowScanner) (model.Identity, error) {
	var i model.Identity
	err := row.Scan(&i.ID, &i.Email, &i.PasswordHash, &i.FullName, &i.CreatedAt)
	return i, err
}

func (q *queries) insertIdentity(ctx context.Context, i model.Identity) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`) VALUES (?, ?, ?, ?, ?)`,
		i.ID, i.Email, i.PasswordHash, i.FullName, i.CreatedAt,
	)
	return err
}

func (q *queries) getIdentityByEmail(ctx context.Context, email string) (model.Identity, error) {
	return scanIdentity(q.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`, email))
}

func (q *queries) getIdentity(ctx context.Context, id string) (model.Identity, error) {
	return scanIdentity(q.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id))
}

func (q *queries) updatePasswordHash(ctx context.Context, id, hash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE identities SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) deleteIdentity(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *queries) countIdentities(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n)
	return n, err
}

// CountIdentities returns the number of registered identities.
func (s *Store) CountIdentities(ctx context.Context) (int64, error) {
	n, err := newQueries(s.db).countIdentities(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting identities: %w", err)
	}
	return n, nil
}

