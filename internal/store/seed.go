// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegiv/portal/internal/model"
)

// GrantAdmin gives the identity with the given email the admin role. It is
// the operator bootstrap path and bypasses the user_roles policy, so it is
// only reachable from the command line, never over HTTP. Granting to an
// existing admin is a no-op.
func (s *Store) GrantAdmin(ctx context.Context, email string) (model.RoleAssignment, error) {
	ident, err := s.GetIdentityByEmail(ctx, email)
	if err != nil {
		return model.RoleAssignment{}, fmt.Errorf("finding identity %q: %w", email, err)
	}

	ra, err := s.insertRole(ctx, ident.ID, model.RoleAdmin)
	if errors.Is(err, ErrConflict) {
		s.logger.Info("identity already has admin role", "email", ident.Email)
		roles, lerr := newQueries(s.db).listRoles(ctx, ident.ID)
		if lerr != nil {
			return model.RoleAssignment{}, mapDBError(lerr, "listing roles")
		}
		for _, r := range roles {
			if r.IsAdmin() {
				return r, nil
			}
		}
		return model.RoleAssignment{}, err
	}
	if err != nil {
		return model.RoleAssignment{}, err
	}

	s.logger.Info("granted admin role", "email", ident.Email, "id", ident.ID)
	return ra, nil
}

// SeedAdmin creates the initial administrator when no identities exist yet.
// passwordHash must already be hashed.
func (s *Store) SeedAdmin(ctx context.Context, email, passwordHash, fullName string) error {
	n, err := s.CountIdentities(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Debug("identities exist, skipping admin seed")
		return nil
	}

	ident, err := s.CreateIdentity(ctx, CreateIdentityParams{
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
	})
	if err != nil {
		return fmt.Errorf("creating admin identity: %w", err)
	}
	if _, err := s.GrantAdmin(ctx, ident.Email); err != nil {
		return fmt.Errorf("granting admin: %w", err)
	}

	s.logger.Info("created initial admin", "email", ident.Email)
	return nil
}
