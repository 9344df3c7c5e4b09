// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LockedError is returned while an account is locked after repeated failures.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %s", e.Remaining)
}

// Lockout tracks failed logins per account.
type Lockout interface {
	IsAccountLocked(email string) (bool, time.Duration)
	RecordFailedAttempt(email string) (bool, time.Duration)
	RecordSuccessfulLogin(email string)
}

// Accounts registers and authenticates identities for both the session
// login and the API token endpoint.
type Accounts struct {
	store   *store.Store
	lockout Lockout
	logger  *slog.Logger
}

// NewAccounts creates an Accounts service. lockout may be nil.
func NewAccounts(st *store.Store, lockout Lockout, logger *slog.Logger) *Accounts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accounts{store: st, lockout: lockout, logger: logger}
}

// Register validates the password, hashes it and creates the identity.
// The profile row is created alongside it by the database.
func (a *Accounts) Register(ctx context.Context, email, password, fullName string) (model.Identity, error) {
	if err := auth.ValidatePassword(password); err != nil {
		return model.Identity{}, &store.ValidationError{Fields: map[string]string{"password": err.Error()}}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.Identity{}, fmt.Errorf("hashing password: %w", err)
	}
	ident, err := a.store.CreateIdentity(ctx, store.CreateIdentityParams{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	})
	if err != nil {
		return model.Identity{}, err
	}
	a.logger.Info("identity registered", "identity_id", ident.ID, "email", ident.Email)
	return ident, nil
}

// Authenticate checks email and password. Unknown emails burn the same
// hashing time as known ones and count toward the lockout.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (model.Identity, error) {
	email = store.NormalizeEmail(email)

	if a.lockout != nil {
		if locked, remaining := a.lockout.IsAccountLocked(email); locked {
			a.logger.Warn("login attempt on locked account", "email", email)
			return model.Identity{}, &LockedError{Remaining: remaining}
		}
	}

	ident, err := a.store.GetIdentityByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return model.Identity{}, err
		}
		auth.CheckDummy(password)
		return model.Identity{}, a.failed(email)
	}

	ok, err := auth.CheckPassword(password, ident.PasswordHash)
	if err != nil {
		a.logger.Error("password check error", "error", err, "identity_id", ident.ID)
		return model.Identity{}, ErrInvalidCredentials
	}
	if !ok {
		a.logger.Debug("invalid password attempt", "email", email)
		return model.Identity{}, a.failed(email)
	}

	if a.lockout != nil {
		a.lockout.RecordSuccessfulLogin(email)
	}
	if auth.NeedsRehash(ident.PasswordHash) {
		a.rehash(ctx, &ident, password)
	}
	a.logger.Info("identity authenticated", "identity_id", ident.ID)
	return ident, nil
}

// rehash upgrades a hash made with older cost parameters. Failures are
// logged only; the login itself already succeeded.
func (a *Accounts) rehash(ctx context.Context, ident *model.Identity, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		a.logger.Warn("password rehash failed", "error", err, "identity_id", ident.ID)
		return
	}
	if err := a.store.UpdatePasswordHash(ctx, ident.ID, hash); err != nil {
		a.logger.Warn("password rehash failed", "error", err, "identity_id", ident.ID)
		return
	}
	ident.PasswordHash = hash
	a.logger.Info("password rehashed", "identity_id", ident.ID)
}

func (a *Accounts) failed(email string) error {
	if a.lockout != nil {
		if locked, d := a.lockout.RecordFailedAttempt(email); locked {
			a.logger.Warn("account locked due to failed attempts", "email", email, "duration", d.String())
			return &LockedError{Remaining: d}
		}
	}
	return ErrInvalidCredentials
}
