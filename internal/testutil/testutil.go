// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the portal project.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
)

// TestPassword is the password of every identity created by MustIdentity.
const TestPassword = "correct-horse-battery"

// TestLoggerSilent creates a logger that discards everything.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary migrated database, closed when the test ends.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "portal-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// TestStore creates a store over a fresh test database.
func TestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	opts = append([]store.Option{store.WithLogger(TestLoggerSilent())}, opts...)
	return store.New(TestDB(t), opts...)
}

// MustIdentity registers an identity with TestPassword.
func MustIdentity(t *testing.T, s *store.Store, email, fullName string) model.Identity {
	t.Helper()

	hash, err := testHash()
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	id, err := s.CreateIdentity(context.Background(), store.CreateIdentityParams{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	})
	if err != nil {
		t.Fatalf("CreateIdentity(%s): %v", email, err)
	}
	return id
}

// MustAdmin registers an identity, grants it the admin role and returns its caller.
func MustAdmin(t *testing.T, s *store.Store, email string) authz.Caller {
	t.Helper()

	id := MustIdentity(t, s, email, "Admin")
	if _, err := s.GrantAdmin(context.Background(), id.Email); err != nil {
		t.Fatalf("GrantAdmin(%s): %v", email, err)
	}
	return authz.AsIdentity(id.ID)
}

// MustUser registers a plain identity and returns its caller.
func MustUser(t *testing.T, s *store.Store, email string) authz.Caller {
	t.Helper()
	return authz.AsIdentity(MustIdentity(t, s, email, "User").ID)
}

var (
	hashOnce sync.Once
	hashVal  string
	hashErr  error
)

// testHash hashes TestPassword once per test binary with cheap parameters.
func testHash() (string, error) {
	hashOnce.Do(func() {
		p := auth.DefaultParams
		p.Memory = 1024
		p.Time = 1
		hashVal, hashErr = p.Hash(TestPassword)
	})
	return hashVal, hashErr
}
