// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/olegiv/portal/internal/authz"
)

func TestMapDBError(t *testing.T) {
	if mapDBError(nil, "x") != nil {
		t.Fatal("nil error mapped to non-nil")
	}
	if err := mapDBError(sql.ErrNoRows, "getting"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ErrNoRows = %v, want ErrNotFound", err)
	}
	boom := errors.New("disk I/O error")
	if err := mapDBError(boom, "getting"); !errors.Is(err, boom) || errors.Is(err, ErrNotFound) {
		t.Errorf("generic error = %v", err)
	}
}

func TestCheckConstraintMapsToValidation(t *testing.T) {
	db := testDB(t)
	// bypass Go-side validation to reach the CHECK constraint
	_, err := db.Exec(`INSERT INTO news (id, title, content, published_at, created_at, updated_at)
		VALUES ('n1', ' ', 'c', '2025-01-01 00:00:00', '2025-01-01 00:00:00', '2025-01-01 00:00:00')`)
	if err == nil {
		t.Fatal("blank title accepted by schema")
	}
	if mapped := mapDBError(err, "inserting"); !errors.Is(mapped, ErrValidation) {
		t.Errorf("CHECK failure = %v, want ErrValidation", mapped)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"title": "is required", "content": "is required"}}
	want := "validation failed: content: is required; title: is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStoreSurfacesDriverFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := New(db)
	boom := errors.New("database is locked")
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(boom)

	_, err = s.CreateNews(context.Background(), authz.AsIdentity("admin-1"), NewsParams{Title: "t", Content: "c"})
	if !errors.Is(err, boom) {
		t.Fatalf("CreateNews = %v, want wrapped driver error", err)
	}
	if errors.Is(err, ErrAccessDenied) {
		t.Error("driver failure reported as access denied")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStoreListNewsQueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	s := New(db)
	mock.ExpectQuery(`SELECT id, title, content`).WillReturnError(sql.ErrConnDone)

	_, err = s.ListNews(context.Background(), authz.Anonymous(), ListParams{})
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("ListNews = %v, want ErrConnDone", err)
	}
}
