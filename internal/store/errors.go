// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/olegiv/portal/internal/authz"
)

// Sentinel errors returned by Store methods. Check with errors.Is.
var (
	// ErrAccessDenied is returned when the policy for (caller, op, resource) denies.
	ErrAccessDenied = fmt.Errorf("store: %w", authz.ErrDenied)
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned on a uniqueness violation.
	ErrConflict = errors.New("store: conflict")
	// ErrValidation is returned when input fails validation or a CHECK constraint.
	ErrValidation = errors.New("store: validation failed")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// validator collects field errors.
type validator map[string]string

func (v validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = "is required"
	}
}

func (v validator) maxLen(field, value string, n int) {
	if len(value) > n {
		v[field] = fmt.Sprintf("must be at most %d characters", n)
	}
}

func (v validator) check(ok bool, field, msg string) {
	if !ok {
		if _, exists := v[field]; !exists {
			v[field] = msg
		}
	}
}

func (v validator) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(v)}
}

// denied wraps an authorization failure. Denials become ErrAccessDenied;
// evaluation failures are passed through.
func denied(err error) error {
	if errors.Is(err, authz.ErrDenied) {
		return fmt.Errorf("%w: %s", ErrAccessDenied, strings.TrimSuffix(err.Error(), ": "+authz.ErrDenied.Error()))
	}
	return err
}

// mapDBError translates driver errors into store sentinels.
func mapDBError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w", what, ErrConflict)
		case code == sqlite3.SQLITE_CONSTRAINT_CHECK || code == sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%s: %w: %s", what, ErrValidation, serr.Error())
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%s: %w", what, ErrNotFound)
		case code&0xff == sqlite3.SQLITE_CONSTRAINT:
			if strings.Contains(serr.Error(), "UNIQUE") {
				return fmt.Errorf("%s: %w", what, ErrConflict)
			}
			return fmt.Errorf("%s: %w: %s", what, ErrValidation, serr.Error())
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
