// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package authz evaluates row-level access policies. Every data access in the
// store is checked here first with an explicit Caller; there is no ambient
// "current user".
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/olegiv/portal/internal/model"
)

// Decision sentinels returned by rules. Use errors.Is to check them.
var (
	// Allow terminates evaluation with an allow decision.
	Allow = errors.New("authz: allow rule")
	// Deny terminates evaluation with a deny decision.
	Deny = errors.New("authz: deny rule")
	// Skip abstains; evaluation continues with the next rule.
	Skip = errors.New("authz: skip rule")
)

// ErrDenied is returned by Authorize when a request is not permitted.
// It deliberately carries no information about whether the row exists.
var ErrDenied = errors.New("access denied")

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Op is a data-access operation.
type Op int

// Operations.
const (
	OpSelect Op = iota
	OpInsert
	OpUpdate
	OpDelete
)

// String implements fmt.Stringer.
func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// IsWrite reports whether the operation mutates data.
func (o Op) IsWrite() bool {
	return o != OpSelect
}

// Caller is the identity on whose behalf an operation runs.
// The zero value is the anonymous caller.
type Caller struct {
	IdentityID string
}

// Anonymous returns the unauthenticated caller.
func Anonymous() Caller {
	return Caller{}
}

// AsIdentity returns a caller authenticated as the given identity.
func AsIdentity(id string) Caller {
	return Caller{IdentityID: strings.TrimSpace(id)}
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool {
	return c.IdentityID != ""
}

// String implements fmt.Stringer.
func (c Caller) String() string {
	if !c.Authenticated() {
		return "anonymous"
	}
	return c.IdentityID
}

// Protected resource names.
const (
	ResourceProfiles   = "profiles"
	ResourceUserRoles  = "user_roles"
	ResourceNews       = "news"
	ResourceStaff      = "staff"
	ResourceActivities = "activities"

	bucketPrefix = "bucket:"
)

// Resource identifies what is being accessed. Owner is the row key used by
// ownership rules and is empty when not applicable.
type Resource struct {
	Name  string
	Owner string
}

// On returns the named resource without an owner.
func On(name string) Resource {
	return Resource{Name: name}
}

// OwnedBy returns the named resource keyed by owner.
func OwnedBy(name, owner string) Resource {
	return Resource{Name: name, Owner: owner}
}

// ContentResource returns the resource for a content kind.
func ContentResource(kind model.Kind) Resource {
	return Resource{Name: string(kind)}
}

// BucketResource returns the resource guarding a storage bucket.
func BucketResource(b model.Bucket) Resource {
	return Resource{Name: bucketPrefix + string(b)}
}

// IsBucket reports whether the resource is a storage bucket.
func (r Resource) IsBucket() bool {
	return strings.HasPrefix(r.Name, bucketPrefix)
}

// Request is a single authorization question.
type Request struct {
	Caller   Caller
	Op       Op
	Resource Resource
}

// RoleChecker answers the has_role predicate.
type RoleChecker interface {
	HasRole(ctx context.Context, identityID string, role model.Role) (bool, error)
}
