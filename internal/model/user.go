// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including identities, profiles, role assignments and the three content kinds.
package model

import (
	"strings"
	"time"
)

// Role is a capability label granted through a RoleAssignment.
type Role string

// Roles form a closed set.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRoles contains all valid roles.
var ValidRoles = []Role{RoleAdmin, RoleUser}

// ParseRole parses a role name. It is case-insensitive and trims whitespace.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ValidRoles {
		if r == v {
			return r, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Identity is an authenticated principal owned by the auth system.
type Identity struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns the full name, or the email if no name was given.
func (i Identity) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	return i.Email
}

// Profile is the public face of an identity. Its ID equals the identity ID.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleAssignment links a profile to a role. (UserID, Role) is unique.
type RoleAssignment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin returns true if the assignment grants the admin role.
func (a *RoleAssignment) IsAdmin() bool {
	return a.Role == RoleAdmin
}
