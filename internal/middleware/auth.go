// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication, request
// context and transport hardening.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys.
const (
	ContextKeyCaller      ContextKey = "caller"
	ContextKeyIdentity    ContextKey = "identity"
	ContextKeyRequestPath ContextKey = "request_path"
)

// IdentityGetter loads identities by id.
type IdentityGetter interface {
	GetIdentity(ctx context.Context, id string) (model.Identity, error)
}

// WithIdentity returns ctx carrying ident and the matching caller.
func WithIdentity(ctx context.Context, ident model.Identity) context.Context {
	ctx = context.WithValue(ctx, ContextKeyIdentity, ident)
	return context.WithValue(ctx, ContextKeyCaller, authz.AsIdentity(ident.ID))
}

// CallerFrom returns the request's caller, anonymous when none was loaded.
func CallerFrom(ctx context.Context) authz.Caller {
	c, ok := ctx.Value(ContextKeyCaller).(authz.Caller)
	if !ok {
		return authz.Anonymous()
	}
	return c
}

// IdentityFrom returns the signed-in identity, if any.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	ident, ok := ctx.Value(ContextKeyIdentity).(model.Identity)
	return ident, ok
}

// LoadCaller loads the session's identity into the request context. A
// session pointing at a deleted identity is destroyed and the request
// continues anonymously.
func LoadCaller(sm *scs.SessionManager, ids IdentityGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sm.GetString(r.Context(), session.KeyIdentityID)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			ident, err := ids.GetIdentity(r.Context(), id)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					slog.Error("loading session identity", "error", err, "identity_id", id)
				}
				_ = sm.Destroy(r.Context())
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// RequireLogin redirects anonymous callers to the login page with 303.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !CallerFrom(r.Context()).Authenticated() {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestPath stores the request path in the context for error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, _ := ctx.Value(ContextKeyRequestPath).(string)
	return path
}
