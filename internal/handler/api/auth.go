// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/portal/internal/service"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IdentityResponse is the public part of an identity.
type IdentityResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ident, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeStoreError(w, r, "register", err)
		return
	}
	WriteCreated(w, IdentityResponse{ID: ident.ID, Email: ident.Email, FullName: ident.FullName})
}

// Token handles POST /api/v1/auth/token
// Exchanges email and password for a bearer token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ident, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		var locked *service.LockedError
		switch {
		case errors.As(err, &locked):
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(locked.Remaining.Seconds()))))
			WriteError(w, http.StatusTooManyRequests, "account_locked", "Too many failed attempts", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			WriteUnauthorized(w, "Invalid email or password")
		default:
			writeStoreError(w, r, "authenticate", err)
		}
		return
	}

	token, expires, err := h.tokens.Issue(ident.ID, ident.Email)
	if err != nil {
		slog.Error("issuing token", "error", err, "identity_id", ident.ID)
		WriteInternalError(w, "Failed to issue token")
		return
	}
	slog.Info("api token issued", "identity_id", ident.ID)
	WriteSuccess(w, TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires}, nil)
}
