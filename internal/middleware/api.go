// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/store"
)

// APIError is the JSON error envelope of the API.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// BearerCaller authenticates API requests carrying "Authorization: Bearer
// <jwt>". Requests without the header continue as anonymous; a malformed or
// invalid token, or one whose identity no longer exists, gets 401.
func BearerCaller(tokens *auth.Tokens, ids IdentityGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
				return
			}

			ident, err := ids.GetIdentity(r.Context(), claims.Subject)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					slog.Error("loading token identity", "error", err, "identity_id", claims.Subject)
					WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
					return
				}
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
		})
	}
}

// RequireJSON rejects write requests whose body is not JSON with 415.
// Multipart uploads and requests without a body are allowed through.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if r.ContentLength == 0 {
				break
			}
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "multipart/form-data") {
				WriteAPIError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json", nil)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
