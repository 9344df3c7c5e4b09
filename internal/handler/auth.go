// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/service"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/store"
)

// AuthHandler handles session login, logout and registration.
type AuthHandler struct {
	accounts       *service.Accounts
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.Accounts, renderer *render.Renderer, sm *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		accounts:       accounts,
		renderer:       renderer,
		sessionManager: sm,
	}
}

// loginForm is the data of the login template.
type loginForm struct {
	Email string
	Error string
}

// registerForm is the data of the registration template.
type registerForm struct {
	Email    string
	FullName string
	Errors   map[string]string
}

// LoginForm renders the login page. Signed-in identities go home.
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.CallerFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginForm{})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form loginForm) {
	lang := middleware.LangFrom(r.Context())
	if err := h.renderer.RenderStatus(w, r, status, TemplateLogin, render.TemplateData{
		Title: i18n.T(lang, "auth.login_title"),
		Data:  form,
	}); err != nil {
		logAndInternalError(w, "failed to render login", "error", err)
	}
}

// Login handles the login form submission.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.LangFrom(ctx)

	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, loginForm{Error: i18n.T(lang, "error.generic")})
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	ident, err := h.accounts.Authenticate(ctx, email, password)
	if err != nil {
		var locked *service.LockedError
		switch {
		case errors.As(err, &locked):
			h.renderLogin(w, r, http.StatusTooManyRequests, loginForm{
				Email: email,
				Error: i18n.T(lang, "auth.locked", formatDuration(locked.Remaining)),
			})
		case errors.Is(err, service.ErrInvalidCredentials):
			h.renderLogin(w, r, http.StatusUnauthorized, loginForm{
				Email: email,
				Error: i18n.T(lang, "auth.invalid_credentials"),
			})
		default:
			logAndInternalError(w, "login failed", "error", err)
		}
		return
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(ctx, session.KeyIdentityID, ident.ID)

	slog.Info("identity logged in", "identity_id", ident.ID)
	name := ident.FullName
	if name == "" {
		name = ident.Email
	}
	flashSuccess(w, r, h.sessionManager, RouteRoot, i18n.T(lang, "auth.welcome", name))
}

// Logout destroys the session.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.LangFrom(ctx)
	identityID := h.sessionManager.GetString(ctx, session.KeyIdentityID)

	if err := h.sessionManager.Destroy(ctx); err != nil {
		slog.Error("session destroy error", "error", err)
	}
	// The destroyed session is reloaded empty; keep the chosen language.
	h.sessionManager.Put(ctx, session.KeyLang, lang)

	slog.Info("identity logged out", "identity_id", identityID)
	flashSuccess(w, r, h.sessionManager, RouteLogin, i18n.T(lang, "auth.logged_out"))
}

// RegisterForm renders the registration page.
// GET /register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.CallerFrom(r.Context()).Authenticated() {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, http.StatusOK, registerForm{})
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form registerForm) {
	lang := middleware.LangFrom(r.Context())
	if err := h.renderer.RenderStatus(w, r, status, TemplateRegister, render.TemplateData{
		Title: i18n.T(lang, "auth.register_title"),
		Data:  form,
	}); err != nil {
		logAndInternalError(w, "failed to render registration", "error", err)
	}
}

// Register creates an identity and signs it in.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := middleware.LangFrom(ctx)

	if err := r.ParseForm(); err != nil {
		h.renderRegister(w, r, http.StatusBadRequest, registerForm{Errors: map[string]string{"email": i18n.T(lang, "error.generic")}})
		return
	}
	form := registerForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		FullName: strings.TrimSpace(r.FormValue("full_name")),
	}
	password := r.FormValue("password")

	ident, err := h.accounts.Register(ctx, form.Email, password, form.FullName)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			form.Errors = map[string]string{"email": i18n.T(lang, "auth.email_taken")}
		case errors.Is(err, store.ErrValidation):
			form.Errors = localizeRegisterErrors(lang, fieldErrors(err))
		default:
			logAndInternalError(w, "registration failed", "error", err)
			return
		}
		h.renderRegister(w, r, errorStatus(err), form)
		return
	}

	if err := h.sessionManager.RenewToken(ctx); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}
	h.sessionManager.Put(ctx, session.KeyIdentityID, ident.ID)
	flashSuccess(w, r, h.sessionManager, RouteRoot, i18n.T(lang, "auth.registered"))
}

// localizeRegisterErrors replaces password length messages with translated ones.
func localizeRegisterErrors(lang string, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	switch fields["password"] {
	case auth.ErrPasswordTooShort.Error():
		out["password"] = i18n.T(lang, "auth.password_too_short", auth.MinPasswordLength)
	case auth.ErrPasswordTooLong.Error():
		out["password"] = i18n.T(lang, "auth.password_too_long", auth.MaxPasswordLength)
	}
	return out
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
