// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures cookie sessions stored in the application
// database and carries one-shot flash messages between redirects.
package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	KeyIdentityID = "identity_id"
	KeyLang       = "lang"

	keyFlashKind    = "flash_kind"
	keyFlashMessage = "flash_message"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Lifetime is how long a session lives without activity limits.
const Lifetime = 24 * time.Hour

// New creates a session manager backed by the sessions table of db.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, 30*time.Minute)

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.Name = "portal_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev
	if !isDev {
		sm.Cookie.Name = "__Host-portal_session"
		sm.Cookie.Path = "/"
	}
	return sm
}

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// PutFlash stores a flash message in the session.
func PutFlash(ctx context.Context, sm *scs.SessionManager, kind, message string) {
	sm.Put(ctx, keyFlashKind, kind)
	sm.Put(ctx, keyFlashMessage, message)
}

// PopFlash returns and clears the pending flash message.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (Flash, bool) {
	msg := sm.PopString(ctx, keyFlashMessage)
	kind := sm.PopString(ctx, keyFlashKind)
	if msg == "" {
		return Flash{}, false
	}
	if kind == "" {
		kind = FlashSuccess
	}
	return Flash{Kind: kind, Message: msg}, true
}
