// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/session"
)

// ContextKeyLang holds the UI language code.
const ContextKeyLang ContextKey = "lang"

// Language picks the UI language and stores it in the context.
// Priority order:
// 1. Query parameter ?lang=XX (explicit switch, saved in the session)
// 2. Session preference
// 3. Accept-Language header
// 4. English
func Language(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			lang := ""

			if q := r.URL.Query().Get("lang"); q != "" && i18n.IsSupported(q) {
				lang = i18n.MatchLanguage(q)
				sm.Put(ctx, session.KeyLang, lang)
			}
			if lang == "" {
				if s := sm.GetString(ctx, session.KeyLang); i18n.IsSupported(s) {
					lang = s
				}
			}
			if lang == "" {
				lang = i18n.MatchLanguage(r.Header.Get("Accept-Language"))
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, ContextKeyLang, lang)))
		})
	}
}

// LangFrom returns the request language, English when unset.
func LangFrom(ctx context.Context) string {
	if lang, ok := ctx.Value(ContextKeyLang).(string); ok && lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}
