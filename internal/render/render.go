// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded HTML templates once and renders pages
// with the request's language, signed-in identity and pending flash.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/markup"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/util"
)

// blankLinesRegex matches runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`(\r?\n[ \t]*){2,}`)

// Renderer handles template rendering.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	markup         *markup.Renderer
	isAdmin        func(context.Context) bool
	now            func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	Markup         *markup.Renderer
	// IsAdmin decides whether the nav shows the admin link.
	IsAdmin func(context.Context) bool
}

// New creates a Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		markup:         cfg.Markup,
		isAdmin:        cfg.IsAdmin,
		now:            time.Now,
	}
	if r.markup == nil {
		r.markup = markup.New()
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}
	return r, nil
}

// parseTemplates parses every page in public/, admin/ and auth/ together
// with the base layout and all partials. Pages are named "<dir>/<file>".
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for _, dir := range []string{"public", "admin", "auth"} {
		pages, err := templateFiles(templatesFS, dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", dir, err)
		}
		for _, page := range pages {
			name := dir + "/" + strings.TrimSuffix(path.Base(page), ".html")

			files := append([]string{"layouts/base.html"}, partials...)
			files = append(files, page)

			tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	if len(r.templates) == 0 {
		return fmt.Errorf("no templates found")
	}
	return nil
}

// templateFiles returns all .html files in dir. A missing dir yields none.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"T": i18n.T,
		"markdown": func(s any) template.HTML {
			return r.markup.HTML(deref(s))
		},
		"excerpt": func(s any, n int) string {
			return r.markup.Excerpt(deref(s), n)
		},
		"deref":          deref,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"inputDate": func(t time.Time) string {
			return util.FormatFormTime(t, time.UTC)
		},
		"kindLabel": func(lang string, k model.Kind) string {
			return i18n.T(lang, "kind."+string(k))
		},
		"isUpcoming": func(a model.Activity, now time.Time) bool {
			return a.IsUpcoming(now)
		},
		"dict": dict,
	}
}

// dict builds a map from alternating keys and values for sub-templates.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}

// deref returns the string behind a string or *string, "" for nil.
func deref(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	default:
		return ""
	}
}

var ruMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func formatDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	if lang == "ru" {
		return fmt.Sprintf("%d %s %d", t.Day(), ruMonths[t.Month()-1], t.Year())
	}
	return t.Format("January 2, 2006")
}

func formatDateTime(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	if lang == "ru" {
		return formatDate(t, lang) + ", " + t.Format("15:04")
	}
	return t.Format("January 2, 2006 3:04 PM")
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Lang        string
	Identity    *model.Identity
	IsAdmin     bool
	Flash       *session.Flash
	CurrentPath string
	CurrentYear int
	Now         time.Time
	Data        any
}

// Render renders page name with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders page name with the given status code. The page is
// executed into a buffer first so a template error never sends a partial page.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	ctx := req.Context()
	now := r.now()
	data.Now = now
	data.CurrentYear = now.Year()
	data.CurrentPath = req.URL.Path
	if data.Lang == "" {
		data.Lang = middleware.LangFrom(ctx)
	}
	if data.Identity == nil {
		if ident, ok := middleware.IdentityFrom(ctx); ok {
			data.Identity = &ident
		}
	}
	if data.Identity != nil && !data.IsAdmin && r.isAdmin != nil {
		data.IsAdmin = r.isAdmin(ctx)
	}
	if r.sessionManager != nil && data.Flash == nil {
		if f, ok := session.PopFlash(ctx, r.sessionManager); ok {
			data.Flash = &f
		}
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n"))); err != nil {
		slog.Debug("writing response", "error", err, "template", name)
	}
	return nil
}
