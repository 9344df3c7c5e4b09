// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package web embeds the HTML templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates holds layouts/, partials/, public/, admin/ and auth/.
var Templates = mustSub(templatesFS, "templates")

// Static holds the stylesheet served under /static/.
var Static = mustSub(staticFS, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
