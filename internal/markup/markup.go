// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup renders user-authored markdown (news bodies, staff bios,
// activity descriptions) into sanitised HTML.
package markup

import (
	"bytes"
	stdhtml "html"
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to safe HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

// New creates a Renderer with GitHub-flavoured extensions and the UGC
// sanitisation policy.
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoReferrerOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

// HTML renders markdown. Raw HTML in the source is omitted by goldmark and
// the output is sanitised again before being marked safe.
func (r *Renderer) HTML(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)) //nolint:gosec // escaped above
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec // sanitised by bluemonday
}

// Excerpt renders markdown, strips all tags and truncates the plain text to
// at most n runes on a word boundary.
func (r *Renderer) Excerpt(src string, n int) string {
	text := stdhtml.UnescapeString(r.strict.Sanitize(string(r.HTML(src))))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)[:n]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
