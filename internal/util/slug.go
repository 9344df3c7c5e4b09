// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small string, path and form helpers shared by the
// handlers and the object store.
package util

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// slugRegex matches runs of anything but ASCII letters, digits and hyphens.
	slugRegex = regexp.MustCompile(`[^a-z0-9-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// maxSlugLength bounds slugs used inside object names.
const maxSlugLength = 80

// Slugify converts a string to a lowercase ASCII slug. Non-Latin scripts are
// transliterated ("Новости" becomes "novosti").
func Slugify(s string) string {
	result := strings.ToLower(unidecode.Unidecode(s))
	result = slugRegex.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	if len(result) > maxSlugLength {
		result = strings.TrimRight(result[:maxSlugLength], "-")
	}
	return result
}

// SlugifyFilename slugs the base name of a file and keeps a sanitised
// lowercase extension. An empty result becomes "file".
func SlugifyFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(filepath.Ext(name))
	base := Slugify(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		base = "file"
	}

	ext = "." + Slugify(strings.TrimPrefix(ext, "."))
	if ext == "." {
		ext = ""
	}
	return base + ext
}
