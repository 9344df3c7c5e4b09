// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a joined path escapes its base directory.
var ErrPathTraversal = errors.New("path escapes base directory")

// SafeJoinPath joins components onto base and rejects results outside base.
// Components containing separators or dot segments are rejected outright.
func SafeJoinPath(base string, components ...string) (string, error) {
	for _, c := range components {
		if c == "" || c == "." || c == ".." || strings.ContainsAny(c, `/\`) || strings.ContainsRune(c, 0) {
			return "", ErrPathTraversal
		}
	}

	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", err
	}
	full := filepath.Join(append([]string{absBase}, components...)...)
	if full != absBase && !strings.HasPrefix(full, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}
	return full, nil
}
