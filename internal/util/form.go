// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"strings"
	"time"
)

// Form input layouts produced by <input type="date"> and "datetime-local".
const (
	DateLayout          = "2006-01-02"
	DateTimeLocalLayout = "2006-01-02T15:04"
)

// OptionalString returns nil for blank input and a pointer to the trimmed
// value otherwise.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns *p or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ParseFormTime parses a date or datetime-local form value, or RFC 3339,
// in loc. Blank input returns the zero time and no error.
func ParseFormTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{DateTimeLocalLayout, "2006-01-02T15:04:05", DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// FormatFormTime formats t for a datetime-local input. The zero time
// formats as "".
func FormatFormTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(DateTimeLocalLayout)
}
