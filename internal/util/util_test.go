// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  Multiple   Spaces  ", "multiple-spaces"},
		{"Café Crème", "cafe-creme"},
		{"Новости школы", "novosti-shkoly"},
		{"a--b__c", "a-b-c"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := Slugify(strings.Repeat("ab ", 100))
	if len(long) > maxSlugLength || strings.HasSuffix(long, "-") {
		t.Errorf("long slug = %q", long)
	}
}

func TestSlugifyFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Photo 1.JPG", "photo-1.jpg"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\Фото.png`, "foto.png"},
		{"дом", "dom"},
		{".png", "file.png"},
		{"", "file"},
	}
	for _, tt := range tests {
		if got := SlugifyFilename(tt.in); got != tt.want {
			t.Errorf("SlugifyFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoinPath(base, "news-images", "a.png")
	if err != nil {
		t.Fatalf("SafeJoinPath: %v", err)
	}
	if got != filepath.Join(base, "news-images", "a.png") {
		t.Errorf("SafeJoinPath = %q", got)
	}

	for _, bad := range [][]string{{".."}, {"a/../../b"}, {"news-images", "../x"}, {""}, {`a\b`}} {
		if _, err := SafeJoinPath(base, bad...); !errors.Is(err, ErrPathTraversal) {
			t.Errorf("SafeJoinPath(%q) = %v, want ErrPathTraversal", bad, err)
		}
	}
}

func TestOptionalString(t *testing.T) {
	if OptionalString("   ") != nil {
		t.Error("blank should be nil")
	}
	if p := OptionalString(" x "); p == nil || *p != "x" {
		t.Errorf("OptionalString = %v", p)
	}
	if Deref(nil) != "" || Deref(OptionalString("y")) != "y" {
		t.Error("Deref mismatch")
	}
}

func TestParseFormTime(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"", time.Time{}, false},
		{"2025-05-01", time.Date(2025, 5, 1, 0, 0, 0, 0, loc), false},
		{"2025-05-01T18:30", time.Date(2025, 5, 1, 18, 30, 0, 0, loc), false},
		{"2025-05-01T18:30:00Z", time.Date(2025, 5, 1, 18, 30, 0, 0, loc), false},
		{"May 1st", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseFormTime(tt.in, loc)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormTime(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseFormTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	ts := time.Date(2025, 5, 1, 18, 30, 0, 0, loc)
	if s := FormatFormTime(ts, loc); s != "2025-05-01T18:30" {
		t.Errorf("FormatFormTime = %q", s)
	}
	if FormatFormTime(time.Time{}, loc) != "" {
		t.Error("zero time should format as empty")
	}
}
