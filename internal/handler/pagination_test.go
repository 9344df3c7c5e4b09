// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http/httptest"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?page=3", 3},
		{"?page=0", 1},
		{"?page=-2", 1},
		{"?page=abc", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/news"+tt.query, nil)
		if got := parsePage(r); got != tt.want {
			t.Errorf("parsePage(%q) = %d; want %d", tt.query, got, tt.want)
		}
	}
}

func TestPageParams(t *testing.T) {
	p := pageParams(3, 10)
	if p.Limit != 11 || p.Offset != 20 {
		t.Errorf("pageParams(3, 10) = %+v; want limit 11 offset 20", p)
	}
}

func TestPaginate(t *testing.T) {
	items, p := paginate([]int{1, 2, 3, 4}, 1, 3)
	if len(items) != 3 || !p.HasNext || p.HasPrev || p.NextPage != 2 {
		t.Errorf("first page = %v %+v", items, p)
	}

	items, p = paginate([]int{7}, 3, 3)
	if len(items) != 1 || p.HasNext || !p.HasPrev || p.PrevPage != 2 {
		t.Errorf("last page = %v %+v", items, p)
	}
}
