// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"

	"github.com/olegiv/portal/internal/store"
)

// Pagination holds the page links of a public list.
type Pagination struct {
	CurrentPage int
	PrevPage    int
	NextPage    int
	HasPrev     bool
	HasNext     bool
}

// parsePage reads ?page=N, defaulting to 1.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pageParams returns list params for page with perPage rows. One extra row
// is requested so the caller can tell whether a next page exists.
func pageParams(page, perPage int) store.ListParams {
	return store.ListParams{Limit: perPage + 1, Offset: (page - 1) * perPage}
}

// paginate trims the look-ahead row and builds the page links.
func paginate[T any](items []T, page, perPage int) ([]T, Pagination) {
	p := Pagination{
		CurrentPage: page,
		PrevPage:    page - 1,
		NextPage:    page + 1,
		HasPrev:     page > 1,
	}
	if len(items) > perPage {
		p.HasNext = true
		items = items[:perPage]
	}
	return items, p
}
