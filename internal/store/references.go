// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// ReferencedURLs returns every image or avatar URL stored on a row.
// The caller needs select permission on each content table.
func (s *Store) ReferencedURLs(ctx context.Context, caller authz.Caller) (map[string]struct{}, error) {
	for _, kind := range model.Kinds {
		if err := s.authorize(ctx, caller, authz.OpSelect, authz.ContentResource(kind)); err != nil {
			return nil, err
		}
	}
	if err := s.authorize(ctx, caller, authz.OpSelect, authz.On(authz.ResourceProfiles)); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT image_url FROM news WHERE image_url IS NOT NULL
		UNION SELECT image_url FROM staff WHERE image_url IS NOT NULL
		UNION SELECT image_url FROM activities WHERE image_url IS NOT NULL
		UNION SELECT avatar_url FROM profiles WHERE avatar_url IS NOT NULL`)
	if err != nil {
		return nil, mapDBError(err, "listing referenced urls")
	}
	defer func() { _ = rows.Close() }()

	refs := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, mapDBError(err, "scanning referenced url")
		}
		refs[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err, "listing referenced urls")
	}
	return refs, nil
}
