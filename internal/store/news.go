// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// NewsParams holds the editable news fields. A nil PublishedAt means "now"
// on create and "unchanged" on update.
type NewsParams struct {
	Title       string
	Content     string
	ImageURL    *string
	PublishedAt *time.Time
}

func (p *NewsParams) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Content = strings.TrimSpace(p.Content)
	p.ImageURL = trimOptional(p.ImageURL)
}

func (p NewsParams) validate() error {
	v := validator{}
	v.required("title", p.Title)
	v.maxLen("title", p.Title, 200)
	v.required("content", p.Content)
	if p.ImageURL != nil {
		v.maxLen("image_url", *p.ImageURL, 2048)
	}
	return v.err()
}

var newsResource = authz.ContentResource(model.KindNews)

// ListNews returns news items, most recently published first.
func (s *Store) ListNews(ctx context.Context, caller authz.Caller, p ListParams) ([]model.NewsItem, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, newsResource); err != nil {
		return nil, err
	}
	p = p.normalize()
	items, err := newQueries(s.db).listNews(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, mapDBError(err, "listing news")
	}
	return items, nil
}

// GetNews returns a news item by id.
func (s *Store) GetNews(ctx context.Context, caller authz.Caller, id string) (model.NewsItem, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, newsResource); err != nil {
		return model.NewsItem{}, err
	}
	n, err := newQueries(s.db).getNews(ctx, id)
	if err != nil {
		return model.NewsItem{}, mapDBError(err, "getting news")
	}
	return n, nil
}

// CreateNews inserts a news item authored by the caller.
func (s *Store) CreateNews(ctx context.Context, caller authz.Caller, arg NewsParams) (model.NewsItem, error) {
	if err := s.authorize(ctx, caller, authz.OpInsert, newsResource); err != nil {
		return model.NewsItem{}, err
	}
	arg.normalize()
	if err := arg.validate(); err != nil {
		return model.NewsItem{}, err
	}

	now := s.now()
	n := model.NewsItem{
		ID:          s.newID(),
		Title:       arg.Title,
		Content:     arg.Content,
		ImageURL:    arg.ImageURL,
		PublishedAt: now,
		CreatedBy:   creator(caller),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if arg.PublishedAt != nil {
		n.PublishedAt = arg.PublishedAt.UTC()
	}
	if err := newQueries(s.db).insertNews(ctx, n); err != nil {
		return model.NewsItem{}, mapDBError(err, "creating news")
	}
	return n, nil
}

// UpdateNews replaces the editable fields of a news item.
func (s *Store) UpdateNews(ctx context.Context, caller authz.Caller, id string, arg NewsParams) (model.NewsItem, error) {
	if err := s.authorize(ctx, caller, authz.OpUpdate, newsResource); err != nil {
		return model.NewsItem{}, err
	}
	arg.normalize()
	if err := arg.validate(); err != nil {
		return model.NewsItem{}, err
	}

	var out model.NewsItem
	err := withTx(ctx, s.db, func(q *queries) error {
		cur, err := q.getNews(ctx, id)
		if err != nil {
			return err
		}
		cur.Title = arg.Title
		cur.Content = arg.Content
		cur.ImageURL = arg.ImageURL
		if arg.PublishedAt != nil {
			cur.PublishedAt = arg.PublishedAt.UTC()
		}
		cur.UpdatedAt = s.nextUpdatedAt(cur.UpdatedAt)
		if err := q.updateNews(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return model.NewsItem{}, mapDBError(err, "updating news")
	}
	return out, nil
}

// DeleteNews removes a news item.
func (s *Store) DeleteNews(ctx context.Context, caller authz.Caller, id string) error {
	if err := s.authorize(ctx, caller, authz.OpDelete, newsResource); err != nil {
		return err
	}
	n, err := newQueries(s.db).deleteRow(ctx, "news", id)
	if err != nil {
		return mapDBError(err, "deleting news")
	}
	if n == 0 {
		return fmt.Errorf("deleting news: %w", ErrNotFound)
	}
	return nil
}

const newsColumns = `id, title, content, image_url, published_at, created_by, created_at, updated_at`

func scanNews(row rowScanner) (model.NewsItem, error) {
	var (
		n         model.NewsItem
		imageURL  sql.NullString
		createdBy sql.NullString
	)
	err := row.Scan(&n.ID, &n.Title, &n.Content, &imageURL, &n.PublishedAt, &createdBy, &n.CreatedAt, &n.UpdatedAt)
	n.ImageURL = stringPtr(imageURL)
	n.CreatedBy = stringPtr(createdBy)
	return n, err
}

func (q *queries) listNews(ctx context.Context, limit, offset int) ([]model.NewsItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news ORDER BY published_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.NewsItem
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (q *queries) getNews(ctx context.Context, id string) (model.NewsItem, error) {
	return scanNews(q.db.QueryRowContext(ctx, `SELECT `+newsColumns+` FROM news WHERE id = ?`, id))
}

func (q *queries) insertNews(ctx context.Context, n model.NewsItem) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO news (`+newsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Content, nullString(n.ImageURL), n.PublishedAt,
		nullString(n.CreatedBy), n.CreatedAt, n.UpdatedAt,
	)
	return err
}

func (q *queries) updateNews(ctx context.Context, n model.NewsItem) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE news SET title = ?, content = ?, image_url = ?, published_at = ?, updated_at = ? WHERE id = ?`,
		n.Title, n.Content, nullString(n.ImageURL), n.PublishedAt, n.UpdatedAt, n.ID,
	)
	return err
}

// creator returns the created_by value for rows written by caller.
func creator(caller authz.Caller) *string {
	if !caller.Authenticated() {
		return nil
	}
	id := caller.IdentityID
	return &id
}

// trimOptional trims p and maps blank strings to nil.
func trimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}
