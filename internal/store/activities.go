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

// ActivityParams holds the editable activity fields.
type ActivityParams struct {
	Title        string
	Description  string
	ActivityDate time.Time
	Location     *string
	ImageURL     *string
}

func (p *ActivityParams) normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Location = trimOptional(p.Location)
	p.ImageURL = trimOptional(p.ImageURL)
}

func (p ActivityParams) validate() error {
	v := validator{}
	v.required("title", p.Title)
	v.maxLen("title", p.Title, 200)
	v.required("description", p.Description)
	v.check(!p.ActivityDate.IsZero(), "activity_date", "is required")
	return v.err()
}

var activitiesResource = authz.ContentResource(model.KindActivities)

// ListActivities returns activities ordered by date, soonest first.
func (s *Store) ListActivities(ctx context.Context, caller authz.Caller, p ListParams) ([]model.Activity, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, activitiesResource); err != nil {
		return nil, err
	}
	p = p.normalize()
	items, err := newQueries(s.db).listActivities(ctx, time.Time{}, p.Limit, p.Offset)
	if err != nil {
		return nil, mapDBError(err, "listing activities")
	}
	return items, nil
}

// ListUpcomingActivities returns activities on or after from.
func (s *Store) ListUpcomingActivities(ctx context.Context, caller authz.Caller, from time.Time, limit int) ([]model.Activity, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, activitiesResource); err != nil {
		return nil, err
	}
	p := ListParams{Limit: limit}.normalize()
	items, err := newQueries(s.db).listActivities(ctx, from.UTC(), p.Limit, 0)
	if err != nil {
		return nil, mapDBError(err, "listing upcoming activities")
	}
	return items, nil
}

// GetActivity returns an activity by id.
func (s *Store) GetActivity(ctx context.Context, caller authz.Caller, id string) (model.Activity, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, activitiesResource); err != nil {
		return model.Activity{}, err
	}
	a, err := newQueries(s.db).getActivity(ctx, id)
	if err != nil {
		return model.Activity{}, mapDBError(err, "getting activity")
	}
	return a, nil
}

// CreateActivity inserts an activity.
func (s *Store) CreateActivity(ctx context.Context, caller authz.Caller, arg ActivityParams) (model.Activity, error) {
	if err := s.authorize(ctx, caller, authz.OpInsert, activitiesResource); err != nil {
		return model.Activity{}, err
	}
	arg.normalize()
	if err := arg.validate(); err != nil {
		return model.Activity{}, err
	}

	now := s.now()
	a := model.Activity{
		ID:           s.newID(),
		Title:        arg.Title,
		Description:  arg.Description,
		ActivityDate: arg.ActivityDate.UTC(),
		Location:     arg.Location,
		ImageURL:     arg.ImageURL,
		CreatedBy:    creator(caller),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := newQueries(s.db).insertActivity(ctx, a); err != nil {
		return model.Activity{}, mapDBError(err, "creating activity")
	}
	return a, nil
}

// UpdateActivity replaces the editable fields of an activity.
func (s *Store) UpdateActivity(ctx context.Context, caller authz.Caller, id string, arg ActivityParams) (model.Activity, error) {
	if err := s.authorize(ctx, caller, authz.OpUpdate, activitiesResource); err != nil {
		return model.Activity{}, err
	}
	arg.normalize()
	if err := arg.validate(); err != nil {
		return model.Activity{}, err
	}

	var out model.Activity
	err := withTx(ctx, s.db, func(q *queries) error {
		cur, err := q.getActivity(ctx, id)
		if err != nil {
			return err
		}
		cur.Title = arg.Title
		cur.Description = arg.Description
		cur.ActivityDate = arg.ActivityDate.UTC()
		cur.Location = arg.Location
		cur.ImageURL = arg.ImageURL
		cur.UpdatedAt = s.nextUpdatedAt(cur.UpdatedAt)
		if err := q.updateActivity(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return model.Activity{}, mapDBError(err, "updating activity")
	}
	return out, nil
}

// DeleteActivity removes an activity.
func (s *Store) DeleteActivity(ctx context.Context, caller authz.Caller, id string) error {
	if err := s.authorize(ctx, caller, authz.OpDelete, activitiesResource); err != nil {
		return err
	}
	n, err := newQueries(s.db).deleteRow(ctx, "activities", id)
	if err != nil {
		return mapDBError(err, "deleting activity")
	}
	if n == 0 {
		return fmt.Errorf("deleting activity: %w", ErrNotFound)
	}
	return nil
}

const activityColumns = `id, title, description, activity_date, location, image_url, created_by, created_at, updated_at`

func scanActivity(row rowScanner) (model.Activity, error) {
	var (
		a                       model.Activity
		location, imageURL, by sql.NullString
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.ActivityDate, &location,
		&imageURL, &by, &a.CreatedAt, &a.UpdatedAt)
	a.Location = stringPtr(location)
	a.ImageURL = stringPtr(imageURL)
	a.CreatedBy = stringPtr(by)
	return a, err
}

func (q *queries) listActivities(ctx context.Context, from time.Time, limit, offset int) ([]model.Activity, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if from.IsZero() {
		rows, err = q.db.QueryContext(ctx,
			`SELECT `+activityColumns+` FROM activities ORDER BY activity_date, id LIMIT ? OFFSET ?`,
			limit, offset)
	} else {
		rows, err = q.db.QueryContext(ctx,
			`SELECT `+activityColumns+` FROM activities WHERE activity_date >= ? ORDER BY activity_date, id LIMIT ? OFFSET ?`,
			from, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (q *queries) getActivity(ctx context.Context, id string) (model.Activity, error) {
	return scanActivity(q.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))
}

func (q *queries) insertActivity(ctx context.Context, a model.Activity) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO activities (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, a.ActivityDate, nullString(a.Location),
		nullString(a.ImageURL), nullString(a.CreatedBy), a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (q *queries) updateActivity(ctx context.Context, a model.Activity) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE activities SET title = ?, description = ?, activity_date = ?, location = ?,
		image_url = ?, updated_at = ? WHERE id = ?`,
		a.Title, a.Description, a.ActivityDate, nullString(a.Location),
		nullString(a.ImageURL), a.UpdatedAt, a.ID,
	)
	return err
}
