// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// StaffParams holds the editable staff fields.
type StaffParams struct {
	FullName   string
	Position   string
	Department *string
	Email      *string
	Phone      *string
	ImageURL   *string
	Bio        *string
}

func (p *StaffParams) normalize() {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Position = strings.TrimSpace(p.Position)
	p.Department = trimOptional(p.Department)
	p.Email = trimOptional(p.Email)
	p.Phone = trimOptional(p.Phone)
	p.ImageURL = trimOptional(p.ImageURL)
	p.Bio = trimOptional(p.Bio)
}

func (p StaffParams) validate() error {
	v := validator{}
	v.required("full_name", p.FullName)
	v.maxLen("full_name", p.FullName, 200)
	v.required("position", p.Position)
	v.maxLen("position", p.Position, 200)
	if p.Email != nil {
		_, err := mail.ParseAddress(*p.Email)
		v.check(err == nil, "email", "is not a valid email address")
	}
	if p.Phone != nil {
		v.maxLen("phone", *p.Phone, 50)
	}
	return v.err()
}

var staffResource = authz.ContentResource(model.KindStaff)

// ListStaff returns staff members ordered by name.
func (s *Store) ListStaff(ctx context.Context, caller authz.Caller, p ListParams) ([]model.StaffMember, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, staffResource); err != nil {
		return nil, err
	}
	p = p.normalize()
	items, err := newQueries(s.db).listStaff(ctx, p.Limit, p.Offset)
	if err != nil {
		return nil, mapDBError(err, "listing staff")
	}
	return items, nil
}

// GetStaff returns a staff member by id.
func (s *Store) GetStaff(ctx context.Context, caller authz.Caller, id string) (model.StaffMember, error) {
	if err := s.authorize(ctx, caller, authz.OpSelect, staffResource); err != nil {
		return model.StaffMember{}, err
	}
	m, err := newQueries(s.db).getStaff(ctx, id)
	if err != nil {
		return model.StaffMember{}, mapDBError(err, "getting staff member")
	}
	return m, nil
}

// CreateStaff inserts a staff member.
func (s *Store) CreateStaff(ctx context.Context, caller authz.Caller, arg StaffParams) (model.StaffMember, error) {
	if err := s.authorize(ctx, caller, authz.OpInsert, staffResource); err != nil {
		return model.StaffMember{}, err
	}
	arg.normalize()
	if err := arg.validate(); err != nil {
		return model.StaffMember{}, err
	}

	now := s.now()
	m := model.StaffMember{
		ID:         s.newID(),
		FullName:   arg.FullName,
		Position:   arg.Position,
		Department: arg.Department,
		Email:      arg.Email,
		Phone:      arg.Phone,
		ImageURL:   arg.ImageURL,
		Bio:        arg.Bio,
		CreatedBy:  creator(caller),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := newQueries(s.db).insertStaff(ctx, m); err != nil {
		return model.StaffMember{}, mapDBError(err, "creating staff member")
	}
	return m, nil
}

// UpdateStaff replaces the editable fields of a staff member.
func (s *Store) UpdateStaff(ctx context.Context, caller authz.Caller, id string, arg StaffParams) (model.StaffMember, error) {
	if err := s.authorize(ctx, caller, authz.OpUpdate, staffResource); err != nil {
		return model.StaffMember{}, err
	}
	arg.normalize()
	if err := arg.validate(); err != nil {
		return model.StaffMember{}, err
	}

	var out model.StaffMember
	err := withTx(ctx, s.db, func(q *queries) error {
		cur, err := q.getStaff(ctx, id)
		if err != nil {
			return err
		}
		cur.FullName = arg.FullName
		cur.Position = arg.Position
		cur.Department = arg.Department
		cur.Email = arg.Email
		cur.Phone = arg.Phone
		cur.ImageURL = arg.ImageURL
		cur.Bio = arg.Bio
		cur.UpdatedAt = s.nextUpdatedAt(cur.UpdatedAt)
		if err := q.updateStaff(ctx, cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return model.StaffMember{}, mapDBError(err, "updating staff member")
	}
	return out, nil
}

// DeleteStaff removes a staff member.
func (s *Store) DeleteStaff(ctx context.Context, caller authz.Caller, id string) error {
	if err := s.authorize(ctx, caller, authz.OpDelete, staffResource); err != nil {
		return err
	}
	n, err := newQueries(s.db).deleteRow(ctx, "staff", id)
	if err != nil {
		return mapDBError(err, "deleting staff member")
	}
	if n == 0 {
		return fmt.Errorf("deleting staff member: %w", ErrNotFound)
	}
	return nil
}

const staffColumns = `id, full_name, position, department, email, phone, image_url, bio, created_by, created_at, updated_at`

func scanStaff(row rowScanner) (model.StaffMember, error) {
	var (
		m                                          model.StaffMember
		department, email, phone, imageURL, bio, by sql.NullString
	)
	err := row.Scan(&m.ID, &m.FullName, &m.Position, &department, &email, &phone,
		&imageURL, &bio, &by, &m.CreatedAt, &m.UpdatedAt)
	m.Department = stringPtr(department)
	m.Email = stringPtr(email)
	m.Phone = stringPtr(phone)
	m.ImageURL = stringPtr(imageURL)
	m.Bio = stringPtr(bio)
	m.CreatedBy = stringPtr(by)
	return m, err
}

func (q *queries) listStaff(ctx context.Context, limit, offset int) ([]model.StaffMember, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+staffColumns+` FROM staff ORDER BY full_name COLLATE NOCASE, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.StaffMember
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (q *queries) getStaff(ctx context.Context, id string) (model.StaffMember, error) {
	return scanStaff(q.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = ?`, id))
}

func (q *queries) insertStaff(ctx context.Context, m model.StaffMember) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO staff (`+staffColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FullName, m.Position, nullString(m.Department), nullString(m.Email),
		nullString(m.Phone), nullString(m.ImageURL), nullString(m.Bio),
		nullString(m.CreatedBy), m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (q *queries) updateStaff(ctx context.Context, m model.StaffMember) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE staff SET full_name = ?, position = ?, department = ?, email = ?, phone = ?,
		image_url = ?, bio = ?, updated_at = ? WHERE id = ?`,
		m.FullName, m.Position, nullString(m.Department), nullString(m.Email),
		nullString(m.Phone), nullString(m.ImageURL), nullString(m.Bio), m.UpdatedAt, m.ID,
	)
	return err
}
