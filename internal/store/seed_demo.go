// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
)

// Demo mode credentials
const (
	DemoAdminEmail    = "demo@example.com"
	DemoAdminPassword = "demo1234demo"
	DemoAdminName     = "Demo Admin"

	DemoUserEmail    = "visitor@example.com"
	DemoUserPassword = "demo1234demo"
	DemoUserName     = "Demo Visitor"
)

// SeedDemo creates demo accounts and sample content. Content is written
// through the guarded methods as the demo admin. Running it twice is a no-op.
func (s *Store) SeedDemo(ctx context.Context) error {
	if _, err := s.GetIdentityByEmail(ctx, DemoAdminEmail); err == nil {
		s.logger.Info("demo content already exists, skipping")
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("checking demo admin: %w", err)
	}

	s.logger.Info("seeding demo content")

	admin, err := s.seedDemoIdentity(ctx, DemoAdminEmail, DemoAdminPassword, DemoAdminName)
	if err != nil {
		return err
	}
	if _, err := s.GrantAdmin(ctx, admin.Email); err != nil {
		return fmt.Errorf("granting demo admin: %w", err)
	}
	caller := authz.AsIdentity(admin.ID)

	if _, err := s.seedDemoIdentity(ctx, DemoUserEmail, DemoUserPassword, DemoUserName); err != nil {
		return err
	}

	base := s.now().Truncate(24 * time.Hour)

	for i, n := range demoNews() {
		n.PublishedAt = ptr(base.Add(-time.Duration(i) * 72 * time.Hour))
		if _, err := s.CreateNews(ctx, caller, n); err != nil {
			return fmt.Errorf("seeding news %q: %w", n.Title, err)
		}
	}
	for _, m := range demoStaff() {
		if _, err := s.CreateStaff(ctx, caller, m); err != nil {
			return fmt.Errorf("seeding staff %q: %w", m.FullName, err)
		}
	}
	for i, a := range demoActivities() {
		a.ActivityDate = base.Add(time.Duration(i*7+3)*24*time.Hour + 18*time.Hour)
		if _, err := s.CreateActivity(ctx, caller, a); err != nil {
			return fmt.Errorf("seeding activity %q: %w", a.Title, err)
		}
	}

	s.logger.Info("demo content seeded",
		"admin_email", DemoAdminEmail,
		"user_email", DemoUserEmail,
		"password", DemoAdminPassword,
	)
	return nil
}

func (s *Store) seedDemoIdentity(ctx context.Context, email, password, name string) (model.Identity, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.Identity{}, fmt.Errorf("hashing password for %s: %w", email, err)
	}
	ident, err := s.CreateIdentity(ctx, CreateIdentityParams{
		Email:        email,
		PasswordHash: hash,
		FullName:     name,
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("creating %s: %w", email, err)
	}
	return ident, nil
}

func ptr[T any](v T) *T {
	return &v
}

func demoNews() []NewsParams {
	return []NewsParams{
		{
			Title: "New community garden opens",
			Content: "The garden behind the main building is open to everyone.\n\n" +
				"Plots can be reserved at the front desk. Tools are provided.",
		},
		{
			Title: "Library hours extended",
			Content: "Starting this month the library stays open until **9 pm** on weekdays.\n\n" +
				"Weekend hours are unchanged.",
		},
		{
			Title:   "Annual report published",
			Content: "The annual report is now available. Highlights:\n\n- 40 events held\n- 12 new volunteers\n- 3 partner organisations",
		},
	}
}

func demoStaff() []StaffParams {
	return []StaffParams{
		{
			FullName:   "Anna Petrova",
			Position:   "Director",
			Department: ptr("Administration"),
			Email:      ptr("anna.petrova@example.com"),
			Bio:        ptr("Anna has led the centre since 2015."),
		},
		{
			FullName:   "James Miller",
			Position:   "Program Coordinator",
			Department: ptr("Programs"),
			Phone:      ptr("+1 555 0100"),
		},
		{
			FullName: "Olga Sidorova",
			Position: "Librarian",
			Bio:      ptr("Ask Olga about the local history collection."),
		},
	}
}

func demoActivities() []ActivityParams {
	return []ActivityParams{
		{
			Title:       "Open house",
			Description: "Meet the team and tour the building.",
			Location:    ptr("Main hall"),
		},
		{
			Title:       "Chess evening",
			Description: "Casual games for all levels. Boards provided.",
			Location:    ptr("Room 2"),
		},
		{
			Title:       "Gardening workshop",
			Description: "Seasonal planting tips from local growers.",
			Location:    ptr("Community garden"),
		},
	}
}
