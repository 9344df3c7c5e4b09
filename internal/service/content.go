// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service sits between the HTTP handlers and the guarded store. It
// caches the public content lists and drops a kind's cached lists after
// every successful write to that kind.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/cache"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
)

// Content provides cached reads and invalidating writes for news, staff
// and activities. Every call still goes through the store's policies.
type Content struct {
	store      *store.Store
	news       *cache.TypedCache[[]model.NewsItem]
	staff      *cache.TypedCache[[]model.StaffMember]
	activities *cache.TypedCache[[]model.Activity]
	logger     *slog.Logger
}

// NewContent creates a Content service caching lists in c for ttl.
func NewContent(st *store.Store, c cache.Cacher, ttl time.Duration, logger *slog.Logger) *Content {
	if logger == nil {
		logger = slog.Default()
	}
	return &Content{
		store:      st,
		news:       cache.NewTypedCache[[]model.NewsItem](c, "content:news", ttl),
		staff:      cache.NewTypedCache[[]model.StaffMember](c, "content:staff", ttl),
		activities: cache.NewTypedCache[[]model.Activity](c, "content:activities", ttl),
		logger:     logger,
	}
}

// Store returns the underlying guarded store.
func (s *Content) Store() *store.Store {
	return s.store
}

func listKey(p store.ListParams) string {
	return fmt.Sprintf("list:%d:%d", p.Limit, p.Offset)
}

// checkRead authorizes a list read before the cache is consulted, so a
// cached list is never served to a caller the policy would refuse.
func (s *Content) checkRead(ctx context.Context, caller authz.Caller, kind model.Kind) error {
	err := s.store.Authorizer().Authorize(ctx, caller, authz.OpSelect, authz.ContentResource(kind))
	if errors.Is(err, authz.ErrDenied) {
		return fmt.Errorf("%w: %w", store.ErrAccessDenied, err)
	}
	return err
}

// ListNews returns news items, most recent first.
func (s *Content) ListNews(ctx context.Context, caller authz.Caller, p store.ListParams) ([]model.NewsItem, error) {
	if err := s.checkRead(ctx, caller, model.KindNews); err != nil {
		return nil, err
	}
	return s.news.GetOrSet(ctx, listKey(p), func() ([]model.NewsItem, error) {
		return s.store.ListNews(ctx, caller, p)
	})
}

// ListStaff returns the staff directory.
func (s *Content) ListStaff(ctx context.Context, caller authz.Caller, p store.ListParams) ([]model.StaffMember, error) {
	if err := s.checkRead(ctx, caller, model.KindStaff); err != nil {
		return nil, err
	}
	return s.staff.GetOrSet(ctx, listKey(p), func() ([]model.StaffMember, error) {
		return s.store.ListStaff(ctx, caller, p)
	})
}

// ListActivities returns all activities, soonest first.
func (s *Content) ListActivities(ctx context.Context, caller authz.Caller, p store.ListParams) ([]model.Activity, error) {
	if err := s.checkRead(ctx, caller, model.KindActivities); err != nil {
		return nil, err
	}
	return s.activities.GetOrSet(ctx, listKey(p), func() ([]model.Activity, error) {
		return s.store.ListActivities(ctx, caller, p)
	})
}

// UpcomingActivities returns up to limit activities on or after from. Not cached.
func (s *Content) UpcomingActivities(ctx context.Context, caller authz.Caller, from time.Time, limit int) ([]model.Activity, error) {
	return s.store.ListUpcomingActivities(ctx, caller, from, limit)
}

// GetNews returns one news item.
func (s *Content) GetNews(ctx context.Context, caller authz.Caller, id string) (model.NewsItem, error) {
	return s.store.GetNews(ctx, caller, id)
}

// GetStaff returns one staff member.
func (s *Content) GetStaff(ctx context.Context, caller authz.Caller, id string) (model.StaffMember, error) {
	return s.store.GetStaff(ctx, caller, id)
}

// GetActivity returns one activity.
func (s *Content) GetActivity(ctx context.Context, caller authz.Caller, id string) (model.Activity, error) {
	return s.store.GetActivity(ctx, caller, id)
}

// CreateNews creates a news item.
func (s *Content) CreateNews(ctx context.Context, caller authz.Caller, p store.NewsParams) (model.NewsItem, error) {
	n, err := s.store.CreateNews(ctx, caller, p)
	return n, s.written(ctx, model.KindNews, err)
}

// UpdateNews updates a news item.
func (s *Content) UpdateNews(ctx context.Context, caller authz.Caller, id string, p store.NewsParams) (model.NewsItem, error) {
	n, err := s.store.UpdateNews(ctx, caller, id, p)
	return n, s.written(ctx, model.KindNews, err)
}

// DeleteNews deletes a news item.
func (s *Content) DeleteNews(ctx context.Context, caller authz.Caller, id string) error {
	return s.written(ctx, model.KindNews, s.store.DeleteNews(ctx, caller, id))
}

// CreateStaff creates a staff member.
func (s *Content) CreateStaff(ctx context.Context, caller authz.Caller, p store.StaffParams) (model.StaffMember, error) {
	m, err := s.store.CreateStaff(ctx, caller, p)
	return m, s.written(ctx, model.KindStaff, err)
}

// UpdateStaff updates a staff member.
func (s *Content) UpdateStaff(ctx context.Context, caller authz.Caller, id string, p store.StaffParams) (model.StaffMember, error) {
	m, err := s.store.UpdateStaff(ctx, caller, id, p)
	return m, s.written(ctx, model.KindStaff, err)
}

// DeleteStaff deletes a staff member.
func (s *Content) DeleteStaff(ctx context.Context, caller authz.Caller, id string) error {
	return s.written(ctx, model.KindStaff, s.store.DeleteStaff(ctx, caller, id))
}

// CreateActivity creates an activity.
func (s *Content) CreateActivity(ctx context.Context, caller authz.Caller, p store.ActivityParams) (model.Activity, error) {
	a, err := s.store.CreateActivity(ctx, caller, p)
	return a, s.written(ctx, model.KindActivities, err)
}

// UpdateActivity updates an activity.
func (s *Content) UpdateActivity(ctx context.Context, caller authz.Caller, id string, p store.ActivityParams) (model.Activity, error) {
	a, err := s.store.UpdateActivity(ctx, caller, id, p)
	return a, s.written(ctx, model.KindActivities, err)
}

// DeleteActivity deletes an activity.
func (s *Content) DeleteActivity(ctx context.Context, caller authz.Caller, id string) error {
	return s.written(ctx, model.KindActivities, s.store.DeleteActivity(ctx, caller, id))
}

// Invalidate drops the cached lists of kind.
func (s *Content) Invalidate(ctx context.Context, kind model.Kind) {
	var err error
	switch kind {
	case model.KindNews:
		err = s.news.Invalidate(ctx)
	case model.KindStaff:
		err = s.staff.Invalidate(ctx)
	case model.KindActivities:
		err = s.activities.Invalidate(ctx)
	}
	if err != nil {
		s.logger.Warn("cache invalidation failed", "kind", kind, "error", err)
	}
}

// written invalidates kind when the write succeeded and passes err through.
func (s *Content) written(ctx context.Context, kind model.Kind, err error) error {
	if err == nil {
		s.Invalidate(ctx, kind)
	}
	return err
}
