// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
)

func TestParseNewsForm(t *testing.T) {
	p, err := parseNewsForm(url.Values{
		"title":        {"Sports day"},
		"content":      {"Bring water"},
		"image_url":    {"   "},
		"published_at": {"2026-09-01T08:00"},
	})
	if err != nil {
		t.Fatalf("parseNewsForm: %v", err)
	}
	if p.ImageURL != nil {
		t.Errorf("blank image_url = %q; want nil", *p.ImageURL)
	}
	if p.PublishedAt == nil || !p.PublishedAt.Equal(time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", p.PublishedAt)
	}

	p, err = parseNewsForm(url.Values{"title": {"x"}, "content": {"y"}})
	if err != nil {
		t.Fatalf("parseNewsForm without date: %v", err)
	}
	if p.PublishedAt != nil {
		t.Errorf("PublishedAt = %v; want nil so the store stamps now", p.PublishedAt)
	}

	_, err = parseNewsForm(url.Values{"published_at": {"01/09/2026"}})
	if !errors.Is(err, store.ErrValidation) || fieldErrors(err)["published_at"] == "" {
		t.Errorf("bad date error = %v", err)
	}
}

func TestParseStaffForm(t *testing.T) {
	p := parseStaffForm(url.Values{
		"full_name":  {"Grace Hopper"},
		"position":   {"Principal"},
		"department": {" Computing "},
		"phone":      {""},
	})
	if p.FullName != "Grace Hopper" || p.Position != "Principal" {
		t.Errorf("params = %+v", p)
	}
	if p.Department == nil || *p.Department != "Computing" {
		t.Errorf("Department = %v", p.Department)
	}
	if p.Phone != nil || p.Email != nil || p.Bio != nil {
		t.Error("blank optional fields should be nil")
	}
}

func TestParseActivityForm(t *testing.T) {
	p, err := parseActivityForm(url.Values{
		"title":         {"Concert"},
		"description":   {"Choir"},
		"activity_date": {"2026-12-20T18:30"},
	})
	if err != nil {
		t.Fatalf("parseActivityForm: %v", err)
	}
	if !p.ActivityDate.Equal(time.Date(2026, 12, 20, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("ActivityDate = %v", p.ActivityDate)
	}

	// A missing date parses to zero and is left to store validation.
	p, err = parseActivityForm(url.Values{"title": {"x"}})
	if err != nil || !p.ActivityDate.IsZero() {
		t.Errorf("missing date: %v, %v", p.ActivityDate, err)
	}

	if _, err := parseActivityForm(url.Values{"activity_date": {"soon"}}); !errors.Is(err, store.ErrValidation) {
		t.Errorf("bad date error = %v", err)
	}
}

func TestBuildFieldsRoundTrip(t *testing.T) {
	loc := "Gym"
	a := model.Activity{
		Title:        "Basketball",
		Description:  "Finals",
		ActivityDate: time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC),
		Location:     &loc,
	}
	fields := buildFields(model.KindActivities, activityValues(a))

	form := url.Values{}
	for _, f := range fields {
		form.Set(f.Name, f.Value)
	}
	p, err := parseActivityForm(form)
	if err != nil {
		t.Fatalf("parseActivityForm: %v", err)
	}
	if p.Title != a.Title || !p.ActivityDate.Equal(a.ActivityDate) || p.Location == nil || *p.Location != loc {
		t.Errorf("round trip = %+v", p)
	}
}
