// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/url"
	"time"

	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/store"
	"github.com/olegiv/portal/internal/util"
)

// formTimeZone is the zone of datetime-local inputs.
var formTimeZone = time.UTC

// formField is one input of the shared admin form.
type formField struct {
	Name     string
	Label    string // i18n key
	Type     string // input type or "textarea"
	Value    string
	Required bool
}

// adminForm is the shared create/edit form of a tab.
type adminForm struct {
	Action string
	EditID string
	Fields []formField
}

// adminRow is one line of a tab's list.
type adminRow struct {
	ID       string
	Title    string
	Subtitle string
	Date     time.Time
	ImageURL string
}

// fieldSpec declares an input without its value.
type fieldSpec struct {
	name     string
	typ      string
	required bool
}

var formSpecs = map[model.Kind][]fieldSpec{
	model.KindNews: {
		{"title", "text", true},
		{"content", "textarea", true},
		{"image_url", "text", false},
		{"published_at", "datetime-local", false},
	},
	model.KindStaff: {
		{"full_name", "text", true},
		{"position", "text", true},
		{"department", "text", false},
		{"email", "email", false},
		{"phone", "tel", false},
		{"image_url", "text", false},
		{"bio", "textarea", false},
	},
	model.KindActivities: {
		{"title", "text", true},
		{"description", "textarea", true},
		{"activity_date", "datetime-local", true},
		{"location", "text", false},
		{"image_url", "text", false},
	},
}

// buildFields returns the inputs of kind filled from values.
func buildFields(kind model.Kind, values map[string]string) []formField {
	specs := formSpecs[kind]
	fields := make([]formField, 0, len(specs))
	for _, s := range specs {
		fields = append(fields, formField{
			Name:     s.name,
			Label:    "field." + s.name,
			Type:     s.typ,
			Value:    values[s.name],
			Required: s.required,
		})
	}
	return fields
}

func newsValues(n model.NewsItem) map[string]string {
	return map[string]string{
		"title":        n.Title,
		"content":      n.Content,
		"image_url":    util.Deref(n.ImageURL),
		"published_at": util.FormatFormTime(n.PublishedAt, formTimeZone),
	}
}

func staffValues(m model.StaffMember) map[string]string {
	return map[string]string{
		"full_name":  m.FullName,
		"position":   m.Position,
		"department": util.Deref(m.Department),
		"email":      util.Deref(m.Email),
		"phone":      util.Deref(m.Phone),
		"image_url":  util.Deref(m.ImageURL),
		"bio":        util.Deref(m.Bio),
	}
}

func activityValues(a model.Activity) map[string]string {
	return map[string]string{
		"title":         a.Title,
		"description":   a.Description,
		"activity_date": util.FormatFormTime(a.ActivityDate, formTimeZone),
		"location":      util.Deref(a.Location),
		"image_url":     util.Deref(a.ImageURL),
	}
}

func newsRow(n model.NewsItem) adminRow {
	return adminRow{ID: n.ID, Title: n.Title, Date: n.PublishedAt, ImageURL: util.Deref(n.ImageURL)}
}

func staffRow(m model.StaffMember) adminRow {
	sub := m.Position
	if d := util.Deref(m.Department); d != "" {
		sub += " · " + d
	}
	return adminRow{ID: m.ID, Title: m.FullName, Subtitle: sub, ImageURL: util.Deref(m.ImageURL)}
}

func activityRow(a model.Activity) adminRow {
	return adminRow{ID: a.ID, Title: a.Title, Subtitle: util.Deref(a.Location), Date: a.ActivityDate, ImageURL: util.Deref(a.ImageURL)}
}

// parseNewsForm maps a submitted form to NewsParams. A blank published_at
// keeps the store's default.
func parseNewsForm(form url.Values) (store.NewsParams, error) {
	p := store.NewsParams{
		Title:    form.Get("title"),
		Content:  form.Get("content"),
		ImageURL: util.OptionalString(form.Get("image_url")),
	}
	t, err := util.ParseFormTime(form.Get("published_at"), formTimeZone)
	if err != nil {
		return p, invalidField("published_at")
	}
	if !t.IsZero() {
		p.PublishedAt = &t
	}
	return p, nil
}

func parseStaffForm(form url.Values) store.StaffParams {
	return store.StaffParams{
		FullName:   form.Get("full_name"),
		Position:   form.Get("position"),
		Department: util.OptionalString(form.Get("department")),
		Email:      util.OptionalString(form.Get("email")),
		Phone:      util.OptionalString(form.Get("phone")),
		ImageURL:   util.OptionalString(form.Get("image_url")),
		Bio:        util.OptionalString(form.Get("bio")),
	}
}

func parseActivityForm(form url.Values) (store.ActivityParams, error) {
	p := store.ActivityParams{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		Location:    util.OptionalString(form.Get("location")),
		ImageURL:    util.OptionalString(form.Get("image_url")),
	}
	t, err := util.ParseFormTime(form.Get("activity_date"), formTimeZone)
	if err != nil {
		return p, invalidField("activity_date")
	}
	p.ActivityDate = t
	return p, nil
}

func invalidField(name string) error {
	return &store.ValidationError{Fields: map[string]string{name: "is not a valid date"}}
}
