// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Kind names one of the three managed content types.
type Kind string

// Content kinds.
const (
	KindNews       Kind = "news"
	KindStaff      Kind = "staff"
	KindActivities Kind = "activities"
)

// Kinds lists content kinds in admin tab order.
var Kinds = []Kind{KindNews, KindStaff, KindActivities}

// ParseKind parses a kind name as used in URLs.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Bucket returns the storage partition holding images for this kind.
func (k Kind) Bucket() Bucket {
	switch k {
	case KindNews:
		return BucketNewsImages
	case KindStaff:
		return BucketStaffImages
	default:
		return BucketActivityImages
	}
}

// NewsItem is a published news article.
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ImageURL    *string   `json:"image_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	CreatedBy   *string   `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StaffMember is an entry in the staff directory.
type StaffMember struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Position   string    `json:"position"`
	Department *string   `json:"department,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	ImageURL   *string   `json:"image_url,omitempty"`
	Bio        *string   `json:"bio,omitempty"`
	CreatedBy  *string   `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Activity is a scheduled event.
type Activity struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ActivityDate time.Time `json:"activity_date"`
	Location     *string   `json:"location,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	CreatedBy    *string   `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsUpcoming reports whether the activity is scheduled at or after now.
func (a *Activity) IsUpcoming(now time.Time) bool {
	return !a.ActivityDate.Before(now)
}
