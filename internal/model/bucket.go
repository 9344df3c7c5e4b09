// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Bucket is a named partition of uploaded binary objects.
type Bucket string

// Storage buckets, one per content kind.
const (
	BucketNewsImages     Bucket = "news-images"
	BucketStaffImages    Bucket = "staff-images"
	BucketActivityImages Bucket = "activity-images"
)

// Buckets lists every storage bucket.
var Buckets = []Bucket{BucketNewsImages, BucketStaffImages, BucketActivityImages}

// ParseBucket validates a bucket name taken from a URL.
func ParseBucket(s string) (Bucket, bool) {
	for _, b := range Buckets {
		if string(b) == s {
			return b, true
		}
	}
	return "", false
}
