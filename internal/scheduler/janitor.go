// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/storage"
)

// JanitorJobName is the scheduler name of the storage janitor.
const JanitorJobName = "storage-janitor"

// References resolves the janitor identity and the object URLs still in use.
type References interface {
	GetIdentityByEmail(ctx context.Context, email string) (model.Identity, error)
	ReferencedURLs(ctx context.Context, caller authz.Caller) (map[string]struct{}, error)
}

// Objects lists and deletes stored objects on behalf of a caller.
type Objects interface {
	List(ctx context.Context, caller authz.Caller, bucket model.Bucket) ([]storage.Object, error)
	Delete(ctx context.Context, caller authz.Caller, bucket model.Bucket, name string) error
}

// JanitorConfig configures a Janitor.
type JanitorConfig struct {
	// IdentityEmail is the identity the janitor acts as. Its deletes pass
	// through bucket authorization like any other caller's.
	IdentityEmail string
	// GracePeriod protects objects uploaded recently but not yet saved on a row.
	GracePeriod time.Duration
	// Observe, if set, receives the outcome of every run.
	Observe func(deleted int, err error)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Janitor deletes stored objects that no row references.
type Janitor struct {
	refs    References
	objects Objects
	cfg     JanitorConfig
	logger  *slog.Logger
}

// NewJanitor creates a storage janitor.
func NewJanitor(refs References, objects Objects, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{refs: refs, objects: objects, cfg: cfg, logger: logger}
}

// Run performs one sweep and returns the number of deleted objects. A denied
// delete stops the sweep: the identity lacks the rights for every bucket.
func (j *Janitor) Run(ctx context.Context) (deleted int, err error) {
	defer func() {
		if j.cfg.Observe != nil {
			j.cfg.Observe(deleted, err)
		}
	}()

	ident, err := j.refs.GetIdentityByEmail(ctx, j.cfg.IdentityEmail)
	if err != nil {
		return 0, fmt.Errorf("resolving janitor identity %q: %w", j.cfg.IdentityEmail, err)
	}
	caller := authz.AsIdentity(ident.ID)

	refs, err := j.refs.ReferencedURLs(ctx, caller)
	if err != nil {
		return 0, fmt.Errorf("loading referenced urls: %w", err)
	}
	keep := make(map[string]struct{}, len(refs))
	for ref := range refs {
		if key, ok := objectKey(ref); ok {
			keep[key] = struct{}{}
		}
	}

	cutoff := j.cfg.Now().Add(-j.cfg.GracePeriod)
	var errs []error
	for _, bucket := range model.Buckets {
		objects, err := j.objects.List(ctx, caller, bucket)
		if err != nil {
			errs = append(errs, fmt.Errorf("listing %s: %w", bucket, err))
			continue
		}
		for _, obj := range objects {
			if _, used := keep[storage.URL(obj.Bucket, obj.Name)]; used || obj.ModTime.After(cutoff) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return deleted, err
			}
			if err := j.objects.Delete(ctx, caller, bucket, obj.Name); err != nil {
				if errors.Is(err, authz.ErrDenied) {
					j.logger.Warn("janitor delete denied", "identity", j.cfg.IdentityEmail, "bucket", bucket, "name", obj.Name)
					return deleted, err
				}
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				errs = append(errs, fmt.Errorf("deleting %s/%s: %w", bucket, obj.Name, err))
				continue
			}
			deleted++
			j.logger.Info("deleted orphaned object", "bucket", bucket, "name", obj.Name, "size", obj.Size)
		}
	}

	err = errors.Join(errs...)
	j.logger.Info("storage janitor finished", "deleted", deleted, "errors", len(errs))
	return deleted, err
}

// Job adapts Run to the scheduler.
func (j *Janitor) Job(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// objectKey normalizes an absolute or relative object URL to its path form.
func objectKey(ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	bucket, name, ok := storage.ParseURL(u.Path)
	if !ok {
		return "", false
	}
	return storage.URL(bucket, name), true
}
