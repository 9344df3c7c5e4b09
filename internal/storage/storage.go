// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package storage keeps uploaded binary objects in per-bucket directories
// under the uploads root. Access is checked against the bucket policies of
// the same evaluator that guards the database. Object bytes are stored
// exactly as received.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/model"
	"github.com/olegiv/portal/internal/util"
)

// URLPrefix is the public path under which objects are served.
const URLPrefix = "/storage/"

var (
	// ErrAccessDenied is returned when the bucket policy denies the caller.
	ErrAccessDenied = fmt.Errorf("storage: %w", authz.ErrDenied)
	// ErrNotFound is returned for missing objects.
	ErrNotFound = errors.New("storage: object not found")
	// ErrUnknownBucket is returned for bucket names outside model.Buckets.
	ErrUnknownBucket = errors.New("storage: unknown bucket")
	// ErrInvalidName is returned for object names that could escape the bucket.
	ErrInvalidName = errors.New("storage: invalid object name")
)

// Authorizer is the policy check used for bucket access.
type Authorizer interface {
	Authorize(ctx context.Context, caller authz.Caller, op authz.Op, r authz.Resource) error
}

// Object describes a stored object.
type Object struct {
	Bucket      model.Bucket `json:"bucket"`
	Name        string       `json:"name"`
	Size        int64        `json:"size"`
	ContentType string       `json:"content_type"`
	ModTime     time.Time    `json:"modified_at"`
	URL         string       `json:"url"`
}

// Store is a filesystem-backed object store.
type Store struct {
	root   string
	authz  Authorizer
	logger *slog.Logger
	newID  func() string
}

// New creates the bucket directories under root.
func New(root string, az Authorizer, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving uploads dir: %w", err)
	}
	for _, b := range model.Buckets {
		if err := os.MkdirAll(filepath.Join(abs, string(b)), 0o755); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", b, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		root:   abs,
		authz:  az,
		logger: logger,
		newID:  uuid.NewString,
	}, nil
}

// URL returns the public URL of an object.
func URL(bucket model.Bucket, name string) string {
	return URLPrefix + string(bucket) + "/" + name
}

// ParseURL splits a public object URL into bucket and name.
func ParseURL(u string) (model.Bucket, string, bool) {
	rest, ok := strings.CutPrefix(u, URLPrefix)
	if !ok {
		return "", "", false
	}
	b, name, ok := strings.Cut(rest, "/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	bucket, ok := model.ParseBucket(b)
	if !ok {
		return "", "", false
	}
	return bucket, name, true
}

// Put stores r as a new object named "<uuid>-<slug of filename>".
func (s *Store) Put(ctx context.Context, caller authz.Caller, bucket model.Bucket, filename, contentType string, r io.Reader) (Object, error) {
	if err := s.check(ctx, caller, authz.OpInsert, bucket); err != nil {
		return Object{}, err
	}

	name := s.newID() + "-" + util.SlugifyFilename(filename)
	dst, err := s.objectPath(bucket, name)
	if err != nil {
		return Object{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	size, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return Object{}, fmt.Errorf("writing object: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return Object{}, fmt.Errorf("setting object permissions: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return Object{}, fmt.Errorf("storing object: %w", err)
	}

	if contentType == "" {
		contentType = contentTypeOf(name)
	}
	s.logger.Info("object stored", "bucket", bucket, "name", name, "size", size, "caller", caller.String())

	return Object{
		Bucket:      bucket,
		Name:        name,
		Size:        size,
		ContentType: contentType,
		ModTime:     time.Now().UTC(),
		URL:         URL(bucket, name),
	}, nil
}

// Open returns the object's content. The caller must close it.
func (s *Store) Open(ctx context.Context, caller authz.Caller, bucket model.Bucket, name string) (*os.File, Object, error) {
	if err := s.check(ctx, caller, authz.OpSelect, bucket); err != nil {
		return nil, Object{}, err
	}
	p, err := s.objectPath(bucket, name)
	if err != nil {
		return nil, Object{}, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, ErrNotFound
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("opening object: %w", err)
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, Object{}, ErrNotFound
	}
	return f, objectFromInfo(bucket, info), nil
}

// Delete removes an object. Authorization is checked before existence.
func (s *Store) Delete(ctx context.Context, caller authz.Caller, bucket model.Bucket, name string) error {
	if err := s.check(ctx, caller, authz.OpDelete, bucket); err != nil {
		return err
	}
	p, err := s.objectPath(bucket, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting object: %w", err)
	}
	s.logger.Info("object deleted", "bucket", bucket, "name", name, "caller", caller.String())
	return nil
}

// List returns the bucket's objects sorted by name.
func (s *Store) List(ctx context.Context, caller authz.Caller, bucket model.Bucket) ([]Object, error) {
	if err := s.check(ctx, caller, authz.OpSelect, bucket); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, string(bucket)))
	if err != nil {
		return nil, fmt.Errorf("listing bucket %s: %w", bucket, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, objectFromInfo(bucket, info))
	}
	slices.SortFunc(objects, func(a, b Object) int { return strings.Compare(a.Name, b.Name) })
	return objects, nil
}

func (s *Store) check(ctx context.Context, caller authz.Caller, op authz.Op, bucket model.Bucket) error {
	if _, ok := model.ParseBucket(string(bucket)); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	if err := s.authz.Authorize(ctx, caller, op, authz.BucketResource(bucket)); err != nil {
		if errors.Is(err, authz.ErrDenied) {
			return fmt.Errorf("%w: %s on %s", ErrAccessDenied, op, bucket)
		}
		return err
	}
	return nil
}

func (s *Store) objectPath(bucket model.Bucket, name string) (string, error) {
	if name == "" || strings.HasPrefix(name, ".") || path.Base(name) != name {
		return "", ErrInvalidName
	}
	p, err := util.SafeJoinPath(s.root, string(bucket), name)
	if err != nil {
		return "", ErrInvalidName
	}
	return p, nil
}

func objectFromInfo(bucket model.Bucket, info fs.FileInfo) Object {
	return Object{
		Bucket:      bucket,
		Name:        info.Name(),
		Size:        info.Size(),
		ContentType: contentTypeOf(info.Name()),
		ModTime:     info.ModTime().UTC(),
		URL:         URL(bucket, info.Name()),
	}
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
