// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/portal/internal/model"
)

// Policy is an ordered rule chain. The first decision other than Skip wins;
// an exhausted chain denies.
type Policy []Rule

// Eval evaluates the chain and returns Allow, Deny or an evaluation error.
func (p Policy) Eval(ctx context.Context, req Request) error {
	for _, rule := range p {
		switch decision := rule.Eval(ctx, req); {
		case decision == nil || errors.Is(decision, Skip):
		default:
			return decision
		}
	}
	return Deny
}

// Observer is notified of every decision. Decision is "allow", "deny" or "error".
type Observer func(resource string, op Op, decision string)

// Evaluator maps resources to policies and answers authorization requests.
type Evaluator struct {
	policies map[string]Policy
	bucket   Policy
	observer Observer
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithObserver registers a decision observer (e.g. a metrics counter).
func WithObserver(o Observer) Option {
	return func(e *Evaluator) {
		e.observer = o
	}
}

// WithLogger sets the logger used for denied decisions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// WithPolicy overrides the policy for a single resource.
func WithPolicy(resource string, p Policy) Option {
	return func(e *Evaluator) {
		e.policies[resource] = p
	}
}

// New creates an Evaluator with the site's policy table.
//
//	profiles    select: anyone; insert/update: owner only; delete: nobody
//	user_roles  select: authenticated; writes: admin
//	news, staff, activities  select: anyone; writes: admin
//	buckets     select: anyone; writes: admin
func New(checker RoleChecker, opts ...Option) *Evaluator {
	admin := AllowRoleRule(checker, model.RoleAdmin)
	content := Policy{
		DenyAnonymousWritesRule(),
		Reads(AlwaysAllowRule()),
		Writes(admin),
	}

	e := &Evaluator{
		policies: map[string]Policy{
			ResourceProfiles: {
				DenyAnonymousWritesRule(),
				Reads(AlwaysAllowRule()),
				OnOps(AlwaysDenyRule(), OpDelete),
				OnOps(AllowOwnerRule(), OpInsert, OpUpdate),
			},
			ResourceUserRoles: {
				DenyAnonymousWritesRule(),
				Reads(AllowAuthenticatedRule()),
				Writes(admin),
			},
			ResourceNews:       content,
			ResourceStaff:      content,
			ResourceActivities: content,
		},
		bucket: content,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// policyFor returns the policy guarding a resource. Unknown resources get an
// empty policy and are therefore denied.
func (e *Evaluator) policyFor(r Resource) Policy {
	if r.IsBucket() {
		return e.bucket
	}
	return e.policies[r.Name]
}

// Authorize returns nil if the caller may perform op on the resource.
// A denial is returned as an error wrapping ErrDenied; a failure while
// evaluating (e.g. the role lookup) is returned wrapped as-is.
func (e *Evaluator) Authorize(ctx context.Context, caller Caller, op Op, r Resource) error {
	req := Request{Caller: caller, Op: op, Resource: r}
	decision := e.policyFor(r).Eval(ctx, req)

	switch {
	case errors.Is(decision, Allow):
		e.observe(r, op, "allow")
		return nil
	case errors.Is(decision, Deny):
		e.observe(r, op, "deny")
		if e.logger != nil {
			e.logger.Debug("authorization denied",
				"caller", caller.String(),
				"op", op.String(),
				"resource", r.Name,
			)
		}
		return fmt.Errorf("%s on %s: %w", op, r.Name, ErrDenied)
	default:
		e.observe(r, op, "error")
		return fmt.Errorf("evaluating %s on %s: %w", op, r.Name, decision)
	}
}

// Allowed is Authorize as a boolean. Evaluation failures are returned as errors.
func (e *Evaluator) Allowed(ctx context.Context, caller Caller, op Op, r Resource) (bool, error) {
	err := e.Authorize(ctx, caller, op, r)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDenied):
		return false, nil
	default:
		return false, err
	}
}

func (e *Evaluator) observe(r Resource, op Op, decision string) {
	if e.observer == nil {
		return
	}
	name := r.Name
	if r.IsBucket() {
		name = "bucket"
	}
	e.observer(name, op, decision)
}
