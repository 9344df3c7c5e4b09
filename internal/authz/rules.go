// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package authz

import (
	"context"
	"slices"

	"github.com/olegiv/portal/internal/model"
)

// Rule decides a request. It returns Allow, Deny, Skip (or errors wrapping
// them), nil (same as Skip), or any other error to abort evaluation.
type Rule interface {
	Eval(ctx context.Context, req Request) error
}

// RuleFunc adapts an ordinary function to a Rule.
type RuleFunc func(ctx context.Context, req Request) error

// Eval returns f(ctx, req).
func (f RuleFunc) Eval(ctx context.Context, req Request) error {
	return f(ctx, req)
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) Eval(context.Context, Request) error {
	return f.decision
}

// AlwaysAllowRule returns a rule that always allows.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always denies.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// DenyAnonymousWritesRule denies any write by a caller without an identity,
// before rules that would need a role lookup.
func DenyAnonymousWritesRule() Rule {
	return RuleFunc(func(_ context.Context, req Request) error {
		if req.Op.IsWrite() && !req.Caller.Authenticated() {
			return Denyf("anonymous %s", req.Op)
		}
		return Skip
	})
}

// AllowAuthenticatedRule allows any caller that carries an identity.
func AllowAuthenticatedRule() Rule {
	return RuleFunc(func(_ context.Context, req Request) error {
		if req.Caller.Authenticated() {
			return Allow
		}
		return Skip
	})
}

// AllowOwnerRule allows a caller whose identity equals the resource owner key.
func AllowOwnerRule() Rule {
	return RuleFunc(func(_ context.Context, req Request) error {
		if req.Caller.Authenticated() && req.Resource.Owner != "" && req.Caller.IdentityID == req.Resource.Owner {
			return Allow
		}
		return Skip
	})
}

// AllowRoleRule allows callers for which has_role(caller, role) holds.
func AllowRoleRule(checker RoleChecker, role model.Role) Rule {
	return RuleFunc(func(ctx context.Context, req Request) error {
		if !req.Caller.Authenticated() {
			return Skip
		}
		ok, err := checker.HasRole(ctx, req.Caller.IdentityID, role)
		if err != nil {
			return err
		}
		if ok {
			return Allowf("caller has role %s", role)
		}
		return Skip
	})
}

// OnOps evaluates rule only for the listed operations and skips otherwise.
func OnOps(rule Rule, ops ...Op) Rule {
	return RuleFunc(func(ctx context.Context, req Request) error {
		if slices.Contains(ops, req.Op) {
			return rule.Eval(ctx, req)
		}
		return Skip
	})
}

// Reads applies rule to select operations only.
func Reads(rule Rule) Rule {
	return OnOps(rule, OpSelect)
}

// Writes applies rule to insert, update and delete operations.
func Writes(rule Rule) Rule {
	return OnOps(rule, OpInsert, OpUpdate, OpDelete)
}
