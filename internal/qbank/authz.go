// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package qbank

import (
	"context"

	"github.com/google/uuid"

	"quizbank/internal/models"
)

// Principal is the user an operation is performed for.
type Principal struct {
	UserID uuid.UUID
	Role   models.Role
}

// IsSiteAdmin reports whether p holds every capability everywhere.
func (p Principal) IsSiteAdmin() bool {
	return p.Role == models.RoleAdmin
}

// Authorizer answers capability questions for a principal in a context.
type Authorizer interface {
	HasCapability(ctx context.Context, p Principal, capability models.Capability, contextID int64) (bool, error)
}

// RequireCapability returns a PolicyError wrapping ErrPermissionDenied when p
// lacks capability in contextID. Authorizer errors are returned unchanged.
func RequireCapability(ctx context.Context, auth Authorizer, p Principal, capability models.Capability, contextID int64) error {
	ok, err := auth.HasCapability(ctx, p, capability, contextID)
	if err != nil {
		return err
	}
	if !ok {
		return &PolicyError{
			Kind:       ErrPermissionDenied,
			MessageKey: MsgNoPermissions,
			Capability: capability,
		}
	}
	return nil
}

// ContextsHaving returns the ids of the contexts in which p holds
// capability, keeping their order.
func ContextsHaving(ctx context.Context, auth Authorizer, p Principal, capability models.Capability, contextIDs []int64) ([]int64, error) {
	var out []int64
	for _, id := range contextIDs {
		ok, err := auth.HasCapability(ctx, p, capability, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}
