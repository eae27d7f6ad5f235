// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"quizbank/internal/models"
	"quizbank/internal/qbank"
)

// CapabilityStore resolves capabilities from role assignments. It
// implements qbank.Authorizer.
type CapabilityStore struct {
	db       *sql.DB
	contexts *ContextStore
}

// NewCapabilityStore returns a new CapabilityStore.
func NewCapabilityStore(db *sql.DB) *CapabilityStore {
	return &CapabilityStore{db: db, contexts: NewContextStore(db)}
}

var _ qbank.Authorizer = (*CapabilityStore)(nil)

// HasCapability reports whether p holds capability in contextID. Site
// admins hold every capability. Other users hold it when a role assigned
// to them in the context, or in one of its parents, grants it.
func (s *CapabilityStore) HasCapability(ctx context.Context, p qbank.Principal, capability models.Capability, contextID int64) (bool, error) {
	if p.IsSiteAdmin() {
		return true, nil
	}

	chain, err := s.contexts.Ancestors(ctx, contextID)
	if err != nil {
		return false, err
	}
	if len(chain) == 0 {
		return false, nil
	}

	var ok bool
	err = s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM role_assignments ra
			JOIN role_capabilities rc ON rc.role = ra.role
			WHERE ra.user_id = $1
			  AND rc.capability = $2
			  AND ra.context_id = ANY($3)
		)
	`, p.UserID, capability, chain).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check capability: %w", err)
	}
	return ok, nil
}
