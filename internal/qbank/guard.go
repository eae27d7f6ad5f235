// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package qbank

import (
	"context"
	"errors"

	"quizbank/internal/models"
)

// CategoryReader is the read access the guard and pruner need.
// FindByID returns (nil, nil) when the category does not exist.
type CategoryReader interface {
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	CountChildren(ctx context.Context, parentID int64) (int, error)
}

// Guard decides whether a category may be deleted.
type Guard struct {
	categories CategoryReader
}

// NewGuard returns a Guard reading categories from r.
func NewGuard(r CategoryReader) *Guard {
	return &Guard{categories: r}
}

// CanDelete returns nil when p may delete the category. Checks run in a
// fixed order and the first failure is returned: top category, only child
// of top with its own subcategories, then question:managecategory in the
// category's context.
func (g *Guard) CanDelete(ctx context.Context, auth Authorizer, p Principal, categoryID int64) error {
	cat, err := g.categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return policyError(ErrCategoryNotFound, MsgUnknownCategory, categoryID)
	}

	if cat.IsTop() {
		return policyError(ErrTopCategoryProtected, MsgCannotDeleteTopCat, categoryID)
	}

	onlyChild, err := g.isOnlyChildWithChildren(ctx, cat)
	if err != nil {
		return err
	}
	if onlyChild {
		return policyError(ErrOnlyChildProtected, MsgCannotDeleteCat, categoryID)
	}

	if err := RequireCapability(ctx, auth, p, models.CapManageCategory, cat.ContextID); err != nil {
		var pe *PolicyError
		if errors.As(err, &pe) {
			pe.CategoryID = categoryID
		}
		return err
	}
	return nil
}

// isOnlyChildWithChildren reports whether cat is the single child of its
// context's top category and has at least one child of its own.
func (g *Guard) isOnlyChildWithChildren(ctx context.Context, cat *models.Category) (bool, error) {
	parent, err := g.categories.FindByID(ctx, cat.ParentID)
	if err != nil {
		return false, err
	}
	if parent == nil || !parent.IsTop() || parent.ContextID != cat.ContextID {
		return false, nil
	}

	siblings, err := g.categories.CountChildren(ctx, parent.ID)
	if err != nil {
		return false, err
	}
	if siblings != 1 {
		return false, nil
	}

	children, err := g.categories.CountChildren(ctx, cat.ID)
	if err != nil {
		return false, err
	}
	return children > 0, nil
}
