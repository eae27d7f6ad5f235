// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package qbank

import (
	"errors"
	"fmt"

	"quizbank/internal/models"
)

// Policy failure kinds. PolicyError unwraps to one of these.
var (
	ErrTopCategoryProtected = errors.New("cannot delete the top category of a context")
	ErrOnlyChildProtected   = errors.New("cannot delete the only child of the top category while it has subcategories")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrCategoryNotFound     = errors.New("category not found")
)

// Message keys shown to users for each failure kind.
const (
	MsgCannotDeleteTopCat = "cannotdeletetopcat"
	MsgCannotDeleteCat    = "cannotdeletecate"
	MsgNoPermissions      = "nopermissions"
	MsgUnknownCategory    = "unknowncategory"
)

// PolicyError is a definitive policy decision. It is never retried.
type PolicyError struct {
	Kind       error
	MessageKey string
	CategoryID int64

	// Capability is set for permission failures.
	Capability models.Capability
}

func (e *PolicyError) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("category %d: %v (requires %s)", e.CategoryID, e.Kind, e.Capability)
	}
	return fmt.Sprintf("category %d: %v", e.CategoryID, e.Kind)
}

func (e *PolicyError) Unwrap() error {
	return e.Kind
}

func policyError(kind error, key string, categoryID int64) *PolicyError {
	return &PolicyError{Kind: kind, MessageKey: key, CategoryID: categoryID}
}
