// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Category is a question category. Categories form a tree per context,
// rooted at the context's top category (ParentID == 0).
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Info      string    `json:"info"`
	ContextID int64     `json:"context_id"`
	ParentID  int64     `json:"parent_id"`
	SortOrder int       `json:"sort_order"`
	Stamp     string    `json:"stamp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Virtual field populated by store methods.
	QuestionCount int `json:"question_count"`
}

// TopCategoryName is the stored name of every top category. Display code
// replaces it with a context-qualified label.
const TopCategoryName = "top"

// IsTop reports whether c is its context's top category.
func (c *Category) IsTop() bool {
	return c.ParentID == 0
}
