// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ContextLevel is the kind of scope a context represents.
type ContextLevel string

const (
	ContextLevelSystem ContextLevel = "system"
	ContextLevelCourse ContextLevel = "course"
	ContextLevelModule ContextLevel = "module"
)

// Context is a permission scope. Categories and capability checks are
// always evaluated within one.
type Context struct {
	ID         int64        `json:"id"`
	Level      ContextLevel `json:"level"`
	InstanceID int64        `json:"instance_id"`
	ParentID   int64        `json:"parent_id"`
	Name       string       `json:"name"`
}

// DisplayName returns the human-friendly name of the context.
func (c *Context) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Level == ContextLevelSystem:
		return "System"
	default:
		return string(c.Level)
	}
}
