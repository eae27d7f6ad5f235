// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named bundle of capabilities assigned to a user in a context.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleEditingTeacher Role = "editingteacher"
	RoleTeacher        Role = "teacher"
	RoleStudent        Role = "student"
)

// Capability is a named permission evaluated per user per context.
type Capability string

const (
	CapManageCategory Capability = "question:managecategory"
	CapAddQuestion    Capability = "question:add"
	CapViewAll        Capability = "question:viewall"
)

// User is an account that can act on the question bank. Role is the
// site-wide role; per-context roles live in role assignments.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	DisplayName  string    `json:"display_name"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user is a site administrator.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
