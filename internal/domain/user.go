package domain

import (
	"context"
	"time"
)

// UserRole says whether a user designs patterns, knits them, or both.
type UserRole string

const (
	RoleDesigner UserRole = "designer"
	RoleKnitter  UserRole = "knitter"
	RoleBoth     UserRole = "both"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleDesigner, RoleKnitter, RoleBoth:
		return true
	}
	return false
}

// CanPublish reports whether users with role r may publish patterns to the
// shared catalogue.
func (r UserRole) CanPublish() bool {
	return r == RoleDesigner || r == RoleBoth
}

// User represents a registered user of the application.
type User struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
