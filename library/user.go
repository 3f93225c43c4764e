package library

import (
	"github.com/google/uuid"
)

// User is an account that can own books and check them out.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  Role
}

// CreateUser carries the fields for creating a new account. The password is
// the plain text; repositories hash it before persisting. New accounts get
// RoleUser.
type CreateUser struct {
	Name     string
	Email    string
	Password string
}

// UpdateUserRole changes the role of an existing account.
type UpdateUserRole struct {
	UserID uuid.UUID
	Role   Role
}

// UpdateUserPassword changes an account's password after verifying the
// current one.
type UpdateUserPassword struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// DeleteUser removes an account.
type DeleteUser struct {
	UserID uuid.UUID
}
