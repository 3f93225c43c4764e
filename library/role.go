package library

import "fmt"

// Role gates destructive and admin-only operations (user creation, role
// change, deletion). Enforcement happens in the calling layer, not in the
// checkout core.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

// ParseRole converts the database representation of a role back to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// IsAdmin reports whether the role grants admin-only operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
