// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authentication partition an account belongs to.
//
// Roles are not a permission hierarchy: an admin authenticates through its own
// entry point and cannot use the ordinary login path.
type UserRole string

const (
	// Default role for every self-registered account
	RoleUser UserRole = "user"

	// Administrative accounts, provisioned out of band
	RoleAdmin UserRole = "admin"
)

// Valid reports whether r is one of the enumerated roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r is the administrative role.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}
