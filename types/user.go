package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user, assigned by the store.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is stored lower-cased and is
	// unique regardless of case.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role indicates the user's authorization level within the system.
	Role Role `json:"role" db:"role"`

	// Active reports whether the account may log in.
	Active bool `json:"active" db:"active"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Summary returns the public view of the user.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// UserSummary is the subset of a user that is safe to return to clients.
type UserSummary struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Role is the authorization level of an account. Roles are disjoint:
// an Admin is not implicitly a User and vice versa.
type Role int

// Supported roles.
const (
	// RoleUnknown is the zero value and never granted.
	RoleUnknown Role = iota

	// RoleAdmin grants access to administrative route groups.
	RoleAdmin

	// RoleUser is the default role for self-registered accounts.
	RoleUser
)

// Roles lists every assignable role.
var Roles = []Role{RoleAdmin, RoleUser}

// String returns the canonical role name used in tokens, storage and API responses.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleUser:
		return "User"
	default:
		return "Unknown"
	}
}

// Valid reports whether r is an assignable role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole converts a role name into a Role. Matching ignores case.
func ParseRole(value string) (Role, error) {
	for _, role := range Roles {
		if strings.EqualFold(strings.TrimSpace(value), role.String()) {
			return role, nil
		}
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", value)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UserFilter narrows an account listing.
type UserFilter struct {
	PageRequest

	// Email matches accounts whose email contains the value, ignoring case.
	Email string

	// Role restricts the listing to a single role when set.
	Role Role
}
