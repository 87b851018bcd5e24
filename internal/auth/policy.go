package auth

import "github.com/motorpool/apiserver/types"

// Authorize reports whether p may access a route group gated on required.
// There is no role hierarchy: an Admin does not satisfy a User requirement.
func Authorize(required types.Role, p Principal) bool {
	return p.IsAuthenticated() && p.HasRole(required)
}
