// Package auth holds the identity primitives of the API: password hashing,
// JWT issuance and validation, the per-request Principal derived from
// validated claims, and the role-based authorization predicate.
//
// Everything in this package is safe for concurrent use. The token service
// carries its signing key and TTL as immutable values captured at
// construction time.
package auth
