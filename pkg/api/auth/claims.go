// Package auth implements a deliberately minimal operator-authentication
// scheme for the control API: a single shared operator credential
// rather than a user database, since the only principal this API ever
// authorizes is "the human allowed to run tso-leasectl".
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims are the JWT claims issued to an authenticated
// operator session. There is exactly one role ("admin"); Role exists
// mainly so a future second role doesn't require a wire-format change.
type OperatorClaims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether these claims authorize admin-only
// operations (currently the only role that exists).
func (c *OperatorClaims) IsAdmin() bool {
	return c.Role == "admin"
}
