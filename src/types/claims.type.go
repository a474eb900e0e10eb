package types

import "github.com/golang-jwt/jwt/v4"

// Claims carries the session token fields issued by the identity provider.
type Claims struct {
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Metadata struct {
		Role string `json:"role,omitempty"`
	} `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// EffectiveRole prefers the role stamped into public metadata.
func (c Claims) EffectiveRole() string {
	if c.Metadata.Role != "" {
		return c.Metadata.Role
	}
	return c.Role
}
