package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"

	// TypeAccess and TypeRefresh populate the token_type claim and keep
	// the two token kinds from being interchangeable.
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the claim set carried by every issued JWT. sub is the user ID
// for user-bound grants and the client ID for client_credentials; aud is
// always the client ID.
type Claims struct {
	jwt.RegisteredClaims
	Scope     string `json:"scope"`
	TokenType string `json:"token_type"`
	ClientID  string `json:"client_id"`
}

// IsRefresh reports whether the claims describe a refresh token
func (c *Claims) IsRefresh() bool {
	return c.TokenType == TypeRefresh
}

// Audience returns the single audience of the token, empty if absent
func (c *Claims) Audience() string {
	if len(c.RegisteredClaims.Audience) == 0 {
		return ""
	}
	return c.RegisteredClaims.Audience[0]
}
