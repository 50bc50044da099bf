package models

import "time"

// PKCE code challenge methods (RFC 7636)
const (
	CodeChallengeMethodPlain = "plain"
	CodeChallengeMethodS256  = "S256"
)

// AuthorizationCode stores OAuth 2.0 authorization codes (RFC 6749).
// Codes are short-lived (default 10 minutes) and single-use.
type AuthorizationCode struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// Code storage: SHA256 hash at rest, prefix for log correlation
	CodeHash   string `gorm:"uniqueIndex;not null"`  // SHA256(plainCode)
	CodePrefix string `gorm:"index;not null;size:8"` // First 8 chars for log correlation

	ClientID string `gorm:"not null;index;size:36"`
	UserID   string `gorm:"not null;index;size:36"`

	RedirectURI string `gorm:"not null"`
	Scopes      string `gorm:"not null"`

	// PKCE (RFC 7636)
	CodeChallenge       string `gorm:"not null"`
	CodeChallengeMethod string `gorm:"not null;default:'S256'"` // "S256" or "plain"

	// Recorded at exchange so a replayed code can invalidate everything
	// issued from it (RFC 6749 §4.1.2)
	IssuedAccessJTI   string
	IssuedRefreshJTI  string
	IssuedAccessHash  string
	IssuedRefreshHash string

	ExpiresAt  time.Time
	ConsumedAt *time.Time // Set exactly once at exchange; prevents replay
	CreatedAt  time.Time
}

func (a *AuthorizationCode) IsExpired() bool {
	return time.Now().After(a.ExpiresAt)
}

func (a *AuthorizationCode) IsConsumed() bool {
	return a.ConsumedAt != nil
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}
