package models

import (
	"database/sql/driver"
	"encoding/base32"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-identity/identity/internal/util"

	"golang.org/x/crypto/bcrypt"
)

// Grant type constants
const (
	GrantTypePassword          = "password"
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
)

// Base32 characters, but lowercased.
const lowerBase32Chars = "abcdefghijklmnopqrstuvwxyz234567"

// base32 encoder that uses lowered characters without padding.
var base32Lower = base32.NewEncoding(lowerBase32Chars).WithPadding(base32.NoPadding)

type Client struct {
	ID           int64       `gorm:"primaryKey;autoIncrement"`
	ClientID     string      `gorm:"uniqueIndex;size:36;not null"`
	SecretHash   string      `gorm:"not null"` // bcrypt hashed secret
	Name         string      `gorm:"not null"`
	Description  string      `gorm:"type:text"`
	RedirectURIs StringArray `gorm:"type:json"`
	GrantTypes   string      `gorm:"not null"` // space-separated grant types
	Scopes       string      `gorm:"not null"` // space-separated scopes
	IsActive     bool        `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GenerateSecret generates a new client secret, stores its bcrypt hash on
// the model, and returns the plaintext exactly once.
func (c *Client) GenerateSecret(cost int) (string, error) {
	rBytes, err := util.CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	// Add a prefix to the base32, this is in order to make it easier
	// for code scanners to grab sensitive tokens.
	secret := "idp_" + base32Lower.EncodeToString(rBytes)

	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	c.SecretHash = string(hashed)
	return secret, nil
}

// ValidateSecret validates the given secret against the stored hash
func (c *Client) ValidateSecret(secret []byte) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.SecretHash), secret) == nil
}

// AllowsGrantType reports whether the client may use the given grant type
func (c *Client) AllowsGrantType(grantType string) bool {
	for _, g := range strings.Fields(c.GrantTypes) {
		if g == grantType {
			return true
		}
	}
	return false
}

// HasRedirectURI reports whether uri matches a registered redirect URI
// exactly, byte for byte.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// StringArray is a custom type for []string that can be stored as JSON in database
type StringArray []string

// Scan implements sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSON value")
	}
	return json.Unmarshal(bytes, s)
}

// Value implements driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

// TableName overrides the table name used by Client to `clients`
func (Client) TableName() string {
	return "clients"
}
