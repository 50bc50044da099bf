package models

import "time"

// RevokedToken records the jti of a revoked JWT until its natural expiry.
// Rows past ExpiresAt carry no information and may be purged.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:36"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
