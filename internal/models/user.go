package models

import (
	"time"
)

type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"` // bcrypt hash, never exposed
	IsActive     bool   `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by User to `users`
func (User) TableName() string {
	return "users"
}
