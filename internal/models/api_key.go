package models

import (
	"time"

	"gorm.io/gorm"
)

type APIKey struct {
	gorm.Model
	UserID     uint       `json:"user_id"`
	User       *User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Key        string     `json:"key" gorm:"uniqueIndex"`
	Name       string     `json:"name" validate:"max=100"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// Expired reports whether the key can no longer be used at now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && now.After(*k.ExpiresAt)
}
