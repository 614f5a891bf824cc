package models

import (
	"time"
)

// User is the account entity. Challenges, achievements and profiles refer
// to it by ID only.
type User struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	DiscordID *string   `gorm:"uniqueIndex" json:"discord_id,omitempty"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username" validate:"required,max=150"`
	Email     string    `gorm:"size:254" json:"email" validate:"omitempty,email,max=254"`
	IsStaff   bool      `gorm:"not null;default:false" json:"is_staff"`
}
