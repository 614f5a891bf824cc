package models

import (
	"time"

	"github.com/gdg-garage/challenge-api/internal/upload"
	"gorm.io/gorm"
)

// Style is the medal an achievement is drawn with.
type Style string

const (
	StyleBronze Style = "B"
	StyleSilver Style = "S"
	StyleGold   Style = "G"
)

var styleLabels = map[Style]string{
	StyleBronze: "Bronze",
	StyleSilver: "Silver",
	StyleGold:   "Gold",
}

// Label returns the display name of the style, or the raw code when unknown.
func (s Style) Label() string {
	if l, ok := styleLabels[s]; ok {
		return l
	}
	return string(s)
}

type Achievement struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	ChallengeID uint      `gorm:"not null;index" json:"challenge_id" validate:"required"`
	UserID      *uint     `gorm:"index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty" validate:"-"`
	Title       string    `gorm:"size:175;not null" json:"title" validate:"required,max=175"`
	Description string    `gorm:"type:text;not null" json:"description" validate:"required"`
	Style       Style     `gorm:"size:10;not null;default:B" json:"style" validate:"omitempty,oneof=B S G"`
	Icon        string    `gorm:"size:255;default:default.jpg" json:"icon"`
	IsAvailable bool      `gorm:"not null;default:false" json:"is_available"`
	IsModerated bool      `gorm:"not null;default:false" json:"is_moderated"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *Achievement) BeforeCreate(tx *gorm.DB) error {
	if a.Style == "" {
		a.Style = StyleBronze
	}
	if a.Icon == "" {
		a.Icon = DefaultImage
	}
	return nil
}

func (Achievement) UploadKind() upload.Kind { return upload.KindAchievements }

func (a *Achievement) ToggleAvailability() {
	a.IsAvailable = !a.IsAvailable
}

func (a *Achievement) Moderate() {
	a.IsModerated = true
}

// Awardable reports whether the achievement may be granted to profiles.
func (a *Achievement) Awardable() bool {
	return a.IsAvailable && a.IsModerated
}

func (a Achievement) String() string {
	return a.Title
}
