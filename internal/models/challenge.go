package models

import (
	"time"

	"github.com/gdg-garage/challenge-api/internal/upload"
	"gorm.io/gorm"
)

// DefaultImage is stored in image fields that have no uploaded file.
const DefaultImage = "default.jpg"

type Challenge struct {
	ID           uint          `gorm:"primarykey" json:"id"`
	Title        string        `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Slug         string        `gorm:"size:280;uniqueIndex" json:"slug"`
	UserID       *uint         `gorm:"index" json:"user_id"`
	User         *User         `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty" validate:"-"`
	ShortIntro   string        `gorm:"size:500" json:"short_intro" validate:"max=500"`
	Description  string        `gorm:"type:text;not null" json:"description" validate:"required"`
	Image        string        `gorm:"size:255;default:default.jpg" json:"image"`
	Cover        string        `gorm:"size:255;default:default.jpg" json:"cover"`
	Days         int           `gorm:"not null" json:"days" validate:"gt=0"`
	IsActive     bool          `gorm:"not null;default:false" json:"is_active"`
	IsModerated  bool          `gorm:"not null;default:false" json:"is_moderated"`
	Participants []User        `gorm:"many2many:challenge_participants" json:"participants,omitempty" validate:"-"`
	Achievements []Achievement `gorm:"constraint:OnDelete:CASCADE" json:"achievements,omitempty" validate:"-"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.Image == "" {
		c.Image = DefaultImage
	}
	if c.Cover == "" {
		c.Cover = DefaultImage
	}
	return nil
}

func (Challenge) UploadKind() upload.Kind { return upload.KindChallenges }

func (c *Challenge) ToggleActive() {
	c.IsActive = !c.IsActive
}

func (c *Challenge) Moderate() {
	c.IsModerated = true
}

// DeleteImage resets the image to DefaultImage. The stored file is left to
// the caller.
func (c *Challenge) DeleteImage() {
	c.Image = DefaultImage
}

// DeleteCover resets the cover to DefaultImage.
func (c *Challenge) DeleteCover() {
	c.Cover = DefaultImage
}

func (c Challenge) String() string {
	return c.Title
}
