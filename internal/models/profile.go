package models

import (
	"github.com/gdg-garage/challenge-api/internal/upload"
	"gorm.io/gorm"
)

// DefaultAvatar is stored for profiles without an uploaded avatar.
const DefaultAvatar = "d_user.png"

// Profile extends a User with public metadata. There is exactly one per
// user, created right after the user.
type Profile struct {
	ID           uint          `gorm:"primarykey" json:"id"`
	UserID       uint          `gorm:"not null;uniqueIndex" json:"user_id"`
	User         *User         `gorm:"constraint:OnDelete:CASCADE" json:"-" validate:"-"`
	Bio          *string       `gorm:"type:text" json:"bio"`
	Avatar       string        `gorm:"size:255;default:d_user.png" json:"avatar"`
	SocialLink   *string       `gorm:"size:2048" json:"social_link" validate:"omitempty,max=2048"`
	Achievements []Achievement `gorm:"many2many:profile_achievements" json:"achievements,omitempty" validate:"-"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.Avatar == "" {
		p.Avatar = DefaultAvatar
	}
	return nil
}

func (Profile) UploadKind() upload.Kind { return upload.KindUsers }

// DeleteAvatar resets the avatar to DefaultAvatar.
func (p *Profile) DeleteAvatar() {
	p.Avatar = DefaultAvatar
}
