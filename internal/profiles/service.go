// Package profiles owns the per-user Profile record: its creation through
// the account save hook, edits, avatar uploads and earned achievements.
package profiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/storage"
	"github.com/gdg-garage/challenge-api/internal/upload"
	"gorm.io/gorm"
)

var (
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrNotAwardable        = errors.New("achievement is not available or not moderated")
)

type Service struct {
	db    *gorm.DB
	store storage.Storage
}

func NewService(db *gorm.DB, store storage.Storage) *Service {
	return &Service{db: db, store: store}
}

// Get returns the profile of userID with its earned achievements.
func (s *Service) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.load(s.db.WithContext(ctx).Preload("Achievements"), userID)
}

func (s *Service) load(db *gorm.DB, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrProfileMissing)
		}
		return nil, err
	}
	return &profile, nil
}

// Update replaces bio and social link. Nil clears the field.
func (s *Service) Update(ctx context.Context, userID uint, bio, socialLink *string) (*models.Profile, error) {
	profile, err := s.load(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	profile.Bio = bio
	profile.SocialLink = socialLink
	if err := models.Validate(profile); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(profile).Select("bio", "social_link").Updates(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// SetAvatar stores r under a fresh users/ path and points the profile at
// it. The previous avatar file is removed unless it is the default.
func (s *Service) SetAvatar(ctx context.Context, userID uint, filename string, r io.Reader, contentType string) (*models.Profile, error) {
	profile, err := s.load(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	key := upload.Path(profile.UploadKind(), filename)
	if err := s.store.Save(ctx, key, r, contentType); err != nil {
		return nil, err
	}

	old := profile.Avatar
	profile.Avatar = key
	if err := s.db.WithContext(ctx).Model(profile).Update("avatar", key).Error; err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	s.discard(ctx, old)
	return profile, nil
}

func (s *Service) DeleteAvatar(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.load(s.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}

	old := profile.Avatar
	profile.DeleteAvatar()
	if err := s.db.WithContext(ctx).Model(profile).Update("avatar", profile.Avatar).Error; err != nil {
		return nil, err
	}

	s.discard(ctx, old)
	return profile, nil
}

// Award adds an achievement to the user's profile. Awarding the same
// achievement twice leaves a single entry.
func (s *Service) Award(ctx context.Context, userID, achievementID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err := s.load(tx, userID)
		if err != nil {
			return err
		}

		var achievement models.Achievement
		if err := tx.First(&achievement, achievementID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAchievementNotFound
			}
			return err
		}
		if !achievement.Awardable() {
			return ErrNotAwardable
		}

		var count int64
		if err := tx.Table("profile_achievements").
			Where("profile_id = ? AND achievement_id = ?", profile.ID, achievement.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		return tx.Model(profile).Association("Achievements").Append(&achievement)
	})
}

// Revoke removes an achievement from the user's profile.
func (s *Service) Revoke(ctx context.Context, userID, achievementID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err := s.load(tx, userID)
		if err != nil {
			return err
		}
		return tx.Exec("DELETE FROM profile_achievements WHERE profile_id = ? AND achievement_id = ?", profile.ID, achievementID).Error
	})
}

func (s *Service) Achievements(ctx context.Context, userID uint) ([]models.Achievement, error) {
	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return profile.Achievements, nil
}

func (s *Service) discard(ctx context.Context, key string) {
	if key == "" || key == models.DefaultAvatar {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("Failed to remove avatar %s: %v", key, err)
	}
}
