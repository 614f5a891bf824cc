package challenges

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/upload"
	"gorm.io/gorm"
)

// CanEditAchievement reports whether user may change achievement, which
// belongs to challenge. Staff, the achievement's author and the challenge's
// owner may.
func CanEditAchievement(user *models.User, challenge *models.Challenge, achievement *models.Achievement) bool {
	if CanEdit(user, challenge) {
		return true
	}
	return user != nil && achievement.UserID != nil && *achievement.UserID == user.ID
}

// CreateAchievement adds an achievement to its challenge. Only users who
// may edit the challenge can add to it.
func (s *Service) CreateAchievement(ctx context.Context, author *models.User, achievement *models.Achievement) error {
	if _, err := s.load(ctx, author, achievement.ChallengeID); err != nil {
		return err
	}

	achievement.ID = 0
	achievement.UserID = &author.ID
	if err := models.Validate(achievement); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(achievement).Error; err != nil {
		return fmt.Errorf("create achievement: %w", err)
	}
	return nil
}

func (s *Service) GetAchievement(ctx context.Context, id uint) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := s.db.WithContext(ctx).Preload("User").First(&achievement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}
	return &achievement, nil
}

func (s *Service) ListAchievements(ctx context.Context, challengeID uint) ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := s.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("id").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

func (s *Service) loadAchievement(ctx context.Context, actor *models.User, id uint) (*models.Achievement, error) {
	var achievement models.Achievement
	if err := s.db.WithContext(ctx).First(&achievement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}

	var challenge models.Challenge
	if err := s.db.WithContext(ctx).First(&challenge, achievement.ChallengeID).Error; err != nil {
		return nil, err
	}
	if !CanEditAchievement(actor, &challenge, &achievement) {
		return nil, ErrForbidden
	}
	return &achievement, nil
}

func (s *Service) UpdateAchievement(ctx context.Context, actor *models.User, achievement *models.Achievement) (*models.Achievement, error) {
	current, err := s.loadAchievement(ctx, actor, achievement.ID)
	if err != nil {
		return nil, err
	}

	current.Title = achievement.Title
	current.Description = achievement.Description
	if achievement.Style != "" {
		current.Style = achievement.Style
	}
	if err := models.Validate(current); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(current).
		Select("title", "description", "style").
		Updates(current).Error; err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) ToggleAvailability(ctx context.Context, actor *models.User, id uint) (*models.Achievement, error) {
	achievement, err := s.loadAchievement(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	achievement.ToggleAvailability()
	if err := s.db.WithContext(ctx).Model(achievement).Update("is_available", achievement.IsAvailable).Error; err != nil {
		return nil, err
	}
	return achievement, nil
}

func (s *Service) ModerateAchievement(ctx context.Context, moderator *models.User, id uint) (*models.Achievement, error) {
	if moderator == nil || !moderator.IsStaff {
		return nil, ErrForbidden
	}
	achievement, err := s.loadAchievement(ctx, moderator, id)
	if err != nil {
		return nil, err
	}

	already := achievement.IsModerated
	achievement.Moderate()
	if already {
		return achievement, nil
	}

	if err := s.db.WithContext(ctx).Model(achievement).Update("is_moderated", achievement.IsModerated).Error; err != nil {
		return nil, err
	}
	if err := s.notifier.NotifyAchievementModerated(moderator, achievement); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
	return achievement, nil
}

func (s *Service) SetAchievementIcon(ctx context.Context, actor *models.User, id uint, filename string, r io.Reader, contentType string) (*models.Achievement, error) {
	achievement, err := s.loadAchievement(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := upload.Path(achievement.UploadKind(), filename)
	if err := s.store.Save(ctx, key, r, contentType); err != nil {
		return nil, err
	}

	old := achievement.Icon
	achievement.Icon = key
	if err := s.db.WithContext(ctx).Model(achievement).Update("icon", key).Error; err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	s.discard(ctx, old)
	return achievement, nil
}

// DeleteAchievement removes the achievement and takes it away from every
// profile that earned it.
func (s *Service) DeleteAchievement(ctx context.Context, actor *models.User, id uint) error {
	achievement, err := s.loadAchievement(ctx, actor, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM profile_achievements WHERE achievement_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Achievement{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete achievement %d: %w", id, err)
	}

	s.discard(ctx, achievement.Icon)
	return nil
}
