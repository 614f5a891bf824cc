// Package accounts creates and updates user accounts and runs the save
// hooks the application registers at startup.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/challenge-api/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("account not found")

// SaveHook runs inside the transaction that wrote user. created is true only
// for the insert of a new account. A returned error rolls the write back.
type SaveHook func(ctx context.Context, tx *gorm.DB, user *models.User, created bool) error

type Service struct {
	db    *gorm.DB
	hooks []SaveHook
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// OnSave registers hook to run after every Create and Update, in
// registration order. It is not safe to call concurrently with writes.
func (s *Service) OnSave(hook SaveHook) {
	s.hooks = append(s.hooks, hook)
}

func (s *Service) Create(ctx context.Context, user *models.User) error {
	if user.ID != 0 {
		return fmt.Errorf("create account: user already has id %d", user.ID)
	}
	if err := models.Validate(user); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		return s.runHooks(ctx, tx, user, true)
	})
}

func (s *Service) Update(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return fmt.Errorf("update account: %w", ErrNotFound)
	}
	if err := models.Validate(user); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(user).Select("*").Omit("id", "created_at").Updates(user)
		if res.Error != nil {
			return fmt.Errorf("update account %d: %w", user.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update account %d: %w", user.ID, ErrNotFound)
		}
		return s.runHooks(ctx, tx, user, false)
	})
}

func (s *Service) runHooks(ctx context.Context, tx *gorm.DB, user *models.User, created bool) error {
	for _, hook := range s.hooks {
		if err := hook(ctx, tx, user, created); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) FindByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("discord_id = ?", discordID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Delete removes the account. Its profile, awards and participations go
// with it; challenges and achievements it owned lose their owner.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM challenge_participants WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM profile_achievements WHERE profile_id IN (SELECT id FROM profiles WHERE user_id = ?)", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete account %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
