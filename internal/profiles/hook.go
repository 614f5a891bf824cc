package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/challenge-api/internal/models"
	"gorm.io/gorm"
)

// ErrProfileMissing means an existing account has no profile. Every account
// gets one on creation, so this is a broken invariant, not a user error.
var ErrProfileMissing = errors.New("account has no profile")

// SyncOnSave is the account save hook that keeps profiles in step with
// accounts. It creates the profile when the account is created and saves it
// again on every later update of the account.
func SyncOnSave(ctx context.Context, tx *gorm.DB, user *models.User, created bool) error {
	if created {
		if err := tx.Create(&models.Profile{UserID: user.ID}).Error; err != nil {
			return fmt.Errorf("create profile for user %d: %w", user.ID, err)
		}
		return nil
	}

	var profile models.Profile
	if err := tx.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", user.ID, ErrProfileMissing)
		}
		return err
	}
	return tx.Save(&profile).Error
}
