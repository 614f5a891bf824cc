package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/challenge-api/internal/accounts"
	"github.com/gdg-garage/challenge-api/internal/challenges"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/profiles"
)

// apiError converts a service error into the matching HTTP error.
func apiError(err error) error {
	switch {
	case errors.Is(err, challenges.ErrNotFound),
		errors.Is(err, challenges.ErrAchievementNotFound),
		errors.Is(err, profiles.ErrAchievementNotFound),
		errors.Is(err, profiles.ErrProfileMissing),
		errors.Is(err, accounts.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, challenges.ErrForbidden):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, challenges.ErrNotJoinable),
		errors.Is(err, profiles.ErrNotAwardable):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, models.ErrInvalid):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		log.Printf("Internal error: %v", err)
		return huma.Error500InternalServerError("Internal server error")
	}
}

// ImageForm is the multipart body of every image upload.
type ImageForm struct {
	Image huma.FormFile `form:"image" contentType:"image/png,image/jpeg,image/gif,image/webp,image/svg+xml" required:"true"`
}

// checkUpload rejects missing and oversized files.
func checkUpload(file huma.FormFile, limit int64) error {
	if !file.IsSet {
		return huma.Error400BadRequest("image is required")
	}
	if limit > 0 && file.Size > limit {
		return huma.NewError(http.StatusRequestEntityTooLarge, "image is too large")
	}
	return nil
}
