package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/challenge-api/internal/auth"
	"github.com/gdg-garage/challenge-api/internal/challenges"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/profiles"
	"github.com/gdg-garage/challenge-api/internal/storage"
)

type ProfileHandler struct {
	profiles       *profiles.Service
	challenges     *challenges.Service
	store          storage.Storage
	authHandler    *auth.AuthHandler
	maxUploadBytes int64
}

func NewProfileHandler(profileService *profiles.Service, challengeService *challenges.Service, store storage.Storage, authHandler *auth.AuthHandler, maxUploadBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profiles:       profileService,
		challenges:     challengeService,
		store:          store,
		authHandler:    authHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

type ProfileIDInput struct {
	UserID uint `path:"user_id"`
}

type ProfileOutput struct {
	Body ProfileResponse
}

type MyProfileInput struct {
	auth.AuthInput
}

type UpdateProfileInput struct {
	auth.AuthInput
	Body struct {
		Bio        *string `json:"bio,omitempty" doc:"Free text about the user"`
		SocialLink *string `json:"social_link,omitempty" maxLength:"2048" doc:"Link to a social profile"`
	}
}

type AvatarInput struct {
	auth.AuthInput
	RawBody huma.MultipartFormFiles[ImageForm]
}

type AwardInput struct {
	auth.AuthInput
	UserID        uint `path:"user_id"`
	AchievementID uint `path:"achievement_id"`
}

func (h *ProfileHandler) HandleGet(ctx context.Context, input *ProfileIDInput) (*ProfileOutput, error) {
	profile, err := h.profiles.Get(ctx, input.UserID)
	if err != nil {
		return nil, apiError(err)
	}
	return &ProfileOutput{Body: newProfileResponse(h.store, profile)}, nil
}

func (h *ProfileHandler) HandleGetMine(ctx context.Context, input *MyProfileInput) (*ProfileOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	return h.HandleGet(ctx, &ProfileIDInput{UserID: userID})
}

func (h *ProfileHandler) HandleUpdate(ctx context.Context, input *UpdateProfileInput) (*ProfileOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	profile, err := h.profiles.Update(ctx, userID, input.Body.Bio, input.Body.SocialLink)
	if err != nil {
		return nil, apiError(err)
	}
	return &ProfileOutput{Body: newProfileResponse(h.store, profile)}, nil
}

func (h *ProfileHandler) HandleSetAvatar(ctx context.Context, input *AvatarInput) (*ProfileOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	file := input.RawBody.Data().Image
	if err := checkUpload(file, h.maxUploadBytes); err != nil {
		return nil, err
	}
	defer file.Close()

	profile, err := h.profiles.SetAvatar(ctx, userID, file.Filename, file, file.ContentType)
	if err != nil {
		return nil, apiError(err)
	}
	return &ProfileOutput{Body: newProfileResponse(h.store, profile)}, nil
}

func (h *ProfileHandler) HandleDeleteAvatar(ctx context.Context, input *MyProfileInput) (*ProfileOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	profile, err := h.profiles.DeleteAvatar(ctx, userID)
	if err != nil {
		return nil, apiError(err)
	}
	return &ProfileOutput{Body: newProfileResponse(h.store, profile)}, nil
}

func (h *ProfileHandler) HandleAchievements(ctx context.Context, input *ProfileIDInput) (*ListAchievementsOutput, error) {
	list, err := h.profiles.Achievements(ctx, input.UserID)
	if err != nil {
		return nil, apiError(err)
	}
	return &ListAchievementsOutput{Body: newAchievementResponses(h.store, list)}, nil
}

// canAward reports whether user may hand out achievementID: staff and
// whoever may edit the achievement's challenge.
func (h *ProfileHandler) canAward(ctx context.Context, user *models.User, achievementID uint) error {
	achievement, err := h.challenges.GetAchievement(ctx, achievementID)
	if err != nil {
		return apiError(err)
	}
	challenge, err := h.challenges.Get(ctx, achievement.ChallengeID)
	if err != nil {
		return apiError(err)
	}
	if !challenges.CanEdit(user, challenge) {
		return huma.Error403Forbidden("Access denied: only staff or the challenge owner can award")
	}
	return nil
}

func (h *ProfileHandler) HandleAward(ctx context.Context, input *AwardInput) (*ListAchievementsOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if err := h.canAward(ctx, user, input.AchievementID); err != nil {
		return nil, err
	}
	if err := h.profiles.Award(ctx, input.UserID, input.AchievementID); err != nil {
		return nil, apiError(err)
	}
	return h.HandleAchievements(ctx, &ProfileIDInput{UserID: input.UserID})
}

func (h *ProfileHandler) HandleRevoke(ctx context.Context, input *AwardInput) (*struct{}, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if err := h.canAward(ctx, user, input.AchievementID); err != nil {
		return nil, err
	}
	if err := h.profiles.Revoke(ctx, input.UserID, input.AchievementID); err != nil {
		return nil, apiError(err)
	}
	return nil, nil
}
