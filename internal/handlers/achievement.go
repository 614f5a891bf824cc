package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/challenge-api/internal/auth"
	"github.com/gdg-garage/challenge-api/internal/challenges"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/storage"
)

type AchievementHandler struct {
	challenges     *challenges.Service
	store          storage.Storage
	authHandler    *auth.AuthHandler
	maxUploadBytes int64
}

func NewAchievementHandler(svc *challenges.Service, store storage.Storage, authHandler *auth.AuthHandler, maxUploadBytes int64) *AchievementHandler {
	return &AchievementHandler{challenges: svc, store: store, authHandler: authHandler, maxUploadBytes: maxUploadBytes}
}

type AchievementBody struct {
	Title       string `json:"title" minLength:"1" maxLength:"175" doc:"Name of the achievement"`
	Description string `json:"description" minLength:"1" doc:"How the achievement is earned"`
	Style       string `json:"style,omitempty" enum:"B,S,G" doc:"Medal style: B (bronze), S (silver) or G (gold)"`
}

type ListAchievementsInput struct {
	ChallengeID uint `path:"id"`
}

type ListAchievementsOutput struct {
	Body []AchievementResponse
}

type CreateAchievementInput struct {
	auth.AuthInput
	ChallengeID uint `path:"id"`
	Body        AchievementBody
}

type AchievementIDInput struct {
	ID uint `path:"id"`
}

type AchievementOutput struct {
	Body AchievementResponse
}

type UpdateAchievementInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body AchievementBody
}

type AchievementActionInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type AchievementIconInput struct {
	auth.AuthInput
	ID      uint `path:"id"`
	RawBody huma.MultipartFormFiles[ImageForm]
}

func (h *AchievementHandler) HandleList(ctx context.Context, input *ListAchievementsInput) (*ListAchievementsOutput, error) {
	if _, err := h.challenges.Get(ctx, input.ChallengeID); err != nil {
		return nil, apiError(err)
	}
	list, err := h.challenges.ListAchievements(ctx, input.ChallengeID)
	if err != nil {
		return nil, apiError(err)
	}
	return &ListAchievementsOutput{Body: newAchievementResponses(h.store, list)}, nil
}

func (h *AchievementHandler) HandleCreate(ctx context.Context, input *CreateAchievementInput) (*AchievementOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	achievement := &models.Achievement{
		ChallengeID: input.ChallengeID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Style:       models.Style(input.Body.Style),
	}
	if err := h.challenges.CreateAchievement(ctx, user, achievement); err != nil {
		return nil, apiError(err)
	}
	return &AchievementOutput{Body: newAchievementResponse(h.store, achievement)}, nil
}

func (h *AchievementHandler) HandleGet(ctx context.Context, input *AchievementIDInput) (*AchievementOutput, error) {
	achievement, err := h.challenges.GetAchievement(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &AchievementOutput{Body: newAchievementResponse(h.store, achievement)}, nil
}

func (h *AchievementHandler) HandleUpdate(ctx context.Context, input *UpdateAchievementInput) (*AchievementOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	achievement, err := h.challenges.UpdateAchievement(ctx, user, &models.Achievement{
		ID:          input.ID,
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Style:       models.Style(input.Body.Style),
	})
	if err != nil {
		return nil, apiError(err)
	}
	return &AchievementOutput{Body: newAchievementResponse(h.store, achievement)}, nil
}

func (h *AchievementHandler) HandleDelete(ctx context.Context, input *AchievementActionInput) (*struct{}, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if err := h.challenges.DeleteAchievement(ctx, user, input.ID); err != nil {
		return nil, apiError(err)
	}
	return nil, nil
}

func (h *AchievementHandler) action(ctx context.Context, input *AchievementActionInput, fn func(context.Context, *models.User, uint) (*models.Achievement, error)) (*AchievementOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	achievement, err := fn(ctx, user, input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &AchievementOutput{Body: newAchievementResponse(h.store, achievement)}, nil
}

func (h *AchievementHandler) HandleToggleAvailability(ctx context.Context, input *AchievementActionInput) (*AchievementOutput, error) {
	return h.action(ctx, input, h.challenges.ToggleAvailability)
}

func (h *AchievementHandler) HandleModerate(ctx context.Context, input *AchievementActionInput) (*AchievementOutput, error) {
	return h.action(ctx, input, h.challenges.ModerateAchievement)
}

func (h *AchievementHandler) HandleSetIcon(ctx context.Context, input *AchievementIconInput) (*AchievementOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	file := input.RawBody.Data().Image
	if err := checkUpload(file, h.maxUploadBytes); err != nil {
		return nil, err
	}
	defer file.Close()

	achievement, err := h.challenges.SetAchievementIcon(ctx, user, input.ID, file.Filename, file, file.ContentType)
	if err != nil {
		return nil, apiError(err)
	}
	return &AchievementOutput{Body: newAchievementResponse(h.store, achievement)}, nil
}
