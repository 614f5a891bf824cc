package handlers

import (
	"context"
	"io"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/challenge-api/internal/auth"
	"github.com/gdg-garage/challenge-api/internal/challenges"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/storage"
)

type ChallengeHandler struct {
	challenges     *challenges.Service
	store          storage.Storage
	authHandler    *auth.AuthHandler
	maxUploadBytes int64
}

func NewChallengeHandler(svc *challenges.Service, store storage.Storage, authHandler *auth.AuthHandler, maxUploadBytes int64) *ChallengeHandler {
	return &ChallengeHandler{challenges: svc, store: store, authHandler: authHandler, maxUploadBytes: maxUploadBytes}
}

type ChallengeBody struct {
	Title       string `json:"title" maxLength:"255" minLength:"1" doc:"Title of the challenge"`
	ShortIntro  string `json:"short_intro,omitempty" maxLength:"500" doc:"One paragraph teaser"`
	Description string `json:"description" minLength:"1" doc:"Full description"`
	Days        int    `json:"days" minimum:"1" doc:"Duration in days"`
}

func (b ChallengeBody) challenge() *models.Challenge {
	return &models.Challenge{
		Title:       b.Title,
		ShortIntro:  b.ShortIntro,
		Description: b.Description,
		Days:        b.Days,
	}
}

type ListChallengesInput struct {
	Active    string `query:"active" doc:"Filter by active flag (true or false)"`
	Moderated string `query:"moderated" doc:"Filter by moderation flag (true or false)"`
	UserID    uint   `query:"user_id" doc:"Only challenges owned by this user"`
	Limit     int    `query:"limit" minimum:"0" maximum:"100" default:"50"`
	Offset    int    `query:"offset" minimum:"0"`
}

type ListChallengesOutput struct {
	Body []ChallengeResponse
}

type ChallengeIDInput struct {
	ID uint `path:"id"`
}

type ChallengeSlugInput struct {
	Slug string `path:"slug"`
}

type ChallengeOutput struct {
	Body ChallengeResponse
}

type CreateChallengeInput struct {
	auth.AuthInput
	Body ChallengeBody
}

type UpdateChallengeInput struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body ChallengeBody
}

type ChallengeActionInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type ChallengeImageInput struct {
	auth.AuthInput
	ID      uint `path:"id"`
	RawBody huma.MultipartFormFiles[ImageForm]
}

func parseFlag(name, value string) (*bool, error) {
	if value == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return nil, huma.Error400BadRequest(name + " must be true or false")
	}
	return &b, nil
}

func (h *ChallengeHandler) HandleList(ctx context.Context, input *ListChallengesInput) (*ListChallengesOutput, error) {
	filter := challenges.ListFilter{Limit: input.Limit, Offset: input.Offset}

	var err error
	if filter.Active, err = parseFlag("active", input.Active); err != nil {
		return nil, err
	}
	if filter.Moderated, err = parseFlag("moderated", input.Moderated); err != nil {
		return nil, err
	}
	if input.UserID != 0 {
		filter.UserID = &input.UserID
	}

	list, err := h.challenges.List(ctx, filter)
	if err != nil {
		return nil, apiError(err)
	}

	res := &ListChallengesOutput{Body: make([]ChallengeResponse, 0, len(list))}
	for i := range list {
		res.Body = append(res.Body, newChallengeResponse(h.store, &list[i]))
	}
	return res, nil
}

func (h *ChallengeHandler) HandleGet(ctx context.Context, input *ChallengeIDInput) (*ChallengeOutput, error) {
	challenge, err := h.challenges.Get(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &ChallengeOutput{Body: newChallengeResponse(h.store, challenge)}, nil
}

func (h *ChallengeHandler) HandleGetBySlug(ctx context.Context, input *ChallengeSlugInput) (*ChallengeOutput, error) {
	challenge, err := h.challenges.GetBySlug(ctx, input.Slug)
	if err != nil {
		return nil, apiError(err)
	}
	return &ChallengeOutput{Body: newChallengeResponse(h.store, challenge)}, nil
}

func (h *ChallengeHandler) HandleCreate(ctx context.Context, input *CreateChallengeInput) (*ChallengeOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	challenge := input.Body.challenge()
	if err := h.challenges.Create(ctx, user, challenge); err != nil {
		return nil, apiError(err)
	}
	return &ChallengeOutput{Body: newChallengeResponse(h.store, challenge)}, nil
}

func (h *ChallengeHandler) HandleUpdate(ctx context.Context, input *UpdateChallengeInput) (*ChallengeOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	challenge := input.Body.challenge()
	challenge.ID = input.ID
	updated, err := h.challenges.Update(ctx, user, challenge)
	if err != nil {
		return nil, apiError(err)
	}
	return &ChallengeOutput{Body: newChallengeResponse(h.store, updated)}, nil
}

func (h *ChallengeHandler) HandleDelete(ctx context.Context, input *ChallengeActionInput) (*struct{}, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if err := h.challenges.Delete(ctx, user, input.ID); err != nil {
		return nil, apiError(err)
	}
	return nil, nil
}

// action runs one of the challenge state changes for the calling user.
func (h *ChallengeHandler) action(ctx context.Context, input *ChallengeActionInput, fn func(context.Context, *models.User, uint) (*models.Challenge, error)) (*ChallengeOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	challenge, err := fn(ctx, user, input.ID)
	if err != nil {
		return nil, apiError(err)
	}
	return &ChallengeOutput{Body: newChallengeResponse(h.store, challenge)}, nil
}

func (h *ChallengeHandler) HandleToggleActive(ctx context.Context, input *ChallengeActionInput) (*ChallengeOutput, error) {
	return h.action(ctx, input, h.challenges.ToggleActive)
}

func (h *ChallengeHandler) HandleModerate(ctx context.Context, input *ChallengeActionInput) (*ChallengeOutput, error) {
	return h.action(ctx, input, h.challenges.Moderate)
}

func (h *ChallengeHandler) HandleDeleteImage(ctx context.Context, input *ChallengeActionInput) (*ChallengeOutput, error) {
	return h.action(ctx, input, h.challenges.DeleteImage)
}

func (h *ChallengeHandler) HandleDeleteCover(ctx context.Context, input *ChallengeActionInput) (*ChallengeOutput, error) {
	return h.action(ctx, input, h.challenges.DeleteCover)
}

func (h *ChallengeHandler) HandleJoin(ctx context.Context, input *ChallengeActionInput) (*ChallengeOutput, error) {
	return h.action(ctx, input, func(ctx context.Context, user *models.User, id uint) (*models.Challenge, error) {
		if err := h.challenges.Join(ctx, user, id); err != nil {
			return nil, err
		}
		return h.challenges.Get(ctx, id)
	})
}

func (h *ChallengeHandler) HandleLeave(ctx context.Context, input *ChallengeActionInput) (*ChallengeOutput, error) {
	return h.action(ctx, input, func(ctx context.Context, user *models.User, id uint) (*models.Challenge, error) {
		if err := h.challenges.Leave(ctx, user, id); err != nil {
			return nil, err
		}
		return h.challenges.Get(ctx, id)
	})
}

func (h *ChallengeHandler) HandleSetImage(ctx context.Context, input *ChallengeImageInput) (*ChallengeOutput, error) {
	return h.upload(ctx, input, h.challenges.SetImage)
}

func (h *ChallengeHandler) HandleSetCover(ctx context.Context, input *ChallengeImageInput) (*ChallengeOutput, error) {
	return h.upload(ctx, input, h.challenges.SetCover)
}

type challengeUploader func(ctx context.Context, actor *models.User, id uint, filename string, r io.Reader, contentType string) (*models.Challenge, error)

func (h *ChallengeHandler) upload(ctx context.Context, input *ChallengeImageInput, set challengeUploader) (*ChallengeOutput, error) {
	user, err := h.authHandler.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	file := input.RawBody.Data().Image
	if err := checkUpload(file, h.maxUploadBytes); err != nil {
		return nil, err
	}
	defer file.Close()

	challenge, err := set(ctx, user, input.ID, file.Filename, file, file.ContentType)
	if err != nil {
		return nil, apiError(err)
	}
	return &ChallengeOutput{Body: newChallengeResponse(h.store, challenge)}, nil
}
