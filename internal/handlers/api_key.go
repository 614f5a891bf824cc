package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/challenge-api/internal/auth"
	"github.com/gdg-garage/challenge-api/internal/models"
	"gorm.io/gorm"
)

// apiKeyBytes is the amount of randomness in a key; keys are hex encoded.
const apiKeyBytes = 32

// APIKeyHandler lets a signed-in user manage the keys that authenticate
// scripts through the X-API-KEY header.
type APIKeyHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewAPIKeyHandler(db *gorm.DB, authHandler *auth.AuthHandler) *APIKeyHandler {
	return &APIKeyHandler{db: db, authHandler: authHandler}
}

type APIKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key" doc:"Full key on creation, last four characters afterwards"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	Expired    bool       `json:"expired"`
}

// maskKey hides all but the last four characters of key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return key
	}
	return "..." + key[len(key)-4:]
}

func newAPIKeyResponse(k *models.APIKey, reveal bool) APIKeyResponse {
	key := k.Key
	if !reveal {
		key = maskKey(key)
	}
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Key:        key,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
		Expired:    k.Expired(time.Now()),
	}
}

type CreateAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Name      string     `json:"name" maxLength:"100" doc:"Label to tell keys apart"`
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Optional expiry"`
	}
}

type APIKeyOutput struct {
	Body APIKeyResponse
}

// HandleCreate issues a new key for the caller. This is the only response
// that carries the full key.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*APIKeyOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	raw := make([]byte, apiKeyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}

	apiKey := &models.APIKey{
		UserID:    userID,
		Key:       hex.EncodeToString(raw),
		Name:      input.Body.Name,
		ExpiresAt: input.Body.ExpiresAt,
	}
	if err := models.Validate(apiKey); err != nil {
		return nil, apiError(err)
	}
	if err := h.db.WithContext(ctx).Create(apiKey).Error; err != nil {
		return nil, apiError(err)
	}

	return &APIKeyOutput{Body: newAPIKeyResponse(apiKey, true)}, nil
}

type ListAPIKeysInput struct {
	auth.AuthInput
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

// HandleList returns the caller's keys, oldest first, with the key itself
// masked.
func (h *APIKeyHandler) HandleList(ctx context.Context, input *ListAPIKeysInput) (*ListAPIKeysOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var keys []models.APIKey
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&keys).Error; err != nil {
		return nil, apiError(err)
	}

	res := &ListAPIKeysOutput{Body: make([]APIKeyResponse, 0, len(keys))}
	for i := range keys {
		res.Body = append(res.Body, newAPIKeyResponse(&keys[i], false))
	}
	return res, nil
}

type DeleteAPIKeyInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

// HandleDelete revokes one of the caller's keys. Keys of other users are
// reported as missing.
func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	res := h.db.WithContext(ctx).Where("id = ? AND user_id = ?", input.ID, userID).Delete(&models.APIKey{})
	if res.Error != nil {
		return nil, apiError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, huma.Error404NotFound("API key not found")
	}
	return nil, nil
}
