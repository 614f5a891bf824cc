package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gdg-garage/challenge-api/internal/accounts"
	"github.com/gdg-garage/challenge-api/internal/config"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/profiles"
	"github.com/gdg-garage/challenge-api/internal/testdb"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	t.Helper()
	db := testdb.New(t)
	acc := accounts.NewService(db)
	acc.OnSave(profiles.SyncOnSave)
	return NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, db, acc), db
}

func TestHandleMe(t *testing.T) {
	handler, db := newTestHandler(t)

	discordID := "123456"
	user := models.User{
		DiscordID: &discordID,
		Username:  "testuser",
		Email:     "test@example.com",
	}
	require.NoError(t, db.Create(&user).Error)

	t.Run("Authenticated", func(t *testing.T) {
		token, err := handler.GenerateToken(user.ID)
		require.NoError(t, err)

		resp, err := handler.HandleMe(context.Background(), &MeInput{AuthInput{Cookie: "theme=dark; auth_token=" + token}})
		require.NoError(t, err)
		assert.Equal(t, user.Username, resp.Body.Username)
		assert.Equal(t, user.Email, resp.Body.Email)
		assert.False(t, resp.Body.IsStaff)
	})

	t.Run("Context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserIDKey, user.ID)
		resp, err := handler.HandleMe(ctx, &MeInput{})
		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.Body.ID)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		_, err := handler.HandleMe(context.Background(), &MeInput{})
		assert.Error(t, err)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": user.ID,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		tokenString, _ := token.SignedString([]byte("other-secret"))
		_, err := handler.HandleMe(context.Background(), &MeInput{AuthInput{Cookie: "auth_token=" + tokenString}})
		assert.Error(t, err)
	})

	t.Run("DeletedUser", func(t *testing.T) {
		token, err := handler.GenerateToken(9999)
		require.NoError(t, err)
		_, err = handler.HandleMe(context.Background(), &MeInput{AuthInput{Cookie: "auth_token=" + token}})
		assert.Error(t, err)
	})
}

func TestAuthorize_APIKey(t *testing.T) {
	handler, db := newTestHandler(t)
	user := testdb.CreateUser(t, db, "keyholder")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.APIKey{UserID: user.ID, Key: "valid", Name: "ci"}).Error)
	require.NoError(t, db.Create(&models.APIKey{UserID: user.ID, Key: "stale", Name: "old", ExpiresAt: &past}).Error)

	userID, err := handler.Authorize(context.Background(), AuthInput{APIKey: "valid"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	var key models.APIKey
	require.NoError(t, db.Where("key = ?", "valid").First(&key).Error)
	assert.NotNil(t, key.LastUsedAt)

	_, err = handler.Authorize(context.Background(), AuthInput{APIKey: "stale"})
	assert.Error(t, err)
	_, err = handler.Authorize(context.Background(), AuthInput{APIKey: "missing"})
	assert.Error(t, err)
}

func TestSyncDiscordUser(t *testing.T) {
	handler, db := newTestHandler(t)
	ctx := context.Background()

	first, err := handler.SyncDiscordUser(ctx, DiscordUser{ID: "42", Username: "neo", Email: "neo@example.com"})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	again, err := handler.SyncDiscordUser(ctx, DiscordUser{ID: "42", Username: "thomas", Email: "neo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "thomas", again.Username)

	var users, profileCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", first.ID).Count(&profileCount).Error)
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(1), profileCount)

	_, err = handler.SyncDiscordUser(ctx, DiscordUser{Username: "anonymous"})
	assert.Error(t, err)
}

func TestHandleLogin_State(t *testing.T) {
	handler := NewAuthHandler(&config.Config{DiscordClientID: "client"}, nil, nil)

	rr := httptest.NewRecorder()
	handler.HandleLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/discord/login", nil))
	require.Equal(t, http.StatusTemporaryRedirect, rr.Code)

	var state *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == StateCookieName {
			state = c
		}
	}
	require.NotNil(t, state)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)

	location, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, location.Query().Get("state"))

	// Each login gets its own state.
	again := httptest.NewRecorder()
	handler.HandleLogin(again, httptest.NewRequest(http.MethodGet, "/auth/discord/login", nil))
	againLocation, err := url.Parse(again.Header().Get("Location"))
	require.NoError(t, err)
	assert.NotEqual(t, state.Value, againLocation.Query().Get("state"))
}

func TestHandleCallback_State(t *testing.T) {
	handler := NewAuthHandler(&config.Config{}, nil, nil)

	tests := []struct {
		name   string
		query  string
		cookie string
		body   string
	}{
		{"no cookie", "?state=abc&code=x", "", "Invalid OAuth state"},
		{"mismatch", "?state=abc&code=x", "xyz", "Invalid OAuth state"},
		{"no state", "?code=x", "abc", "Invalid OAuth state"},
		{"valid state without code", "?state=abc", "abc", "Code not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/discord/callback"+tt.query, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: StateCookieName, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			handler.HandleCallback(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.body)
		})
	}
}
