package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdg-garage/challenge-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret string, userID uint, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(ttl).Unix(),
	})
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func serve(handler *AuthHandler, req *http.Request) (*httptest.ResponseRecorder, uint, bool) {
	var (
		seen   uint
		hasUID bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, hasUID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	handler.AuthMiddleware(next).ServeHTTP(rr, req)
	return rr, seen, hasUID
}

func authCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestAuthMiddleware_SlidingSession(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	handler := NewAuthHandler(cfg, nil, nil)

	t.Run("TokenRenewed", func(t *testing.T) {
		// 11 hours left is less than TokenDuration/2.
		tokenString := signedToken(t, cfg.JWTSecret, 1, 11*time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})

		rr, userID, ok := serve(handler, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, ok)
		assert.Equal(t, uint(1), userID)

		c := authCookie(rr)
		require.NotNil(t, c, "expected new auth_token cookie to be set")
		assert.NotEqual(t, tokenString, c.Value)
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		tokenString := signedToken(t, cfg.JWTSecret, 1, 13*time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})

		rr, _, ok := serve(handler, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, ok)
		assert.Nil(t, authCookie(rr))
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		tokenString := signedToken(t, cfg.JWTSecret, 1, -time.Minute)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: tokenString})

		rr, _, ok := serve(handler, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, ok)
		assert.Nil(t, authCookie(rr))
	})

	t.Run("Anonymous", func(t *testing.T) {
		rr, _, ok := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, ok)
	})
}
