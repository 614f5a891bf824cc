// Package auth logs users in with Discord and resolves the caller of a
// request from the auth_token cookie or an X-API-KEY header.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/challenge-api/internal/accounts"
	"github.com/gdg-garage/challenge-api/internal/config"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
)

const (
	CookieName    = "auth_token"
	TokenDuration = 24 * time.Hour

	StateCookieName = "oauth_state"
	stateDuration   = 10 * time.Minute
)

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	accounts    *accounts.Service
	cfg         *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, accountService *accounts.Service) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:       db,
		accounts: accountService,
		cfg:      cfg,
	}
}

// DiscordUser is the part of the Discord user object the login uses.
type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// HandleLogin redirects to Discord with a fresh state that the browser also
// keeps in a short-lived cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := oauth2.GenerateVerifier()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Expires:  time.Now().Add(stateDuration),
		HttpOnly: true,
		Path:     "/auth/discord",
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// validState reports whether the callback's state matches the cookie set by
// HandleLogin.
func validState(r *http.Request) bool {
	cookie, err := r.Cookie(StateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	state := r.URL.Query().Get("state")
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !validState(r) {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	// The state is single use.
	http.SetCookie(w, &http.Cookie{Name: StateCookieName, Value: "", Path: "/auth/discord", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(DiscordUserAPI)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var discordUser DiscordUser
	if err := json.NewDecoder(resp.Body).Decode(&discordUser); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}

	user, err := h.SyncDiscordUser(r.Context(), discordUser)
	if err != nil {
		log.Printf("Failed to save user %s: %v", discordUser.ID, err)
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.tokenCookie(jwtToken))

	if h.cfg.FrontendURL != "" {
		http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
		return
	}
	w.Write([]byte(fmt.Sprintf("Welcome %s! You are logged in.", user.Username)))
}

// SyncDiscordUser creates the account of a first-time Discord user or
// refreshes the stored name and email of a returning one. Both paths go
// through the account service so its save hooks run.
func (h *AuthHandler) SyncDiscordUser(ctx context.Context, du DiscordUser) (*models.User, error) {
	if du.ID == "" {
		return nil, errors.New("discord user without id")
	}

	user, err := h.accounts.FindByDiscordID(ctx, du.ID)
	if errors.Is(err, accounts.ErrNotFound) {
		discordID := du.ID
		user = &models.User{
			DiscordID: &discordID,
			Username:  du.Username,
			Email:     du.Email,
		}
		if err := h.accounts.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if err != nil {
		return nil, err
	}

	user.Username = du.Username
	user.Email = du.Email
	if err := h.accounts.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) tokenCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	}
}

// parseToken validates tokenString and returns its user id and expiry.
func (h *AuthHandler) parseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, time.Time{}, errors.New("invalid token claims")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, errors.New("token without expiry")
	}
	return uint(userIDFloat), exp.Time, nil
}

// apiKeyUser returns the owner of key and marks the key as used.
func (h *AuthHandler) apiKeyUser(ctx context.Context, key string) (uint, error) {
	var apiKey models.APIKey
	if err := h.db.WithContext(ctx).Where("key = ?", key).First(&apiKey).Error; err != nil {
		return 0, errors.New("unknown API key")
	}

	now := time.Now()
	if apiKey.Expired(now) {
		return 0, errors.New("API key expired")
	}
	if err := h.db.WithContext(ctx).Model(&apiKey).Update("last_used_at", now).Error; err != nil {
		log.Printf("Failed to update API key usage: %v", err)
	}
	return apiKey.UserID, nil
}

// AuthInput carries the credentials huma operations accept.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie (auth_token)"`
	APIKey string `header:"X-API-KEY" doc:"API key"`
}

// Authorize returns the id of the calling user. The identity set by
// AuthMiddleware wins, then the API key, then the session cookie.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (uint, error) {
	if userID, ok := UserIDFromContext(ctx); ok {
		return userID, nil
	}

	if input.APIKey != "" {
		userID, err := h.apiKeyUser(ctx, input.APIKey)
		if err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: " + err.Error())
		}
		return userID, nil
	}

	if input.Cookie != "" {
		cookies, err := http.ParseCookie(input.Cookie)
		if err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: malformed cookie")
		}
		for _, c := range cookies {
			if c.Name != CookieName {
				continue
			}
			userID, _, err := h.parseToken(c.Value)
			if err != nil {
				return 0, huma.Error401Unauthorized("Unauthorized: " + err.Error())
			}
			return userID, nil
		}
	}

	return 0, huma.Error401Unauthorized("Unauthorized")
}

// CurrentUser is Authorize followed by loading the account.
func (h *AuthHandler) CurrentUser(ctx context.Context, input AuthInput) (*models.User, error) {
	userID, err := h.Authorize(ctx, input)
	if err != nil {
		return nil, err
	}
	user, err := h.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, huma.Error401Unauthorized("Unauthorized: account no longer exists")
		}
		return nil, huma.Error500InternalServerError("Failed to load user")
	}
	return user, nil
}

type MeInput struct {
	AuthInput
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

type MeOutput struct {
	Body UserResponse
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *MeInput) (*MeOutput, error) {
	user, err := h.CurrentUser(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	return &MeOutput{Body: NewUserResponse(user)}, nil
}
