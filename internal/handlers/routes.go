package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/challenge-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth         *auth.AuthHandler
	Challenges   *ChallengeHandler
	Achievements *AchievementHandler
	Profiles     *ProfileHandler
	APIKeys      *APIKeyHandler
}

func RegisterRoutes(r *chi.Mux, h Handlers) huma.API {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Auth.AuthMiddleware)

	// Initialize Huma API
	config := huma.DefaultConfig("Challenge API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"apiKey": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/discord/login", h.Auth.HandleLogin)
	r.Get("/auth/discord/callback", h.Auth.HandleCallback)

	RegisterOperations(api, h)
	return api
}

func secured(o *huma.Operation) {
	o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKey": {}}}
}

// RegisterOperations adds every huma operation to api.
func RegisterOperations(api huma.API, h Handlers) {
	huma.Get(api, "/me", h.Auth.HandleMe, secured)

	huma.Get(api, "/challenges", h.Challenges.HandleList)
	huma.Post(api, "/challenges", h.Challenges.HandleCreate, secured)
	huma.Get(api, "/challenges/{id}", h.Challenges.HandleGet)
	huma.Get(api, "/challenges/by-slug/{slug}", h.Challenges.HandleGetBySlug)
	huma.Put(api, "/challenges/{id}", h.Challenges.HandleUpdate, secured)
	huma.Delete(api, "/challenges/{id}", h.Challenges.HandleDelete, secured)
	huma.Post(api, "/challenges/{id}/toggle-active", h.Challenges.HandleToggleActive, secured)
	huma.Post(api, "/challenges/{id}/moderate", h.Challenges.HandleModerate, secured)
	huma.Post(api, "/challenges/{id}/join", h.Challenges.HandleJoin, secured)
	huma.Post(api, "/challenges/{id}/leave", h.Challenges.HandleLeave, secured)
	huma.Put(api, "/challenges/{id}/image", h.Challenges.HandleSetImage, secured)
	huma.Delete(api, "/challenges/{id}/image", h.Challenges.HandleDeleteImage, secured)
	huma.Put(api, "/challenges/{id}/cover", h.Challenges.HandleSetCover, secured)
	huma.Delete(api, "/challenges/{id}/cover", h.Challenges.HandleDeleteCover, secured)

	huma.Get(api, "/challenges/{id}/achievements", h.Achievements.HandleList)
	huma.Post(api, "/challenges/{id}/achievements", h.Achievements.HandleCreate, secured)
	huma.Get(api, "/achievements/{id}", h.Achievements.HandleGet)
	huma.Put(api, "/achievements/{id}", h.Achievements.HandleUpdate, secured)
	huma.Delete(api, "/achievements/{id}", h.Achievements.HandleDelete, secured)
	huma.Post(api, "/achievements/{id}/toggle-availability", h.Achievements.HandleToggleAvailability, secured)
	huma.Post(api, "/achievements/{id}/moderate", h.Achievements.HandleModerate, secured)
	huma.Put(api, "/achievements/{id}/icon", h.Achievements.HandleSetIcon, secured)

	huma.Get(api, "/me/profile", h.Profiles.HandleGetMine, secured)
	huma.Put(api, "/me/profile", h.Profiles.HandleUpdate, secured)
	huma.Put(api, "/me/profile/avatar", h.Profiles.HandleSetAvatar, secured)
	huma.Delete(api, "/me/profile/avatar", h.Profiles.HandleDeleteAvatar, secured)
	huma.Get(api, "/profiles/{user_id}", h.Profiles.HandleGet)
	huma.Get(api, "/profiles/{user_id}/achievements", h.Profiles.HandleAchievements)
	huma.Post(api, "/profiles/{user_id}/achievements/{achievement_id}", h.Profiles.HandleAward, secured)
	huma.Delete(api, "/profiles/{user_id}/achievements/{achievement_id}", h.Profiles.HandleRevoke, secured)

	huma.Get(api, "/api-keys", h.APIKeys.HandleList, secured)
	huma.Post(api, "/api-keys", h.APIKeys.HandleCreate, secured)
	huma.Delete(api, "/api-keys/{id}", h.APIKeys.HandleDelete, secured)
}
