package handlers

import (
	"time"

	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/storage"
)

type ParticipantResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type ChallengeResponse struct {
	ID           uint                  `json:"id"`
	Title        string                `json:"title"`
	Slug         string                `json:"slug"`
	UserID       *uint                 `json:"user_id"`
	Author       string                `json:"author,omitempty"`
	ShortIntro   string                `json:"short_intro"`
	Description  string                `json:"description"`
	Image        string                `json:"image"`
	ImageURL     string                `json:"image_url"`
	Cover        string                `json:"cover"`
	CoverURL     string                `json:"cover_url"`
	Days         int                   `json:"days"`
	IsActive     bool                  `json:"is_active"`
	IsModerated  bool                  `json:"is_moderated"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
	Achievements []AchievementResponse `json:"achievements,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type AchievementResponse struct {
	ID          uint      `json:"id"`
	ChallengeID uint      `json:"challenge_id"`
	UserID      *uint     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Style       string    `json:"style"`
	StyleLabel  string    `json:"style_label"`
	Icon        string    `json:"icon"`
	IconURL     string    `json:"icon_url"`
	IsAvailable bool      `json:"is_available"`
	IsModerated bool      `json:"is_moderated"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProfileResponse struct {
	UserID       uint                  `json:"user_id"`
	Bio          *string               `json:"bio"`
	Avatar       string                `json:"avatar"`
	AvatarURL    string                `json:"avatar_url"`
	SocialLink   *string               `json:"social_link"`
	Achievements []AchievementResponse `json:"achievements"`
}

func newChallengeResponse(store storage.Storage, c *models.Challenge) ChallengeResponse {
	res := ChallengeResponse{
		ID:          c.ID,
		Title:       c.Title,
		Slug:        c.Slug,
		UserID:      c.UserID,
		ShortIntro:  c.ShortIntro,
		Description: c.Description,
		Image:       c.Image,
		ImageURL:    store.URL(c.Image),
		Cover:       c.Cover,
		CoverURL:    store.URL(c.Cover),
		Days:        c.Days,
		IsActive:    c.IsActive,
		IsModerated: c.IsModerated,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.User != nil {
		res.Author = c.User.Username
	}
	for _, p := range c.Participants {
		res.Participants = append(res.Participants, ParticipantResponse{ID: p.ID, Username: p.Username})
	}
	for i := range c.Achievements {
		res.Achievements = append(res.Achievements, newAchievementResponse(store, &c.Achievements[i]))
	}
	return res
}

func newAchievementResponse(store storage.Storage, a *models.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:          a.ID,
		ChallengeID: a.ChallengeID,
		UserID:      a.UserID,
		Title:       a.Title,
		Description: a.Description,
		Style:       string(a.Style),
		StyleLabel:  a.Style.Label(),
		Icon:        a.Icon,
		IconURL:     store.URL(a.Icon),
		IsAvailable: a.IsAvailable,
		IsModerated: a.IsModerated,
		CreatedAt:   a.CreatedAt,
	}
}

func newAchievementResponses(store storage.Storage, achievements []models.Achievement) []AchievementResponse {
	res := make([]AchievementResponse, 0, len(achievements))
	for i := range achievements {
		res = append(res, newAchievementResponse(store, &achievements[i]))
	}
	return res
}

func newProfileResponse(store storage.Storage, p *models.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:       p.UserID,
		Bio:          p.Bio,
		Avatar:       p.Avatar,
		AvatarURL:    store.URL(p.Avatar),
		SocialLink:   p.SocialLink,
		Achievements: newAchievementResponses(store, p.Achievements),
	}
}
