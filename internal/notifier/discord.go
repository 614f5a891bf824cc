package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/challenge-api/internal/models"
)

// Notifier tells moderators about challenges and achievements that need or
// received moderation.
type Notifier interface {
	NotifyChallengeSubmitted(author *models.User, challenge *models.Challenge) error
	NotifyChallengeModerated(moderator *models.User, challenge *models.Challenge) error
	NotifyAchievementModerated(moderator *models.User, achievement *models.Achievement) error
}

// MessageSender is the part of *discordgo.Session the notifier uses.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   MessageSender
	channelID string
}

// NewDiscordNotifier posts to channelID through session. A nil session,
// including a nil *discordgo.Session, makes every notification fail with an
// error instead of panicking.
func NewDiscordNotifier(session MessageSender, channelID string) *DiscordNotifier {
	if s, ok := session.(*discordgo.Session); ok && s == nil {
		session = nil
	}
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) NotifyChallengeSubmitted(author *models.User, challenge *models.Challenge) error {
	message := fmt.Sprintf("📝 **New challenge awaiting moderation**\n**Title:** %s\n**Author:** %s\n**Days:** %d\n**Intro:** %s",
		challenge.Title,
		username(author),
		challenge.Days,
		challenge.ShortIntro,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyChallengeModerated(moderator *models.User, challenge *models.Challenge) error {
	message := fmt.Sprintf("✅ **Challenge approved**\n**Title:** %s\n**Moderator:** %s",
		challenge.Title,
		username(moderator),
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyAchievementModerated(moderator *models.User, achievement *models.Achievement) error {
	message := fmt.Sprintf("🏅 **Achievement approved**\n**Title:** %s (%s)\n**Moderator:** %s",
		achievement.Title,
		achievement.Style.Label(),
		username(moderator),
	)
	return n.send(message)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}

func username(u *models.User) string {
	if u == nil {
		return "unknown"
	}
	return u.Username
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyChallengeSubmitted(*models.User, *models.Challenge) error     { return nil }
func (Nop) NotifyChallengeModerated(*models.User, *models.Challenge) error     { return nil }
func (Nop) NotifyAchievementModerated(*models.User, *models.Achievement) error { return nil }
