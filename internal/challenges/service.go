// Package challenges manages challenges and the achievements that belong to
// them: creation, edits, moderation, participation and image uploads.
package challenges

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/notifier"
	"github.com/gdg-garage/challenge-api/internal/storage"
	"github.com/gdg-garage/challenge-api/internal/upload"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("challenge not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrForbidden           = errors.New("not allowed")
	ErrNotJoinable         = errors.New("challenge is not open for participants")
)

type Service struct {
	db       *gorm.DB
	store    storage.Storage
	notifier notifier.Notifier
}

func NewService(db *gorm.DB, store storage.Storage, n notifier.Notifier) *Service {
	if n == nil {
		n = notifier.Nop{}
	}
	return &Service{db: db, store: store, notifier: n}
}

// CanEdit reports whether user may change challenge. Staff may change any
// challenge, everyone else only their own.
func CanEdit(user *models.User, challenge *models.Challenge) bool {
	if user == nil {
		return false
	}
	if user.IsStaff {
		return true
	}
	return challenge.UserID != nil && *challenge.UserID == user.ID
}

// ListFilter narrows List. Nil fields do not filter.
type ListFilter struct {
	Active    *bool
	Moderated *bool
	UserID    *uint
	Limit     int
	Offset    int
}

// Create stores a new challenge owned by author. Moderators are notified
// about challenges that still need moderation.
func (s *Service) Create(ctx context.Context, author *models.User, challenge *models.Challenge) error {
	challenge.ID = 0
	if author != nil {
		challenge.UserID = &author.ID
	}
	if err := models.Validate(challenge); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := uniqueSlug(tx, challenge.Title)
		if err != nil {
			return err
		}
		challenge.Slug = name
		return tx.Omit("Participants", "Achievements").Create(challenge).Error
	})
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}

	if !challenge.IsModerated {
		if err := s.notifier.NotifyChallengeSubmitted(author, challenge); err != nil {
			log.Printf("Failed to send notification: %v", err)
		}
	}
	return nil
}

var slugSuffix = regexp.MustCompile(`^-(\d+)$`)

// maxSlugBase bounds the slug before its -N suffix so the result fits the
// 280 byte slug column. Transliteration can make a slug several times
// longer than its title.
const maxSlugBase = 255

// truncateSlug shortens s to at most max bytes, cutting at the last hyphen
// when there is one. Slugs are ASCII, so any byte offset is a rune boundary.
func truncateSlug(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if s[max] == '-' {
		return strings.Trim(s[:max], "-")
	}
	s = s[:max]
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		s = s[:i]
	}
	return strings.Trim(s, "-")
}

// uniqueSlug derives a slug from title and appends -N when it is taken.
func uniqueSlug(tx *gorm.DB, title string) (string, error) {
	base := truncateSlug(slug.Make(title), maxSlugBase)
	if base == "" {
		base = "challenge"
	}

	var taken []string
	if err := tx.Model(&models.Challenge{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error; err != nil {
		return "", err
	}

	baseTaken := false
	maxN := 1
	for _, t := range taken {
		if t == base {
			baseTaken = true
			continue
		}
		m := slugSuffix.FindStringSubmatch(t[len(base):])
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxN {
			maxN = n
		}
	}
	if !baseTaken {
		return base, nil
	}
	return base + "-" + strconv.Itoa(maxN+1), nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Participants").
		Preload("Achievements").
		First(&challenge, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &challenge, nil
}

func (s *Service) GetBySlug(ctx context.Context, name string) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.db.WithContext(ctx).Select("id").Where("slug = ?", name).First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.Get(ctx, challenge.ID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Challenge, error) {
	q := s.db.WithContext(ctx).Model(&models.Challenge{})
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if filter.Moderated != nil {
		q = q.Where("is_moderated = ?", *filter.Moderated)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var challenges []models.Challenge
	if err := q.Order("created_at DESC").Order("id DESC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	return challenges, nil
}

// load fetches a bare challenge and checks that actor may edit it.
func (s *Service) load(ctx context.Context, actor *models.User, id uint) (*models.Challenge, error) {
	var challenge models.Challenge
	if err := s.db.WithContext(ctx).First(&challenge, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanEdit(actor, &challenge) {
		return nil, ErrForbidden
	}
	return &challenge, nil
}

// Update writes the editable text fields of challenge. The slug stays as it
// was created.
func (s *Service) Update(ctx context.Context, actor *models.User, challenge *models.Challenge) (*models.Challenge, error) {
	current, err := s.load(ctx, actor, challenge.ID)
	if err != nil {
		return nil, err
	}

	current.Title = challenge.Title
	current.ShortIntro = challenge.ShortIntro
	current.Description = challenge.Description
	current.Days = challenge.Days
	if err := models.Validate(current); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(current).
		Select("title", "short_intro", "description", "days").
		Updates(current).Error; err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes the challenge with its achievements and their awards.
// Uploaded files are removed once the rows are gone.
func (s *Service) Delete(ctx context.Context, actor *models.User, id uint) error {
	challenge, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}

	var icons []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Achievement{}).Where("challenge_id = ?", id).Pluck("icon", &icons).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM challenge_participants WHERE challenge_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM profile_achievements WHERE achievement_id IN (SELECT id FROM achievements WHERE challenge_id = ?)", id).Error; err != nil {
			return err
		}
		// Achievements follow through ON DELETE CASCADE.
		return tx.Delete(&models.Challenge{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete challenge %d: %w", id, err)
	}

	s.discard(ctx, challenge.Image)
	s.discard(ctx, challenge.Cover)
	for _, icon := range icons {
		s.discard(ctx, icon)
	}
	return nil
}

func (s *Service) ToggleActive(ctx context.Context, actor *models.User, id uint) (*models.Challenge, error) {
	challenge, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	challenge.ToggleActive()
	if err := s.db.WithContext(ctx).Model(challenge).Update("is_active", challenge.IsActive).Error; err != nil {
		return nil, err
	}
	return challenge, nil
}

// Moderate approves the challenge. Only staff may moderate; approving twice
// is not an error.
func (s *Service) Moderate(ctx context.Context, moderator *models.User, id uint) (*models.Challenge, error) {
	if moderator == nil || !moderator.IsStaff {
		return nil, ErrForbidden
	}
	challenge, err := s.load(ctx, moderator, id)
	if err != nil {
		return nil, err
	}

	already := challenge.IsModerated
	challenge.Moderate()
	if already {
		return challenge, nil
	}

	if err := s.db.WithContext(ctx).Model(challenge).Update("is_moderated", challenge.IsModerated).Error; err != nil {
		return nil, err
	}
	if err := s.notifier.NotifyChallengeModerated(moderator, challenge); err != nil {
		log.Printf("Failed to send notification: %v", err)
	}
	return challenge, nil
}

// Join adds user to the participants of an active, moderated challenge.
// Joining twice keeps one entry.
func (s *Service) Join(ctx context.Context, user *models.User, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		if err := tx.First(&challenge, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !challenge.IsActive || !challenge.IsModerated {
			return ErrNotJoinable
		}

		var count int64
		if err := tx.Table("challenge_participants").
			Where("challenge_id = ? AND user_id = ?", id, user.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return tx.Exec("INSERT INTO challenge_participants (challenge_id, user_id) VALUES (?, ?)", id, user.ID).Error
	})
}

func (s *Service) Leave(ctx context.Context, user *models.User, id uint) error {
	return s.db.WithContext(ctx).
		Exec("DELETE FROM challenge_participants WHERE challenge_id = ? AND user_id = ?", id, user.ID).Error
}

func (s *Service) SetImage(ctx context.Context, actor *models.User, id uint, filename string, r io.Reader, contentType string) (*models.Challenge, error) {
	return s.setFile(ctx, actor, id, "image", filename, r, contentType)
}

func (s *Service) SetCover(ctx context.Context, actor *models.User, id uint, filename string, r io.Reader, contentType string) (*models.Challenge, error) {
	return s.setFile(ctx, actor, id, "cover", filename, r, contentType)
}

func (s *Service) setFile(ctx context.Context, actor *models.User, id uint, column, filename string, r io.Reader, contentType string) (*models.Challenge, error) {
	challenge, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	key := upload.Path(challenge.UploadKind(), filename)
	if err := s.store.Save(ctx, key, r, contentType); err != nil {
		return nil, err
	}

	field := &challenge.Image
	if column == "cover" {
		field = &challenge.Cover
	}
	old := *field
	*field = key

	if err := s.db.WithContext(ctx).Model(challenge).Update(column, key).Error; err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	s.discard(ctx, old)
	return challenge, nil
}

func (s *Service) DeleteImage(ctx context.Context, actor *models.User, id uint) (*models.Challenge, error) {
	challenge, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	old := challenge.Image
	challenge.DeleteImage()
	if err := s.db.WithContext(ctx).Model(challenge).Update("image", challenge.Image).Error; err != nil {
		return nil, err
	}
	s.discard(ctx, old)
	return challenge, nil
}

func (s *Service) DeleteCover(ctx context.Context, actor *models.User, id uint) (*models.Challenge, error) {
	challenge, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	old := challenge.Cover
	challenge.DeleteCover()
	if err := s.db.WithContext(ctx).Model(challenge).Update("cover", challenge.Cover).Error; err != nil {
		return nil, err
	}
	s.discard(ctx, old)
	return challenge, nil
}

// discard removes an uploaded file. Failures are logged; the row no longer
// points at the file either way.
func (s *Service) discard(ctx context.Context, key string) {
	if key == "" || key == models.DefaultImage {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.Printf("Failed to remove %s: %v", key, err)
	}
}
