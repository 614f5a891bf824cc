package challenges

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/gdg-garage/challenge-api/internal/storage"
	"github.com/gdg-garage/challenge-api/internal/testdb"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	submitted            []string
	moderated            []string
	achievementModerated []string
	err                  error
}

func (r *recordingNotifier) NotifyChallengeSubmitted(_ *models.User, c *models.Challenge) error {
	r.submitted = append(r.submitted, c.Title)
	return r.err
}

func (r *recordingNotifier) NotifyChallengeModerated(_ *models.User, c *models.Challenge) error {
	r.moderated = append(r.moderated, c.Title)
	return r.err
}

func (r *recordingNotifier) NotifyAchievementModerated(_ *models.User, a *models.Achievement) error {
	r.achievementModerated = append(r.achievementModerated, a.Title)
	return r.err
}

type fixture struct {
	db       *gorm.DB
	fs       afero.Fs
	notifier *recordingNotifier
	svc      *Service
	owner    *models.User
	other    *models.User
	staff    *models.User
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := testdb.New(t)
	fs := afero.NewMemMapFs()
	n := &recordingNotifier{}

	staff := testdb.CreateUser(t, db, "staff")
	staff.IsStaff = true
	require.NoError(t, db.Save(staff).Error)

	return &fixture{
		db:       db,
		fs:       fs,
		notifier: n,
		svc:      NewService(db, storage.NewLocal(fs, "/media/"), n),
		owner:    testdb.CreateUser(t, db, "owner"),
		other:    testdb.CreateUser(t, db, "other"),
		staff:    staff,
	}
}

func (f *fixture) createChallenge(t *testing.T, title string) *models.Challenge {
	t.Helper()
	c := &models.Challenge{
		Title:       title,
		ShortIntro:  "Test",
		Description: "Sample description",
		Days:        14,
	}
	require.NoError(t, f.svc.Create(context.Background(), f.owner, c))
	return c
}

func TestCreate(t *testing.T) {
	f := setup(t)
	c := f.createChallenge(t, "Test Challenge")

	assert.NotZero(t, c.ID)
	require.NotNil(t, c.UserID)
	assert.Equal(t, f.owner.ID, *c.UserID)
	assert.Equal(t, "test-challenge", c.Slug)
	assert.Equal(t, models.DefaultImage, c.Image)
	assert.Equal(t, models.DefaultImage, c.Cover)
	assert.False(t, c.IsActive)
	assert.False(t, c.IsModerated)
	assert.Equal(t, []string{"Test Challenge"}, f.notifier.submitted)
}

func TestCreate_Invalid(t *testing.T) {
	f := setup(t)
	err := f.svc.Create(context.Background(), f.owner, &models.Challenge{Title: "", Description: "d", Days: 3})
	assert.ErrorIs(t, err, models.ErrInvalid)
	assert.Empty(t, f.notifier.submitted)
}

func TestCreate_NotifierFailureIgnored(t *testing.T) {
	f := setup(t)
	f.notifier.err = errors.New("discord down")
	c := f.createChallenge(t, "Still created")
	assert.NotZero(t, c.ID)
}

func TestCreate_UniqueSlugs(t *testing.T) {
	f := setup(t)

	assert.Equal(t, "go-daily", f.createChallenge(t, "Go Daily").Slug)
	assert.Equal(t, "go-daily-2", f.createChallenge(t, "Go daily!").Slug)
	assert.Equal(t, "go-daily-3", f.createChallenge(t, "GO DAILY").Slug)
	assert.Equal(t, "go", f.createChallenge(t, "Go").Slug)
	assert.Equal(t, "challenge", f.createChallenge(t, "!!!").Slug)
}

func TestGetAndList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.createChallenge(t, "A")
	b := f.createChallenge(t, "B")

	_, err := f.svc.ToggleActive(ctx, f.owner, b.ID)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)
	require.NotNil(t, got.User)
	assert.Equal(t, "owner", got.User.Username)

	bySlug, err := f.svc.GetBySlug(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, b.ID, bySlug.ID)

	_, err = f.svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active := true
	onlyActive, err := f.svc.List(ctx, ListFilter{Active: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, b.ID, onlyActive[0].ID)

	mine, err := f.svc.List(ctx, ListFilter{UserID: &f.other.ID})
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Old title")

	updated, err := f.svc.Update(ctx, f.owner, &models.Challenge{ID: c.ID, Title: "New title", Description: "new", Days: 30})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "old-title", updated.Slug)
	assert.Equal(t, 30, updated.Days)

	_, err = f.svc.Update(ctx, f.other, &models.Challenge{ID: c.ID, Title: "Hijack", Description: "x", Days: 1})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Update(ctx, f.owner, &models.Challenge{ID: c.ID, Title: "t", Description: "x", Days: 0})
	assert.ErrorIs(t, err, models.ErrInvalid)
}

func TestToggleActive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Toggle")

	got, err := f.svc.ToggleActive(ctx, f.owner, c.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	got, err = f.svc.ToggleActive(ctx, f.staff, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.IsModerated)

	_, err = f.svc.ToggleActive(ctx, f.other, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestModerate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Moderate me")

	_, err := f.svc.Moderate(ctx, f.owner, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	for i := 0; i < 3; i++ {
		got, err := f.svc.Moderate(ctx, f.staff, c.ID)
		require.NoError(t, err)
		assert.True(t, got.IsModerated)
	}
	assert.Equal(t, []string{"Moderate me"}, f.notifier.moderated)

	stored, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsModerated)
	assert.False(t, stored.IsActive)
}

func TestJoinLeave(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Join")

	assert.ErrorIs(t, f.svc.Join(ctx, f.other, c.ID), ErrNotJoinable)
	assert.ErrorIs(t, f.svc.Join(ctx, f.other, 9999), ErrNotFound)

	_, err := f.svc.ToggleActive(ctx, f.owner, c.ID)
	require.NoError(t, err)
	_, err = f.svc.Moderate(ctx, f.staff, c.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Join(ctx, f.other, c.ID))
	require.NoError(t, f.svc.Join(ctx, f.other, c.ID))
	require.NoError(t, f.svc.Join(ctx, f.staff, c.ID))

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Participants, 2)

	require.NoError(t, f.svc.Leave(ctx, f.other, c.ID))
	got, err = f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Participants, 1)
	assert.Equal(t, "staff", got.Participants[0].Username)
}

func TestImages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Images")

	got, err := f.svc.SetImage(ctx, f.owner, c.ID, "photo.final.png", strings.NewReader("img"), "image/png")
	require.NoError(t, err)
	image := got.Image
	assert.True(t, strings.HasPrefix(image, "images/challenges/"))
	assert.True(t, strings.HasSuffix(image, ".png"))
	assert.Equal(t, models.DefaultImage, got.Cover)

	got, err = f.svc.SetCover(ctx, f.owner, c.ID, "cover.jpeg", strings.NewReader("cov"), "image/jpeg")
	require.NoError(t, err)
	cover := got.Cover
	assert.True(t, strings.HasSuffix(cover, ".jpeg"))

	data, err := afero.ReadFile(f.fs, image)
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	_, err = f.svc.SetImage(ctx, f.other, c.ID, "x.png", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err = f.svc.DeleteImage(ctx, f.owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultImage, got.Image)
	assert.Equal(t, cover, got.Cover)
	exists, _ := afero.Exists(f.fs, image)
	assert.False(t, exists)

	got, err = f.svc.DeleteCover(ctx, f.owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultImage, got.Cover)

	// Resetting an already default image is a no-op.
	got, err = f.svc.DeleteCover(ctx, f.owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultImage, got.Cover)
}

func TestDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Doomed")

	_, err := f.svc.SetImage(ctx, f.owner, c.ID, "a.png", strings.NewReader("a"), "image/png")
	require.NoError(t, err)
	ach := &models.Achievement{ChallengeID: c.ID, Title: "Badge", Description: "d"}
	require.NoError(t, f.svc.CreateAchievement(ctx, f.owner, ach))

	_, err = f.svc.ToggleActive(ctx, f.owner, c.ID)
	require.NoError(t, err)
	_, err = f.svc.Moderate(ctx, f.staff, c.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Join(ctx, f.other, c.ID))

	assert.ErrorIs(t, f.svc.Delete(ctx, f.other, c.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, f.owner, c.ID))

	_, err = f.svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.GetAchievement(ctx, ach.ID)
	assert.ErrorIs(t, err, ErrAchievementNotFound)

	var participants int64
	require.NoError(t, f.db.Table("challenge_participants").Count(&participants).Error)
	assert.Zero(t, participants)

	files, err := afero.ReadDir(f.fs, "images/challenges")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestOwnerDeletionKeepsChallenge(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.createChallenge(t, "Orphan")

	require.NoError(t, f.db.Delete(&models.User{}, f.owner.ID).Error)

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)

	// Only staff can edit an ownerless challenge.
	_, err = f.svc.ToggleActive(ctx, f.other, c.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ToggleActive(ctx, f.staff, c.ID)
	assert.NoError(t, err)
}

func TestCreate_LongTransliteratedTitle(t *testing.T) {
	f := setup(t)

	for _, title := range []string{strings.Repeat("中", 255), strings.Repeat("ß", 255)} {
		require.NoError(t, models.Validate(&models.Challenge{Title: title, Description: "d", Days: 1}))

		first := f.createChallenge(t, title)
		second := f.createChallenge(t, title)

		assert.LessOrEqual(t, len(first.Slug), maxSlugBase)
		assert.False(t, strings.HasSuffix(first.Slug, "-"))
		assert.Equal(t, first.Slug+"-2", second.Slug)
		assert.LessOrEqual(t, len(second.Slug), 280)
	}
}

func TestTruncateSlug(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"zhong-zhong-zhong", 14, "zhong-zhong"},
		{"zhong-zhong-zhong", 11, "zhong-zhong"},
		{"abcdefghij", 4, "abcd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateSlug(tt.in, tt.max), tt.in)
	}
}
