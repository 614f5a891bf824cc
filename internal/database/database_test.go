package database

import (
	"testing"

	"github.com/gdg-garage/challenge-api/internal/config"
	"github.com/gdg-garage/challenge-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:data/app.db?_foreign_keys=on", SQLiteDSN("data/app.db"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DatabaseDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(&config.Config{DatabaseDriver: config.DriverSQLite, DatabasePath: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "api_keys", "challenges", "achievements", "profiles", "challenge_participants", "profile_achievements"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	user := models.User{Username: "migrated"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)
}
