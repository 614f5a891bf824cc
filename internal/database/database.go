package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdg-garage/challenge-api/internal/config"
	"github.com/gdg-garage/challenge-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table the application owns, in migration order.
var Models = []any{
	&models.User{},
	&models.APIKey{},
	&models.Challenge{},
	&models.Achievement{},
	&models.Profile{},
}

func Connect(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}

// Open connects to the configured driver. SQLite connections get foreign
// keys switched on so the ON DELETE rules of the models are enforced.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DriverSQLite, "":
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabasePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	gormCfg := &gorm.Config{}
	if cfg.LogSQL {
		gormCfg.Logger = logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Info,
			Colorful:      false,
		})
	}

	return gorm.Open(dialector, gormCfg)
}

// SQLiteDSN appends the foreign key pragma to a sqlite path.
func SQLiteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + path + "?_foreign_keys=on"
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}
