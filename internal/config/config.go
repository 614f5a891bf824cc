package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                       string `mapstructure:"PORT"`
	DatabaseDriver             string `mapstructure:"DATABASE_DRIVER"`
	DatabasePath               string `mapstructure:"DATABASE_PATH"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	LogSQL                     bool   `mapstructure:"LOG_SQL"`
	DiscordClientID            string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret        string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL         string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken            string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordModerationChannelID string `mapstructure:"DISCORD_MODERATION_CHANNEL_ID"`
	JWTSecret                  string `mapstructure:"JWT_SECRET"`
	FrontendURL                string `mapstructure:"FRONTEND_URL"`
	StorageBackend             string `mapstructure:"STORAGE_BACKEND"`
	MediaRoot                  string `mapstructure:"MEDIA_ROOT"`
	MediaURL                   string `mapstructure:"MEDIA_URL"`
	S3Bucket                   string `mapstructure:"S3_BUCKET"`
	S3Region                   string `mapstructure:"S3_REGION"`
	S3Endpoint                 string `mapstructure:"S3_ENDPOINT"`
	S3AccessKeyID              string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey          string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3PublicURL                string `mapstructure:"S3_PUBLIC_URL"`
	MaxUploadBytes             int64  `mapstructure:"MAX_UPLOAD_BYTES"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// LoadConfig reads the configuration from the environment on top of the
// defaults below. It exits the process when the result is unusable.
func LoadConfig() *Config {
	cfg, err := Load(viper.New())
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Load is LoadConfig on a caller-supplied viper instance.
func Load(v *viper.Viper) (*Config, error) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_PATH", "challenges.db")
	v.SetDefault("LOG_SQL", false)
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000/")
	v.SetDefault("STORAGE_BACKEND", StorageLocal)
	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media/")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("MAX_UPLOAD_BYTES", 5<<20)

	for _, key := range []string{
		"DATABASE_URL",
		"DISCORD_CLIENT_ID",
		"DISCORD_CLIENT_SECRET",
		"DISCORD_BOT_TOKEN",
		"DISCORD_MODERATION_CHANNEL_ID",
		"JWT_SECRET",
		"S3_BUCKET",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY_ID",
		"S3_SECRET_ACCESS_KEY",
		"S3_PUBLIC_URL",
	} {
		v.BindEnv(key)
	}

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the combinations that LoadConfig cannot default away.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.MediaRoot == "" {
			return fmt.Errorf("MEDIA_ROOT is required for local storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for s3 storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}
