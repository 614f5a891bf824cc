package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/challenge-api/internal/accounts"
	"github.com/gdg-garage/challenge-api/internal/auth"
	"github.com/gdg-garage/challenge-api/internal/challenges"
	"github.com/gdg-garage/challenge-api/internal/config"
	"github.com/gdg-garage/challenge-api/internal/database"
	"github.com/gdg-garage/challenge-api/internal/handlers"
	"github.com/gdg-garage/challenge-api/internal/notifier"
	"github.com/gdg-garage/challenge-api/internal/profiles"
	"github.com/gdg-garage/challenge-api/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Storage for uploaded images
	var store storage.Storage
	var local *storage.Local
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3Store, err := storage.NewS3FromOptions(context.Background(), storage.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		store = s3Store
	default:
		disk, err := storage.NewDisk(cfg.MediaRoot, cfg.MediaURL)
		if err != nil {
			log.Fatalf("Failed to initialize media storage: %v", err)
		}
		store, local = disk, disk
	}

	// Moderation notifications
	var n notifier.Notifier = notifier.Nop{}
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			n = notifier.NewDiscordNotifier(session, cfg.DiscordModerationChannelID)
		}
	}

	// Every new account gets its profile in the same transaction.
	accountService := accounts.NewService(db)
	accountService.OnSave(profiles.SyncOnSave)

	challengeService := challenges.NewService(db, store, n)
	profileService := profiles.NewService(db, store)

	authHandler := auth.NewAuthHandler(cfg, db, accountService)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:         authHandler,
		Challenges:   handlers.NewChallengeHandler(challengeService, store, authHandler, cfg.MaxUploadBytes),
		Achievements: handlers.NewAchievementHandler(challengeService, store, authHandler, cfg.MaxUploadBytes),
		Profiles:     handlers.NewProfileHandler(profileService, challengeService, store, authHandler, cfg.MaxUploadBytes),
		APIKeys:      handlers.NewAPIKeyHandler(db, authHandler),
	})

	if local != nil && strings.HasPrefix(cfg.MediaURL, "/") {
		prefix := "/" + strings.Trim(cfg.MediaURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, local.Handler()))
	}

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
