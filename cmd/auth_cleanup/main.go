package main

import (
	"context"
	"log"
	"time"

	"clinicdesk/internal/config"
	"clinicdesk/internal/database"
	"clinicdesk/internal/domain"
	"clinicdesk/internal/repository"

	"github.com/joho/godotenv"
)

// Removes refresh token rows that can never be presented again: expired
// ones, and tombstoned ones past a retention window kept for reuse
// forensics. Run from cron.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	ctx := context.Background()
	tokenRepo := repository.NewRefreshTokenRepository(db)

	expired, err := tokenRepo.DeleteExpired(ctx)
	if err != nil {
		log.Fatalf("cleanup expired tokens failed: %v", err)
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	res := db.Where("status <> ? AND created_at < ?", domain.TokenActive, cutoff).
		Delete(&domain.RefreshToken{})
	if res.Error != nil {
		log.Fatalf("cleanup stale tombstones failed: %v", res.Error)
	}

	log.Printf("auth cleanup completed: expired=%d stale_tombstones=%d", expired, res.RowsAffected)
}
