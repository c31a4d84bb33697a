package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/scholartrack/backend/internal/config"
	"github.com/scholartrack/backend/internal/database"
	"github.com/scholartrack/backend/internal/logging"
	"github.com/scholartrack/backend/internal/models"
)

// Seeds the initial admin account. Safe to run repeatedly: an existing
// account with the same email is promoted to admin instead of duplicated.
func main() {
	logging.Setup()

	cfg := config.Load()
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.MigrateShared(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	email := strings.ToLower(getEnv("ADMIN_EMAIL", "admin@scholar.com"))
	password := getEnv("ADMIN_PASSWORD", "")
	if password == "" {
		slog.Error("ADMIN_PASSWORD environment variable is required")
		os.Exit(1)
	}

	var existing models.User
	err = db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			slog.Info("admin account already exists", "email", email)
			return
		}
		if err := db.Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
			slog.Error("failed to promote user", "email", email, "error", err)
			os.Exit(1)
		}
		slog.Info("existing user promoted to admin", "email", email)
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("failed to hash password", "error", err)
			os.Exit(1)
		}
		admin := models.User{
			ID:       uuid.New(),
			Email:    email,
			Name:     getEnv("ADMIN_NAME", "Administrateur"),
			Password: string(hash),
			Role:     models.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			slog.Error("failed to create admin", "email", email, "error", err)
			os.Exit(1)
		}
		slog.Info("admin account created", "email", email)
	default:
		slog.Error("lookup failed", "email", email, "error", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
