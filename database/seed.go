package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bookstore-restful/auth"
	"bookstore-restful/config"
	"bookstore-restful/models"
)

// SeedAdmin creates the configured bootstrap administrator if no user with
// that email exists yet. It does nothing when admin-email is empty.
func SeedAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, zl *zap.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		zl.Info("Bootstrap admin already exists", zap.String("email", cfg.AdminEmail), zap.String("role", existing.Role))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("look up bootstrap admin: %w", err)
	}

	hashedPassword, err := auth.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: hashedPassword,
		Role:     models.RoleAdmin,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	zl.Info("Created bootstrap admin user", zap.Uint("id", admin.ID), zap.String("email", admin.Email))
	return nil
}
