package service

import (
	"fmt"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/pkg/security"
	"bitwise74/member-portal/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const userIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// AdminBootstrap creates the first admin account at startup when
// admin.email and admin.password are configured. Runs are idempotent:
// once any admin exists this is a no-op, and a configured email that's
// already taken by a regular account only logs a warning.
func AdminBootstrap(db *gorm.DB, hasher *security.Hasher) error {
	email := validators.NormalizeEmail(viper.GetString("admin.email"))
	password := viper.GetString("admin.password")

	if email == "" || password == "" {
		return nil
	}

	var adminCount int64

	if err := db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("failed to check for existing admin, %w", err)
	}

	if adminCount > 0 {
		return nil
	}

	var emailCount int64

	if err := db.Model(&model.User{}).Where("email = ?", email).Count(&emailCount).Error; err != nil {
		return fmt.Errorf("failed to check admin email, %w", err)
	}

	if emailCount > 0 {
		zap.L().Warn("Admin account not created, configured email is already in use", zap.String("email", email))
		return nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password, %w", err)
	}

	id, err := gonanoid.Generate(userIDAlphabet, 16)
	if err != nil {
		return fmt.Errorf("failed to generate admin id, %w", err)
	}

	username := viper.GetString("admin.username")
	if username == "" {
		username = "admin"
	}

	if err := db.Create(&model.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Verified:     true,
	}).Error; err != nil {
		return fmt.Errorf("failed to create admin user, %w", err)
	}

	zap.L().Info("First admin user created, change the configured password after first login", zap.String("email", email))
	return nil
}
