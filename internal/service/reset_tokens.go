// Package service contains the pieces of the application that sit
// between the handlers and the database
package service

import (
	"errors"
	"fmt"
	"time"

	"bitwise74/member-portal/model"
	"bitwise74/member-portal/pkg/security"
	"bitwise74/member-portal/util"

	"gorm.io/gorm"
)

const (
	resetTokenSize = 32
	resetTokenTTL  = time.Hour
)

var (
	ErrTokenNotFound = errors.New("reset token not found")
	ErrTokenExpired  = errors.New("reset token expired")
	ErrUserNotFound  = errors.New("user not found")
)

// ResetTokens owns the password reset token lifecycle: issue,
// validate, consume. A token is valid iff its row exists and hasn't
// expired. Consuming deletes the row so it can never be replayed.
type ResetTokens struct {
	DB     *gorm.DB
	Hasher *security.Hasher
}

func NewResetTokens(db *gorm.DB, h *security.Hasher) *ResetTokens {
	return &ResetTokens{DB: db, Hasher: h}
}

// Issue creates a fresh token for userID and returns it. Older tokens
// for the same user are removed first, so at most one stays valid.
func (r *ResetTokens) Issue(userID string) (string, error) {
	token, err := util.GenerateToken(resetTokenSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token, %w", err)
	}

	err = r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.ResetToken{}).Error; err != nil {
			return err
		}

		return tx.Create(&model.ResetToken{
			UserID:    userID,
			Token:     token,
			ExpiresAt: time.Now().Add(resetTokenTTL),
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store reset token, %w", err)
	}

	return token, nil
}

// Validate resolves a token string to the user it belongs to.
// Returns ErrTokenNotFound for unknown tokens and ErrTokenExpired for
// existing ones past their expiry.
func (r *ResetTokens) Validate(token string) (string, error) {
	var rec model.ResetToken

	if err := r.DB.Where("token = ?", token).First(&rec).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrTokenNotFound
		}

		return "", fmt.Errorf("failed to look up reset token, %w", err)
	}

	if !rec.ExpiresAt.After(time.Now()) {
		return "", ErrTokenExpired
	}

	return rec.UserID, nil
}

// Consume validates the token and, in one transaction, rewrites the
// owner's password hash and deletes the token row. Nothing is mutated
// when validation fails, and a consumed token validates as NotFound
// from then on.
func (r *ResetTokens) Consume(token, plaintext string) error {
	userID, err := r.Validate(token)
	if err != nil {
		return err
	}

	hash, err := r.Hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("failed to hash new password, %w", err)
	}

	return r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", userID).Update("password_hash", hash)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return tx.Where("token = ?", token).Delete(&model.ResetToken{}).Error
	})
}
