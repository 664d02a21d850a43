package model

import "time"

// ResetToken is a single-use password reset capability. A token is valid
// as long as the row exists and ExpiresAt is in the future. Consuming a
// token deletes the row, issuing a new one deletes any older rows for
// the same user.
type ResetToken struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"index"`
	Token     string `gorm:"uniqueIndex"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
