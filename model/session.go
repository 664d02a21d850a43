package model

import "time"

// Session binds a browser cookie to a user. Rows with an empty UserID
// are anonymous sessions that only carry flash notices across redirects.
type Session struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index"`
	ExpiresAt time.Time `gorm:"index"`
	Flashes   FlashList `gorm:"type:text"`
	CreatedAt time.Time
}
