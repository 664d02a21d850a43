// Package model contains the database models used across the application
package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"` // always stored lowercased
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:user"`
	Verified     bool   `gorm:"default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	ResetTokens []ResetToken `gorm:"foreignKey:UserID"`
	Sessions    []Session    `gorm:"foreignKey:UserID"`
}
