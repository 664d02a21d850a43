package service

import (
	"time"

	"bitwise74/member-portal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweep periodically deletes expired reset tokens and sessions. Purely
// housekeeping: token and session validity never depends on this having
// run, expired rows are rejected at read time regardless.
func Sweep(every time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(every)

	zap.L().Debug("Expiry sweep attached", zap.Duration("tick_every", every))

	go func() {
		for range ticker.C {
			sweepOnce(db)
		}
	}()
}

func sweepOnce(db *gorm.DB) {
	now := time.Now()

	if err := db.Where("expires_at < ?", now).Delete(&model.ResetToken{}).Error; err != nil {
		zap.L().Error("Failed to sweep expired reset tokens", zap.Error(err))
	}

	if err := db.Where("expires_at < ?", now).Delete(&model.Session{}).Error; err != nil {
		zap.L().Error("Failed to sweep expired sessions", zap.Error(err))
	}
}
