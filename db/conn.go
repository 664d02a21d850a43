// Package db opens the database connection and keeps the schema migrated
package db

import (
	"context"
	"fmt"
	"time"

	"bitwise74/member-portal/model"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New connects to the configured database with a bounded retry and
// automigrates all models. The retry gives a database that's still
// starting up a chance, but the process fails hard after the cap
// instead of spinning forever.
func New() (*gorm.DB, error) {
	driver := viper.GetString("database.driver")
	dsn := viper.GetString("database.dsn")

	var db *gorm.DB

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(time.Second))

	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		var err error

		switch driver {
		case "postgres":
			db, err = gorm.Open(postgres.Open(dsn))
		case "sqlite":
			db, err = gorm.Open(sqlite.Open(dsn))
		default:
			return fmt.Errorf("unsupported database driver %q", driver)
		}

		if err != nil {
			zap.L().Warn("Database not reachable yet, retrying", zap.Error(err))
			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database, %w", err)
	}

	err = db.AutoMigrate(model.User{}, model.ResetToken{}, model.Session{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
