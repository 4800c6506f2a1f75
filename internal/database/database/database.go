// Package database opens and inspects the gorm connection for PostgreSQL or SQLite.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/festy23/reviewdesk/internal/database/config"
	"github.com/festy23/reviewdesk/internal/database/pool"
	"github.com/festy23/reviewdesk/pkg/retry"
)

// New creates a database connection using environment variables.
func New(logger *zap.SugaredLogger) (*gorm.DB, error) {
	return NewWithConfig(config.LoadConfigFromEnv(), logger)
}

// NewWithConfig opens the configured driver, retrying transient failures,
// and applies the pool settings for that driver.
func NewWithConfig(cfg config.Config, logger *zap.SugaredLogger) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialector, poolCfg := dialectorFor(cfg)
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}

	retryCfg := config.LoadRetryConfigFromEnv()
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warnw("database connection failed, retrying",
			"driver", cfg.Driver,
			"attempt", attempt,
			"delay", delay,
			"error", config.SanitizeError(err, cfg),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := retry.DoWithResult(ctx, retryCfg, func() (*gorm.DB, error) {
		db, err := gorm.Open(dialector, gormCfg)
		if err != nil {
			return nil, err
		}
		if err := HealthCheck(ctx, db); err != nil {
			_ = Close(db)
			return nil, err
		}
		return db, nil
	})
	if err != nil {
		return nil, config.SanitizeError(err, cfg)
	}

	if err := pool.SetupConnectionPool(db, poolCfg); err != nil {
		return nil, fmt.Errorf("failed to setup connection pool: %w", err)
	}

	logger.Infow("database connected", "driver", cfg.Driver)
	return db, nil
}

func dialectorFor(cfg config.Config) (gorm.Dialector, pool.Config) {
	if cfg.Driver == config.DriverSQLite {
		dsn := cfg.Path
		if dsn != ":memory:" {
			dsn += "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
		}
		return sqlite.Open(dsn), pool.SQLitePoolConfig()
	}
	return postgres.Open(config.BuildDSN(cfg)), pool.LoadPoolConfigFromEnv()
}

// HealthCheck verifies database connection availability.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// GetStats returns database connection pool statistics.
func GetStats(db *gorm.DB) (*sql.DBStats, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return &stats, nil
}
