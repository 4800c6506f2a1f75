// Package migrate brings the schema up to date: SQL migrations through
// golang-migrate for PostgreSQL, gorm AutoMigrate for SQLite.
package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	accessModel "github.com/festy23/reviewdesk/internal/access/model"
	appConfig "github.com/festy23/reviewdesk/internal/config"
	"github.com/festy23/reviewdesk/internal/database/config"
	dispatchModel "github.com/festy23/reviewdesk/internal/dispatch/model"
	emailUsageModel "github.com/festy23/reviewdesk/internal/emailusage/model"
	magicLinkModel "github.com/festy23/reviewdesk/internal/magiclink/model"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
	reviewModel "github.com/festy23/reviewdesk/internal/review/model"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
)

// GetMigrationsPath returns the path to the SQL migrations directory.
func GetMigrationsPath() string {
	return appConfig.GetEnv("MIGRATIONS_PATH", "migrations")
}

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&userModel.User{},
		&accessModel.Session{},
		&reviewModel.Review{},
		&reviewModel.ReviewAssignee{},
		&reviewModel.ReviewTag{},
		&reviewModel.ReviewGoal{},
		&reviewModel.Comment{},
		&magicLinkModel.MagicLink{},
		&notificationModel.Notification{},
		&dispatchModel.EmailSettings{},
		&emailUsageModel.EmailUsage{},
	}
}

// Run migrates db according to driver.
func Run(db *gorm.DB, driver string) error {
	switch driver {
	case config.DriverPostgres:
		return Migrate(db)
	case config.DriverSQLite:
		return AutoMigrate(db)
	default:
		return fmt.Errorf("unsupported driver for migrations: %s", driver)
	}
}

// AutoMigrate creates or updates tables from the gorm models.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// Migrate applies the SQL migrations from GetMigrationsPath to a PostgreSQL database.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	migrationsPath, err := filepath.Abs(GetMigrationsPath())
	if err != nil {
		return fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}
	if _, statErr := os.Stat(migrationsPath); os.IsNotExist(statErr) {
		return fmt.Errorf("migrations directory does not exist: %s", migrationsPath)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
