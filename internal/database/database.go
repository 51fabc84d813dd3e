// Package database owns the lifecycle of the store connection: it is opened
// once by main, handed to the repositories and closed on shutdown.
package database

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newLogger reports slow queries and errors. Lookups that find nothing are
// expected and stay quiet.
func newLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Open connects to the configured driver. It must not be called for the
// memory driver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         newLogger(os.Stdout),
		TranslateError: true,

		// Products are owned by the catalogue and may be removed while cart
		// items still reference them.
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseDSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("driver %q has no database connection", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DBDriver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		// One writer avoids "database is locked" on shared in-memory databases.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate brings the schema up to date using the configured strategy.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	if cfg.DBMigrations == config.MigrateSQL {
		return RunSQLMigrations(cfg.DatabaseDSN)
	}
	return AutoMigrate(db)
}

// AutoMigrate creates or alters the tables from the model definitions.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.CartItem{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	log.Println("Database schema auto-migrated")
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}
