package database

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/versewise/internal/logging"
	"github.com/codyseavey/versewise/internal/models"
)

// Open connects to the sqlite database at dbPath, migrates the schema and
// runs data migrations. Use ":memory:" for an ephemeral database.
func Open(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	logging.L().Info("database connected", zap.String("path", dbPath))

	if err := db.AutoMigrate(&models.TranslationCache{}); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("data migration failed: %w", err)
	}

	logging.L().Info("database migration completed")
	return db, nil
}
