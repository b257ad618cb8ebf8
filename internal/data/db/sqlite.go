package db

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

// OpenSQLite opens a local database file for single-node runs.
func OpenSQLite(log *logger.Logger, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	log.Info("Opened SQLite database", "path", path)
	return db, nil
}

// MigrateAll runs table migrations and the hand-written indexes.
func MigrateAll(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return err
	}
	if err := EnsureCertificateIndexes(db); err != nil {
		return err
	}
	return EnsureMaterialIndexes(db)
}

type Pinger struct {
	DB *gorm.DB
}

func (p Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
