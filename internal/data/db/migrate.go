package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/imtrack-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureCertificateIndexes adds the partial unique index that keeps one
// finalized original certificate per author and issuance cycle. Reissues
// reference the row they replace and are left out of the index.
func EnsureCertificateIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_certificate_material_user_cycle
		ON certificate (material_id, user_id, cycle)
		WHERE verification_id IS NOT NULL AND reissue_of IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_certificate_material_user_cycle: %w", err)
	}
	return nil
}

func EnsureMaterialIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_instructional_material_live_status
		ON instructional_material (status, updated_at DESC)
		WHERE is_deleted = false;
	`).Error; err != nil {
		return fmt.Errorf("create idx_instructional_material_live_status: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCertificateIndexes(s.db); err != nil {
		s.log.Error("Certificate index migration failed", "error", err)
		return err
	}
	if err := EnsureMaterialIndexes(s.db); err != nil {
		s.log.Error("Material index migration failed", "error", err)
		return err
	}
	return nil
}
