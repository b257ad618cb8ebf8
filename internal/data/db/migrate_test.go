package db

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
)

func TestMigrationsRunOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := AutoMigrateAll(db); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	// Partial indexes use syntax sqlite also accepts.
	if err := EnsureCertificateIndexes(db); err != nil {
		t.Fatalf("EnsureCertificateIndexes: %v", err)
	}
	if err := EnsureMaterialIndexes(db); err != nil {
		t.Fatalf("EnsureMaterialIndexes: %v", err)
	}
	for _, table := range []string{"users", "instructional_material", "certificate", "author_link", "submission", "activity_log", "evaluation"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
	for table, col := range map[string]string{"instructional_material": "evaluation_id", "submission": "submitted_at", "evaluation": "total"} {
		if !db.Migrator().HasColumn(table, col) {
			t.Fatalf("missing column %s.%s", table, col)
		}
	}
}

func TestDSN(t *testing.T) {
	cfg := Config{User: "u", Password: "p", Host: "h", Port: "5432", Name: "n", SSLMode: "disable"}
	if got, want := cfg.DSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}

func TestOpenSQLiteMigrateAndPing(t *testing.T) {
	db, err := OpenSQLite(logger.Nop(), "file:open_sqlite_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := MigrateAll(db); err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	// Idempotent.
	if err := MigrateAll(db); err != nil {
		t.Fatalf("second MigrateAll: %v", err)
	}
	if err := (Pinger{DB: db}).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
