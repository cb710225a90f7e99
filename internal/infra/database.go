package infra

import (
	"fmt"

	"github.com/dzn7/meuburguer-sub000/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the ledger tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates/updates the schema. Also used by integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.RegisterSession{},
		&model.CashMovement{},
		&model.Category{},
		&model.Staff{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches applies the uniqueness guarantees behind the two
// procedural check-then-act paths:
//   - at most one open session,
//   - at most one movement per (session, source order).
//
// The service-layer checks remain the fast path; these indexes make the
// invariants hold under true concurrency. Each statement uses IF NOT EXISTS
// so re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_register_sessions_single_open
		   ON register_sessions (status)
		   WHERE status = 'open'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uidx_cash_movements_session_order
		   ON cash_movements (session_id, source_order_id)
		   WHERE source_order_id IS NOT NULL`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("schema patch: %w", err)
		}
	}
	return nil
}
