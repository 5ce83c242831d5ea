package infra

import (
	"fmt"
	"strings"

	"cajapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBOptions tunes the connection pool.
type DBOptions struct {
	MaxOpenConns int
	MaxIdleConns int
}

// NewDatabase opens a GORM connection, migrates the ledger tables and applies
// the idempotent patches GORM cannot express (partial unique index).
//
// DSNs starting with "sqlite://" or "file:" use the SQLite driver; anything
// else is handed to the Postgres driver.
func NewDatabase(dsn string, opts DBOptions) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if db.Dialector.Name() == "sqlite" {
		// SQLite has a single writer; one connection serializes transactions
		// instead of failing them with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if opts.MaxOpenConns <= 0 {
			opts.MaxOpenConns = 25
		}
		if opts.MaxIdleConns <= 0 {
			opts.MaxIdleConns = 5
		}
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn)
	default:
		return postgres.Open(dsn)
	}
}

// RunMigrations creates or updates the ledger tables and applies schema
// patches. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Secuencia{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot express.
// Both statements are valid on Postgres and SQLite.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one open session across every service instance.
		{"uq_sesiones_caja_abierta", `
CREATE UNIQUE INDEX IF NOT EXISTS uq_sesiones_caja_abierta
    ON sesiones_caja (estado)
    WHERE estado = 'abierta'`},
		// History lookups for the continuity recommendation.
		{"idx_sesiones_caja_closed_at", `
CREATE INDEX IF NOT EXISTS idx_sesiones_caja_closed_at
    ON sesiones_caja (closed_at)
    WHERE estado = 'cerrada'`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
