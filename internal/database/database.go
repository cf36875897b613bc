// Package database wraps GORM with the thin session/transaction/generic-
// repository layer the persistence package builds its stores on top of.
package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps a *gorm.DB with the small surface the persistence layer
// needs: a context-scoped session, a dialect check, and lifecycle control.
type Database struct {
	gdb      *gorm.DB
	postgres bool
}

// New opens a database connection from a DSN of the form "sqlite:///path"
// or a standard postgres:// connection string.
func New(dsn string) (Database, error) {
	var dialector gorm.Dialector
	isPG := false

	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(dsn, "sqlite:///")
		if path == dsn {
			path = strings.TrimPrefix(dsn, "sqlite://")
		}
		dialector = sqlite.Open(path)
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
		isPG = true
	default:
		// Bare filesystem path: treat as sqlite.
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return Database{}, fmt.Errorf("open database: %w", err)
	}

	return Database{gdb: gdb, postgres: isPG}, nil
}

// NewFromGORM wraps an already-open *gorm.DB, used by tests that set up an
// in-memory sqlite database directly.
func NewFromGORM(gdb *gorm.DB, isPostgres bool) Database {
	return Database{gdb: gdb, postgres: isPostgres}
}

// IsPostgres reports whether this database is backed by Postgres. Some
// queries (trigram fuzzy match) are only available on that backend.
func (d Database) IsPostgres() bool { return d.postgres }

// GORM returns the underlying *gorm.DB for queries the generic repository
// layer doesn't cover (raw SQL, recursive CTEs).
func (d Database) GORM() *gorm.DB { return d.gdb }

// Session returns a *gorm.DB bound to ctx, so GORM hooks and cancellation
// propagate through the call.
func (d Database) Session(ctx context.Context) *gorm.DB {
	return d.gdb.WithContext(ctx)
}

// AutoMigrate runs schema migration for the given models.
func (d Database) AutoMigrate(models ...any) error {
	return d.gdb.AutoMigrate(models...)
}

// Close releases the underlying connection pool.
func (d Database) Close() error {
	sqlDB, err := d.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
