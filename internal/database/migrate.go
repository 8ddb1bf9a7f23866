package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"ypg-dashboard/internal/category"
)

//go:embed migrations/001_initial.up.sql
var initialMigrationSQL string

//go:embed migrations/sqlite_001_initial.up.sql
var sqliteInitialMigrationSQL string

func requiredTables() []string {
	descriptors := category.All()
	tables := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		tables = append(tables, d.Table)
	}
	return tables
}

// EnsureSchema creates every category table that is missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	tables := requiredTables()
	exists, err := db.hasAllTables(ctx, tables)
	if err != nil {
		return fmt.Errorf("check existing tables: %w", err)
	}
	if exists {
		slog.Info("database schema ensured")
		return nil
	}

	slog.Info("database schema missing tables; applying initial migration")
	if _, err := db.Pool.Exec(ctx, initialMigrationSQL); err != nil {
		return fmt.Errorf("apply initial migration: %w", err)
	}

	exists, err = db.hasAllTables(ctx, tables)
	if err != nil {
		return fmt.Errorf("re-check tables after migration: %w", err)
	}
	if !exists {
		return fmt.Errorf("schema initialization incomplete: required tables are still missing")
	}

	slog.Info("database schema ensured")
	return nil
}

func (db *DB) hasAllTables(ctx context.Context, tables []string) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_name = ANY($1)
	`, tables).Scan(&count)
	if err != nil {
		return false, err
	}

	return count == len(tables), nil
}

// EnsureSchema creates every category table that is missing. The statements
// are idempotent so they are applied unconditionally.
func (db *SQLiteDB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Conn == nil {
		return fmt.Errorf("sqlite connection is not initialized")
	}

	if _, err := db.Conn.ExecContext(ctx, sqliteInitialMigrationSQL); err != nil {
		return fmt.Errorf("apply sqlite migration: %w", err)
	}

	tables := requiredTables()
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN (?)`, tables)
	if err != nil {
		return fmt.Errorf("build table check: %w", err)
	}

	var count int
	if err := db.Conn.GetContext(ctx, &count, query, args...); err != nil {
		return fmt.Errorf("check sqlite tables: %w", err)
	}
	if count != len(tables) {
		return fmt.Errorf("schema initialization incomplete: %d of %d tables present", count, len(tables))
	}

	slog.Info("sqlite schema ensured")
	return nil
}
