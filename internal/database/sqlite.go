package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteDB is the embedded entity store used for single-node deployments
// and tests.
type SQLiteDB struct {
	Conn *sqlx.DB
}

func OpenSQLite(ctx context.Context, dsn string) (*SQLiteDB, error) {
	conn, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite serializes writers; one connection avoids SQLITE_BUSY under
	// concurrent restores.
	conn.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	slog.Info("sqlite opened", "dsn", dsn)
	return &SQLiteDB{Conn: conn}, nil
}

func (db *SQLiteDB) Close() error {
	if db.Conn == nil {
		return nil
	}
	return db.Conn.Close()
}

func (db *SQLiteDB) Health(ctx context.Context) error {
	return db.Conn.PingContext(ctx)
}
