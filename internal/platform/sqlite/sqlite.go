// Package sqlite provides the file-backed storage driver on modernc.org/sqlite,
// a pure Go SQLite engine.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/platform/sqlkv"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect is the sqlkv dialect for SQLite.
var Dialect = sqlkv.Dialect{
	Name: "sqlite",
	Get:  `SELECT value FROM kv_entries WHERE key = ?`,
	Upsert: `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	Delete: `DELETE FROM kv_entries WHERE key = ?`,
}

// Open opens the database at dsn and applies migrations. A single connection
// is used; SQLite serializes writers anyway.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := sqlkv.Migrate(ctx, db, "sqlite3", migrations, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite database ready", slog.String("dsn", dsn))
	return db, nil
}

// NewKV returns a key-value backend on db.
func NewKV(db *sql.DB, logger *slog.Logger) (*sqlkv.KV, error) {
	return sqlkv.New(db, Dialect, logger)
}
