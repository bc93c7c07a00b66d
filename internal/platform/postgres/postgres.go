package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/scry-flashcards/internal/platform/sqlkv"
	"github.com/phrazzld/scry-flashcards/internal/redact"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Connection pool settings.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Dialect is the sqlkv dialect for PostgreSQL.
var Dialect = sqlkv.Dialect{
	Name: "postgres",
	Get:  `SELECT value FROM kv_entries WHERE key = $1`,
	Upsert: `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
	Delete:   `DELETE FROM kv_entries WHERE key = $1`,
	MapError: MapError,
}

// Open connects to the database at dsn, verifies connectivity and applies
// migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	safeDSN := redact.DSN(dsn)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to open database connection: %w (check connection string format and credentials)",
			err,
		)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		logger.Error("database ping failed",
			slog.String("dsn", safeDSN),
			slog.String("error", redact.Error(err)))
		return nil, pingError(err)
	}

	if err := sqlkv.Migrate(ctx, db, "postgres", migrations, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("database connection established", slog.String("dsn", safeDSN))
	return db, nil
}

func pingError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf(
			"database ping timed out after %s: %w (check network connectivity and server load)",
			pingTimeout,
			err,
		)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf(
			"network error connecting to database: %w (check hostname, port, and network connectivity)",
			err,
		)
	}
	return fmt.Errorf("failed to ping database: %w", err)
}

// NewKV returns a key-value backend on db.
func NewKV(db *sql.DB, logger *slog.Logger) (*sqlkv.KV, error) {
	return sqlkv.New(db, Dialect, logger)
}
