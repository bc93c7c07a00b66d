// Package sqlkv implements store.KV on a single relational table, shared by
// the sqlite and postgres backends. The table is created by each backend's
// migrations:
//
//	kv_entries(key TEXT PRIMARY KEY, value <bytes> NOT NULL, updated_at <timestamp>)
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// Dialect holds the statements and error mapping of one SQL engine.
type Dialect struct {
	// Name identifies the dialect in logs.
	Name string

	// Get selects value by key. One placeholder: key.
	Get string

	// Upsert inserts or replaces a value. Placeholders: key, value, updated_at.
	Upsert string

	// Delete removes a key. One placeholder: key.
	Delete string

	// MapError translates driver errors into store errors. Optional.
	MapError func(error) error
}

func (d Dialect) mapError(err error) error {
	if err == nil || d.MapError == nil {
		return err
	}
	return d.MapError(err)
}

var _ store.BatchKV = (*KV)(nil)

// KV implements store.BatchKV on a *sql.DB.
type KV struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// New creates a KV. The kv_entries table must already exist.
func New(db *sql.DB, dialect Dialect, logger *slog.Logger) (*KV, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if dialect.Get == "" || dialect.Upsert == "" || dialect.Delete == "" {
		return nil, fmt.Errorf("dialect %q is incomplete", dialect.Name)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KV{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "sqlkv"), slog.String("dialect", dialect.Name)),
	}, nil
}

// Get implements store.KV.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	return k.get(ctx, k.db, key)
}

func (k *KV) get(ctx context.Context, db store.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, k.dialect.Get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, k.logger).Error("failed to read key",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, k.dialect.mapError(err)
	}
	return value, nil
}

// Set implements store.KV.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	return k.set(ctx, k.db, key, value)
}

func (k *KV) set(ctx context.Context, db store.DBTX, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	if _, err := db.ExecContext(ctx, k.dialect.Upsert, key, value, time.Now().UTC()); err != nil {
		logger.FromContextOrDefault(ctx, k.logger).Error("failed to write key",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return k.dialect.mapError(err)
	}
	return nil
}

// Delete implements store.KV.
func (k *KV) Delete(ctx context.Context, key string) error {
	if _, err := k.db.ExecContext(ctx, k.dialect.Delete, key); err != nil {
		return k.dialect.mapError(err)
	}
	return nil
}

// SetMany implements store.BatchKV in one transaction.
func (k *KV) SetMany(ctx context.Context, entries map[string][]byte) error {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	// Fixed order keeps lock acquisition consistent across writers.
	sort.Strings(keys)

	return store.RunInTransaction(ctx, k.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, key := range keys {
			if err := k.set(ctx, tx, key, entries[key]); err != nil {
				return err
			}
		}
		return nil
	})
}
