package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-flashcards/internal/config"
	"github.com/phrazzld/scry-flashcards/internal/platform/memory"
	"github.com/phrazzld/scry-flashcards/internal/platform/postgres"
	"github.com/phrazzld/scry-flashcards/internal/platform/redis"
	"github.com/phrazzld/scry-flashcards/internal/platform/sqlite"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// storageBackend is an opened key-value backend with its lifecycle hooks.
type storageBackend struct {
	kv    store.KV
	ping  func(ctx context.Context) error
	close func() error
}

// openStorage opens the backend named by cfg.Driver. SQL backends are
// migrated before they are returned.
func openStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*storageBackend, error) {
	switch cfg.Driver {
	case "memory":
		return &storageBackend{
			kv:    memory.NewKV(),
			ping:  func(context.Context) error { return nil },
			close: func() error { return nil },
		}, nil

	case "sqlite", "postgres":
		open, newKV := sqlite.Open, sqlite.NewKV
		if cfg.Driver == "postgres" {
			open, newKV = postgres.Open, postgres.NewKV
		}

		db, err := open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		kv, err := newKV(db, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storageBackend{kv: kv, ping: db.PingContext, close: db.Close}, nil

	case "redis":
		client, err := redis.Open(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, err
		}
		kv, err := redis.NewKV(client, logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &storageBackend{
			kv:    kv,
			ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
