// Package redis provides the Redis storage driver. Each collection is stored
// as a plain string value; SetMany runs in a MULTI/EXEC transaction.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/redact"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

const pingTimeout = 10 * time.Second

// Open parses a redis:// URL, connects and verifies the server responds.
func Open(ctx context.Context, url string, logger *slog.Logger) (*goredis.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %s", redact.Error(err))
	}

	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("redis connection established", slog.String("url", redact.DSN(url)))
	return client, nil
}

var _ store.BatchKV = (*KV)(nil)

// KV implements store.BatchKV on a Redis client.
type KV struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// NewKV wraps client.
func NewKV(client goredis.UniversalClient, logger *slog.Logger) (*KV, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KV{
		client: client,
		logger: logger.With(slog.String("component", "redis_kv")),
	}, nil
}

// Get implements store.KV.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := k.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, k.logger).Error("failed to read key",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, err
	}
	return value, nil
}

// Set implements store.KV. Values never expire.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, key, value, 0).Err(); err != nil {
		logger.FromContextOrDefault(ctx, k.logger).Error("failed to write key",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Delete implements store.KV.
func (k *KV) Delete(ctx context.Context, key string) error {
	return k.client.Del(ctx, key).Err()
}

// SetMany implements store.BatchKV.
func (k *KV) SetMany(ctx context.Context, entries map[string][]byte) error {
	_, err := k.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for key, value := range entries {
			pipe.Set(ctx, key, value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}
	return nil
}
