// Package kvstore implements the record store on top of a byte-oriented
// key-value backend. Each collection (decks, cards, sessions, backups) is kept
// as one JSON array under "<prefix>:<collection>" and cached in process after
// the first read.
package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// Collection names, appended to the key prefix.
const (
	collectionDecks    = "decks"
	collectionCards    = "cards"
	collectionSessions = "sessions"
	collectionBackups  = "backups"
)

// Defaults used when Config leaves a field empty.
const (
	DefaultKeyPrefix   = "flashcards"
	DefaultBackupLimit = 5
)

// Config configures a Store.
type Config struct {
	// KeyPrefix namespaces every key.
	KeyPrefix string

	// BackupLimit is the number of backups kept; older ones are dropped.
	BackupLimit int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

var (
	_ store.Storage     = (*Store)(nil)
	_ store.BackupStore = (*Store)(nil)
)

// Store implements store.Storage and store.BackupStore over a store.KV.
// All operations are serialized by a single mutex; each mutation rewrites the
// affected collection.
type Store struct {
	kv          store.KV
	prefix      string
	backupLimit int
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.Mutex
	decks    cache[*domain.Deck]
	cards    cache[*domain.Card]
	sessions cache[*domain.StudySession]
}

type cache[T any] struct {
	items  []T
	loaded bool
}

func (c *cache[T]) reset() {
	c.items = nil
	c.loaded = false
}

type cloner[T any] interface {
	Clone() T
}

// New creates a Store. It returns an error if kv is nil.
func New(kv store.KV, cfg Config, logger *slog.Logger) (*Store, error) {
	if kv == nil {
		return nil, errors.New("kv backend cannot be nil")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.BackupLimit <= 0 {
		cfg.BackupLimit = DefaultBackupLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		kv:          kv,
		prefix:      cfg.KeyPrefix,
		backupLimit: cfg.BackupLimit,
		now:         cfg.Now,
		logger:      logger.With(slog.String("component", "kv_store")),
	}, nil
}

// Key returns the full backend key of a collection.
func (s *Store) Key(collection string) string {
	return s.prefix + ":" + collection
}

// invalidate drops every cached collection.
func (s *Store) invalidate() {
	s.decks.reset()
	s.cards.reset()
	s.sessions.reset()
}

// decodeCollection decodes a JSON array element by element. Elements that do
// not decode are skipped and counted. A value that is not a JSON array is
// reported as store.ErrCorruptData.
func decodeCollection[T any](raw []byte) ([]T, int, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", store.ErrCorruptData, err)
	}

	items := make([]T, 0, len(elems))
	skipped := 0
	for _, elem := range elems {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			skipped++
			continue
		}
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

// readRaw loads and decodes a collection without touching the cache.
// A missing key is an empty collection.
func readRaw[T any](ctx context.Context, s *Store, name string) ([]T, int, error) {
	raw, err := s.kv.Get(ctx, s.Key(name))
	if errors.Is(err, store.ErrKeyNotFound) {
		return []T{}, 0, nil
	}
	if err != nil {
		return nil, 0, store.NewStoreError(name, "load", "failed to read collection", err)
	}
	items, skipped, err := decodeCollection[T](raw)
	if err != nil {
		return nil, 0, store.NewStoreError(name, "load", "failed to decode collection", err)
	}
	return items, skipped, nil
}

// read returns the cached collection, loading it on first use.
// The returned slice is shared with the cache and must not be modified.
func read[T any](ctx context.Context, s *Store, name string, c *cache[T]) ([]T, error) {
	if c.loaded {
		return c.items, nil
	}

	items, skipped, err := readRaw[T](ctx, s, name)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Warn("skipped undecodable records",
			slog.String("collection", name),
			slog.Int("skipped", skipped))
	}

	c.items = items
	c.loaded = true
	return items, nil
}

// write replaces a collection in the backend and the cache.
func write[T any](ctx context.Context, s *Store, name string, c *cache[T], items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return store.NewStoreError(name, "save", "failed to encode collection", err)
	}
	if err := s.kv.Set(ctx, s.Key(name), raw); err != nil {
		return store.NewStoreError(name, "save", "failed to write collection", err)
	}
	c.items = items
	c.loaded = true
	return nil
}

func cloneAll[T cloner[T]](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

// upsert returns a copy of items with item replacing the element of the same
// key, or appended when none matches.
func upsert[T any, K comparable](items []T, item T, key func(T) K) []T {
	out := make([]T, 0, len(items)+1)
	replaced := false
	for _, existing := range items {
		if key(existing) == key(item) {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, item)
	}
	return out
}

// remove returns a copy of items without the element matching id, and whether
// one was found.
func remove[T any, K comparable](items []T, id K, key func(T) K) ([]T, bool) {
	out := make([]T, 0, len(items))
	found := false
	for _, existing := range items {
		if key(existing) == id {
			found = true
			continue
		}
		out = append(out, existing)
	}
	return out, found
}

func invalidEntity(entity, operation string, err error) error {
	return store.NewStoreError(entity, operation, "validation failed", fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
}
