package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// CreateBackup implements store.BackupStore.
func (s *Store) CreateBackup(ctx context.Context) (*store.Backup, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := read(ctx, s, collectionDecks, &s.decks)
	if err != nil {
		return nil, err
	}
	cards, err := read(ctx, s, collectionCards, &s.cards)
	if err != nil {
		return nil, err
	}
	sessions, err := read(ctx, s, collectionSessions, &s.sessions)
	if err != nil {
		return nil, err
	}

	backup := &store.Backup{
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		Decks:     cloneAll(decks),
		Cards:     cloneAll(cards),
		Sessions:  cloneAll(sessions),
	}

	backups, err := s.readBackups(ctx)
	if err != nil {
		return nil, err
	}
	if indexOfBackup(backups, backup.Timestamp) >= 0 {
		return nil, store.ErrBackupExists
	}
	if err := s.writeBackups(ctx, s.trimBackups(append(backups, backup))); err != nil {
		return nil, err
	}

	log.Info("backup created",
		slog.String("timestamp", backup.Timestamp),
		slog.Int("decks", len(backup.Decks)),
		slog.Int("cards", len(backup.Cards)),
		slog.Int("sessions", len(backup.Sessions)))
	return backup, nil
}

// ListBackups implements store.BackupStore.
func (s *Store) ListBackups(ctx context.Context) ([]store.BackupSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.readBackups(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]store.BackupSummary, 0, len(backups))
	for _, b := range backups {
		out = append(out, b.Summary())
	}
	return out, nil
}

// RestoreBackup implements store.BackupStore.
func (s *Store) RestoreBackup(ctx context.Context, timestamp string) (*store.Backup, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.readBackups(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfBackup(backups, timestamp)
	if idx < 0 {
		return nil, store.ErrBackupNotFound
	}
	backup := backups[idx]

	entries := make(map[string][]byte, 3)
	for name, items := range map[string]any{
		collectionDecks:    backup.Decks,
		collectionCards:    backup.Cards,
		collectionSessions: backup.Sessions,
	} {
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, store.NewStoreError("backup", "restore", "failed to encode "+name, err)
		}
		entries[s.Key(name)] = raw
	}

	if err := s.setMany(ctx, entries); err != nil {
		s.invalidate()
		return nil, store.NewStoreError("backup", "restore", "failed to write collections", err)
	}

	s.decks = cache[*domain.Deck]{items: cloneAll(backup.Decks), loaded: true}
	s.cards = cache[*domain.Card]{items: cloneAll(backup.Cards), loaded: true}
	s.sessions = cache[*domain.StudySession]{items: cloneAll(backup.Sessions), loaded: true}

	log.Info("backup restored",
		slog.String("timestamp", backup.Timestamp),
		slog.Int("decks", len(backup.Decks)),
		slog.Int("cards", len(backup.Cards)),
		slog.Int("sessions", len(backup.Sessions)))
	return backup, nil
}

// DeleteBackup implements store.BackupStore.
func (s *Store) DeleteBackup(ctx context.Context, timestamp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.readBackups(ctx)
	if err != nil {
		return err
	}
	idx := indexOfBackup(backups, timestamp)
	if idx < 0 {
		return store.ErrBackupNotFound
	}
	remaining := append(backups[:idx:idx], backups[idx+1:]...)
	return s.writeBackups(ctx, remaining)
}

// ExportBackup implements store.BackupStore.
func (s *Store) ExportBackup(ctx context.Context, timestamp string, w io.Writer) error {
	s.mu.Lock()
	backups, err := s.readBackups(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	idx := indexOfBackup(backups, timestamp)
	if idx < 0 {
		return store.ErrBackupNotFound
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backups[idx]); err != nil {
		return store.NewStoreError("backup", "export", "failed to write backup", err)
	}
	return nil
}

// importedBackup distinguishes missing collections from empty ones.
type importedBackup struct {
	Timestamp string                  `json:"timestamp"`
	Decks     *[]*domain.Deck         `json:"decks"`
	Cards     *[]*domain.Card         `json:"cards"`
	Sessions  *[]*domain.StudySession `json:"sessions"`
}

// ImportBackup implements store.BackupStore.
func (s *Store) ImportBackup(ctx context.Context, r io.Reader) (*store.Backup, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var in importedBackup
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, store.NewStoreError("backup", "import", "invalid backup file format",
			fmt.Errorf("%w: %v", store.ErrInvalidEntity, err))
	}
	backup, err := in.validate()
	if err != nil {
		return nil, store.NewStoreError("backup", "import", "invalid backup file format", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.readBackups(ctx)
	if err != nil {
		return nil, err
	}
	if indexOfBackup(backups, backup.Timestamp) >= 0 {
		return nil, store.ErrBackupExists
	}
	if err := s.writeBackups(ctx, s.trimBackups(append(backups, backup))); err != nil {
		return nil, err
	}

	log.Info("backup imported", slog.String("timestamp", backup.Timestamp))
	return backup, nil
}

func (b importedBackup) validate() (*store.Backup, error) {
	if b.Timestamp == "" || b.Decks == nil || b.Cards == nil || b.Sessions == nil {
		return nil, fmt.Errorf("%w: timestamp, decks, cards and sessions are required", store.ErrInvalidEntity)
	}
	if _, err := time.Parse(time.RFC3339Nano, b.Timestamp); err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", store.ErrInvalidEntity, err)
	}
	for _, d := range *b.Decks {
		if d == nil {
			return nil, fmt.Errorf("%w: null deck", store.ErrInvalidEntity)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}
	for _, c := range *b.Cards {
		if c == nil {
			return nil, fmt.Errorf("%w: null card", store.ErrInvalidEntity)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}
	for _, ss := range *b.Sessions {
		if ss == nil {
			return nil, fmt.Errorf("%w: null session", store.ErrInvalidEntity)
		}
		if err := ss.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}
	return &store.Backup{
		Timestamp: b.Timestamp,
		Decks:     *b.Decks,
		Cards:     *b.Cards,
		Sessions:  *b.Sessions,
	}, nil
}

// ClearStorage implements store.BackupStore.
func (s *Store) ClearStorage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer s.invalidate()
	for _, name := range []string{collectionDecks, collectionCards, collectionSessions, collectionBackups} {
		if err := s.kv.Delete(ctx, s.Key(name)); err != nil {
			return store.NewStoreError(name, "clear", "failed to delete collection", err)
		}
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("storage cleared")
	return nil
}

// readBackups loads the backup list. Backups are not cached.
func (s *Store) readBackups(ctx context.Context) ([]*store.Backup, error) {
	raw, err := s.kv.Get(ctx, s.Key(collectionBackups))
	if errors.Is(err, store.ErrKeyNotFound) {
		return []*store.Backup{}, nil
	}
	if err != nil {
		return nil, store.NewStoreError("backup", "load", "failed to read backups", err)
	}
	var backups []*store.Backup
	if err := json.Unmarshal(raw, &backups); err != nil {
		return nil, store.NewStoreError("backup", "load", "failed to decode backups",
			fmt.Errorf("%w: %v", store.ErrCorruptData, err))
	}
	return backups, nil
}

func (s *Store) writeBackups(ctx context.Context, backups []*store.Backup) error {
	raw, err := json.Marshal(backups)
	if err != nil {
		return store.NewStoreError("backup", "save", "failed to encode backups", err)
	}
	if err := s.kv.Set(ctx, s.Key(collectionBackups), raw); err != nil {
		return store.NewStoreError("backup", "save", "failed to write backups", err)
	}
	return nil
}

// trimBackups keeps the most recent backupLimit entries.
func (s *Store) trimBackups(backups []*store.Backup) []*store.Backup {
	if len(backups) <= s.backupLimit {
		return backups
	}
	return backups[len(backups)-s.backupLimit:]
}

// setMany writes all entries atomically when the backend supports it.
func (s *Store) setMany(ctx context.Context, entries map[string][]byte) error {
	if batch, ok := s.kv.(store.BatchKV); ok {
		return batch.SetMany(ctx, entries)
	}
	for key, value := range entries {
		if err := s.kv.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func indexOfBackup(backups []*store.Backup, timestamp string) int {
	for i, b := range backups {
		if b != nil && b.Timestamp == timestamp {
			return i
		}
	}
	return -1
}
