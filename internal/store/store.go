package store

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
)

// CardStore defines the interface for card persistence.
type CardStore interface {
	// GetAllCards returns every stored card.
	GetAllCards(ctx context.Context) ([]*domain.Card, error)

	// GetCardsForDeck returns the cards belonging to deckID.
	// An unknown deck yields an empty slice, not an error.
	GetCardsForDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// GetCard returns a single card.
	// Returns ErrCardNotFound if the card does not exist.
	GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// SaveCard inserts or replaces the card with the same ID.
	// Returns ErrInvalidEntity if the card fails validation; nothing is written then.
	SaveCard(ctx context.Context, card *domain.Card) error

	// DeleteCard removes a card.
	// Returns ErrCardNotFound if the card does not exist.
	DeleteCard(ctx context.Context, id uuid.UUID) error
}

// DeckStore defines the interface for deck persistence.
type DeckStore interface {
	// GetAllDecks returns every stored deck.
	GetAllDecks(ctx context.Context) ([]*domain.Deck, error)

	// GetDeck returns a single deck.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// SaveDeck inserts or replaces the deck with the same ID.
	// Returns ErrInvalidEntity if the deck fails validation; nothing is written then.
	SaveDeck(ctx context.Context, deck *domain.Deck) error

	// DeleteDeck removes a deck. Its cards are not touched.
	// Returns ErrDeckNotFound if the deck does not exist.
	DeleteDeck(ctx context.Context, id uuid.UUID) error
}

// SessionStore defines the interface for study session persistence.
type SessionStore interface {
	// GetAllSessions returns every stored session, completed or not.
	GetAllSessions(ctx context.Context) ([]*domain.StudySession, error)

	// SaveSession inserts or replaces the session with the same ID.
	// Returns ErrInvalidEntity if the session fails validation; nothing is written then.
	SaveSession(ctx context.Context, session *domain.StudySession) error

	// ClearAllSessions removes the whole study history.
	ClearAllSessions(ctx context.Context) error
}

// Storage is the full record store consumed by the services.
type Storage interface {
	CardStore
	DeckStore
	SessionStore
}

// Backup is a point-in-time snapshot of every collection.
// Timestamp is an RFC 3339 string with nanoseconds and identifies the backup.
type Backup struct {
	Timestamp string                 `json:"timestamp"`
	Decks     []*domain.Deck         `json:"decks"`
	Cards     []*domain.Card         `json:"cards"`
	Sessions  []*domain.StudySession `json:"sessions"`
}

// BackupSummary describes a stored backup without its records.
type BackupSummary struct {
	Timestamp string `json:"timestamp"`
	Decks     int    `json:"decks"`
	Cards     int    `json:"cards"`
	Sessions  int    `json:"sessions"`
}

// Summary returns the record counts of b.
func (b *Backup) Summary() BackupSummary {
	return BackupSummary{
		Timestamp: b.Timestamp,
		Decks:     len(b.Decks),
		Cards:     len(b.Cards),
		Sessions:  len(b.Sessions),
	}
}

// BackupStore defines snapshot, restore and export operations.
type BackupStore interface {
	// CreateBackup snapshots all collections, keeping only the most recent backups.
	CreateBackup(ctx context.Context) (*Backup, error)

	// ListBackups returns the stored backups, oldest first.
	ListBackups(ctx context.Context) ([]BackupSummary, error)

	// RestoreBackup replaces all collections with the backup's records.
	// Returns ErrBackupNotFound for an unknown timestamp.
	RestoreBackup(ctx context.Context, timestamp string) (*Backup, error)

	// DeleteBackup removes one backup.
	// Returns ErrBackupNotFound for an unknown timestamp.
	DeleteBackup(ctx context.Context, timestamp string) error

	// ExportBackup writes a backup as indented JSON.
	ExportBackup(ctx context.Context, timestamp string, w io.Writer) error

	// ImportBackup reads a backup written by ExportBackup and stores it.
	// Returns ErrBackupExists if the timestamp is already stored.
	ImportBackup(ctx context.Context, r io.Reader) (*Backup, error)

	// ClearStorage removes every collection and backup.
	ClearStorage(ctx context.Context) error
}
