package kvstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// InitReport summarizes what Initialize loaded and repaired.
type InitReport struct {
	Decks    int `json:"decks"`
	Cards    int `json:"cards"`
	Sessions int `json:"sessions"`

	// Skipped counts records dropped because they did not decode or validate.
	Skipped int `json:"skipped"`

	// OrphanCards counts cards dropped because their deck no longer exists.
	OrphanCards int `json:"orphan_cards"`

	// Reset lists collections that were unreadable and replaced by an empty one.
	Reset []string `json:"reset,omitempty"`
}

// Initialize loads every collection, repairs what it can and primes the cache.
// Unreadable collections are reset to empty, invalid records are dropped and
// cards whose deck is missing are removed. Collections that changed are
// written back. Backend read errors other than corruption abort initialization.
func (s *Store) Initialize(ctx context.Context) (*InitReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidate()
	report := &InitReport{}

	decks, decksDirty, err := loadForRepair[*domain.Deck](ctx, s, collectionDecks, report)
	if err != nil {
		return nil, err
	}
	decks, dropped := keepValid(decks, func(d *domain.Deck) error { return d.Validate() })
	report.Skipped += dropped
	decksDirty = decksDirty || dropped > 0

	cards, cardsDirty, err := loadForRepair[*domain.Card](ctx, s, collectionCards, report)
	if err != nil {
		return nil, err
	}
	cards, dropped = keepValid(cards, func(c *domain.Card) error { return c.Validate() })
	report.Skipped += dropped
	cardsDirty = cardsDirty || dropped > 0

	deckIDs := make(map[uuid.UUID]struct{}, len(decks))
	for _, d := range decks {
		deckIDs[d.ID] = struct{}{}
	}
	owned := make([]*domain.Card, 0, len(cards))
	for _, c := range cards {
		if _, ok := deckIDs[c.DeckID]; !ok {
			report.OrphanCards++
			continue
		}
		owned = append(owned, c)
	}
	cards = owned
	cardsDirty = cardsDirty || report.OrphanCards > 0

	sessions, sessionsDirty, err := loadForRepair[*domain.StudySession](ctx, s, collectionSessions, report)
	if err != nil {
		return nil, err
	}
	sessions, dropped = keepValid(sessions, func(ss *domain.StudySession) error { return ss.Validate() })
	report.Skipped += dropped
	sessionsDirty = sessionsDirty || dropped > 0

	if decksDirty {
		if err := write(ctx, s, collectionDecks, &s.decks, decks); err != nil {
			return nil, err
		}
	}
	if cardsDirty {
		if err := write(ctx, s, collectionCards, &s.cards, cards); err != nil {
			return nil, err
		}
	}
	if sessionsDirty {
		if err := write(ctx, s, collectionSessions, &s.sessions, sessions); err != nil {
			return nil, err
		}
	}

	s.decks = cache[*domain.Deck]{items: decks, loaded: true}
	s.cards = cache[*domain.Card]{items: cards, loaded: true}
	s.sessions = cache[*domain.StudySession]{items: sessions, loaded: true}

	report.Decks = len(decks)
	report.Cards = len(cards)
	report.Sessions = len(sessions)

	log.Info("storage initialized",
		slog.Int("decks", report.Decks),
		slog.Int("cards", report.Cards),
		slog.Int("sessions", report.Sessions),
		slog.Int("skipped", report.Skipped),
		slog.Int("orphan_cards", report.OrphanCards),
		slog.Any("reset", report.Reset))

	return report, nil
}

// loadForRepair reads a collection, treating corrupt data as an empty
// collection that must be rewritten.
func loadForRepair[T any](ctx context.Context, s *Store, name string, report *InitReport) ([]T, bool, error) {
	items, skipped, err := readRaw[T](ctx, s, name)
	if errors.Is(err, store.ErrCorruptData) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("collection unreadable, resetting",
			slog.String("collection", name),
			slog.String("error", err.Error()))
		report.Reset = append(report.Reset, name)
		return []T{}, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	report.Skipped += skipped
	return items, skipped > 0, nil
}

func keepValid[T any](items []T, validate func(T) error) ([]T, int) {
	out := make([]T, 0, len(items))
	dropped := 0
	for _, item := range items {
		if err := validate(item); err != nil {
			dropped++
			continue
		}
		out = append(out, item)
	}
	return out, dropped
}
