package kvstore

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

func cardKey(c *domain.Card) uuid.UUID            { return c.ID }
func deckKey(d *domain.Deck) uuid.UUID            { return d.ID }
func sessionKey(s *domain.StudySession) uuid.UUID { return s.ID }

// GetAllCards implements store.CardStore.
func (s *Store) GetAllCards(ctx context.Context) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := read(ctx, s, collectionCards, &s.cards)
	if err != nil {
		return nil, err
	}
	return cloneAll(cards), nil
}

// GetCardsForDeck implements store.CardStore.
func (s *Store) GetCardsForDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := read(ctx, s, collectionCards, &s.cards)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Card, 0)
	for _, c := range cards {
		if c.DeckID == deckID {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

// GetCard implements store.CardStore.
func (s *Store) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := read(ctx, s, collectionCards, &s.cards)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return nil, store.ErrCardNotFound
}

// SaveCard implements store.CardStore.
func (s *Store) SaveCard(ctx context.Context, card *domain.Card) error {
	if card == nil {
		return invalidEntity("card", "save", domain.NewValidationError("card", "cannot be nil", nil))
	}
	if err := card.Validate(); err != nil {
		return invalidEntity("card", "save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := read(ctx, s, collectionCards, &s.cards)
	if err != nil {
		return err
	}
	if err := write(ctx, s, collectionCards, &s.cards, upsert(cards, card.Clone(), cardKey)); err != nil {
		return err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("card saved",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", card.DeckID.String()))
	return nil
}

// DeleteCard implements store.CardStore.
func (s *Store) DeleteCard(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := read(ctx, s, collectionCards, &s.cards)
	if err != nil {
		return err
	}
	remaining, found := remove(cards, id, cardKey)
	if !found {
		return store.ErrCardNotFound
	}
	return write(ctx, s, collectionCards, &s.cards, remaining)
}

// GetAllDecks implements store.DeckStore.
func (s *Store) GetAllDecks(ctx context.Context) ([]*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := read(ctx, s, collectionDecks, &s.decks)
	if err != nil {
		return nil, err
	}
	return cloneAll(decks), nil
}

// GetDeck implements store.DeckStore.
func (s *Store) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := read(ctx, s, collectionDecks, &s.decks)
	if err != nil {
		return nil, err
	}
	for _, d := range decks {
		if d.ID == id {
			return d.Clone(), nil
		}
	}
	return nil, store.ErrDeckNotFound
}

// SaveDeck implements store.DeckStore.
func (s *Store) SaveDeck(ctx context.Context, deck *domain.Deck) error {
	if deck == nil {
		return invalidEntity("deck", "save", domain.NewValidationError("deck", "cannot be nil", nil))
	}
	if err := deck.Validate(); err != nil {
		return invalidEntity("deck", "save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := read(ctx, s, collectionDecks, &s.decks)
	if err != nil {
		return err
	}
	return write(ctx, s, collectionDecks, &s.decks, upsert(decks, deck.Clone(), deckKey))
}

// DeleteDeck implements store.DeckStore.
func (s *Store) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := read(ctx, s, collectionDecks, &s.decks)
	if err != nil {
		return err
	}
	remaining, found := remove(decks, id, deckKey)
	if !found {
		return store.ErrDeckNotFound
	}
	return write(ctx, s, collectionDecks, &s.decks, remaining)
}

// GetAllSessions implements store.SessionStore.
func (s *Store) GetAllSessions(ctx context.Context) ([]*domain.StudySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := read(ctx, s, collectionSessions, &s.sessions)
	if err != nil {
		return nil, err
	}
	return cloneAll(sessions), nil
}

// SaveSession implements store.SessionStore.
func (s *Store) SaveSession(ctx context.Context, session *domain.StudySession) error {
	if session == nil {
		return invalidEntity("study session", "save", domain.NewValidationError("session", "cannot be nil", nil))
	}
	if err := session.Validate(); err != nil {
		return invalidEntity("study session", "save", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := read(ctx, s, collectionSessions, &s.sessions)
	if err != nil {
		return err
	}
	return write(ctx, s, collectionSessions, &s.sessions, upsert(sessions, session.Clone(), sessionKey))
}

// ClearAllSessions implements store.SessionStore.
func (s *Store) ClearAllSessions(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.Key(collectionSessions)); err != nil {
		return store.NewStoreError(collectionSessions, "clear", "failed to delete collection", err)
	}
	s.sessions.items = []*domain.StudySession{}
	s.sessions.loaded = true
	return nil
}
