package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/events"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// DeckInput carries the user-editable fields of a deck.
type DeckInput struct {
	Name        string
	Description string
	Color       string
}

// CardInput carries the user-editable fields of a card.
type CardInput struct {
	Front string
	Back  string
	Tags  []string
}

// DeckService manages decks and their cards and keeps the derived deck
// counters in sync with the card pool.
type DeckService interface {
	CreateDeck(ctx context.Context, in DeckInput) (*domain.Deck, error)
	UpdateDeck(ctx context.Context, id uuid.UUID, in DeckInput) (*domain.Deck, error)
	GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListDecks returns every deck with freshly recomputed counters.
	ListDecks(ctx context.Context) ([]*domain.Deck, error)

	// DeleteDeck removes a deck and its cards. Study sessions are kept.
	DeleteDeck(ctx context.Context, id uuid.UUID) error

	// AddCard creates a card in an existing deck.
	// Returns store.ErrDeckNotFound when the deck does not exist.
	AddCard(ctx context.Context, deckID uuid.UUID, in CardInput) (*domain.Card, error)
	UpdateCard(ctx context.Context, id uuid.UUID, in CardInput) (*domain.Card, error)
	GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	DeleteCard(ctx context.Context, id uuid.UUID) error
	ListCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// RecomputeDeckStats recounts total, mastered and learning cards of a
	// deck and saves the deck when a counter changed.
	RecomputeDeckStats(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error)

	// MarkStudied sets the deck's last studied time.
	MarkStudied(ctx context.Context, deckID uuid.UUID, at time.Time) error

	// ResetStats removes the whole study history. Decks and cards are kept.
	ResetStats(ctx context.Context) error
}

type deckServiceImpl struct {
	storage store.Storage
	now     func() time.Time
	logger  *slog.Logger

	// mu serializes deck read-modify-write cycles.
	mu sync.Mutex
}

var _ DeckService = (*deckServiceImpl)(nil)

// NewDeckService creates a DeckService backed by storage.
func NewDeckService(storage store.Storage, logger *slog.Logger) (DeckService, error) {
	if storage == nil {
		return nil, fmt.Errorf("storage: %w", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &deckServiceImpl{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With(slog.String("component", "deck_service")),
	}, nil
}

// SubscribeDeckEvents wires svc to the study events: a completed session
// stamps its deck, a reviewed card triggers a counter recompute.
func SubscribeDeckEvents(emitter *events.InMemoryEventEmitter, svc DeckService) {
	emitter.Subscribe(events.TypeSessionCompleted, events.HandlerFunc(
		func(ctx context.Context, e *events.Event) error {
			var p events.SessionCompleted
			if err := e.UnmarshalPayload(&p); err != nil {
				return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
			}
			return svc.MarkStudied(ctx, p.DeckID, p.EndTime)
		}))

	emitter.Subscribe(events.TypeCardReviewed, events.HandlerFunc(
		func(ctx context.Context, e *events.Event) error {
			var p events.CardReviewed
			if err := e.UnmarshalPayload(&p); err != nil {
				return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
			}
			_, err := svc.RecomputeDeckStats(ctx, p.DeckID)
			return err
		}))
}

func (s *deckServiceImpl) CreateDeck(ctx context.Context, in DeckInput) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(in.Name, in.Description, in.Color)
	if err != nil {
		return nil, err
	}
	if err := s.storage.SaveDeck(ctx, deck); err != nil {
		log.Error("failed to save deck", slog.String("error", err.Error()))
		return nil, NewServiceError("deck", "create_deck", err)
	}

	log.Info("deck created", slog.String("deck_id", deck.ID.String()))
	return deck, nil
}

func (s *deckServiceImpl) UpdateDeck(ctx context.Context, id uuid.UUID, in DeckInput) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.storage.GetDeck(ctx, id)
	if err != nil {
		return nil, NewServiceError("deck", "update_deck", err)
	}
	if err := deck.Update(in.Name, in.Description, in.Color, s.now()); err != nil {
		return nil, err
	}
	if err := s.storage.SaveDeck(ctx, deck); err != nil {
		return nil, NewServiceError("deck", "update_deck", err)
	}
	return deck, nil
}

func (s *deckServiceImpl) GetDeck(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	deck, err := s.storage.GetDeck(ctx, id)
	if err != nil {
		return nil, NewServiceError("deck", "get_deck", err)
	}
	return deck, nil
}

func (s *deckServiceImpl) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := s.storage.GetAllDecks(ctx)
	if err != nil {
		return nil, NewServiceError("deck", "list_decks", err)
	}
	cards, err := s.storage.GetAllCards(ctx)
	if err != nil {
		return nil, NewServiceError("deck", "list_decks", err)
	}

	for _, deck := range decks {
		if !deck.ApplyCounts(domain.CountCards(deck.ID, cards)) {
			continue
		}
		if err := s.storage.SaveDeck(ctx, deck); err != nil {
			return nil, NewServiceError("deck", "list_decks", err)
		}
		log.Debug("deck counters refreshed", slog.String("deck_id", deck.ID.String()))
	}
	return decks, nil
}

func (s *deckServiceImpl) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	cards, err := s.storage.GetCardsForDeck(ctx, id)
	if err != nil {
		return NewServiceError("deck", "delete_deck", err)
	}
	// The deck goes first; cards left behind by a failure below are removed
	// as orphans on the next storage initialization.
	if err := s.storage.DeleteDeck(ctx, id); err != nil {
		return NewServiceError("deck", "delete_deck", err)
	}
	for _, card := range cards {
		if err := s.storage.DeleteCard(ctx, card.ID); err != nil && !store.IsNotFoundError(err) {
			log.Error("failed to delete card of deleted deck",
				slog.String("card_id", card.ID.String()),
				slog.String("error", err.Error()))
			return NewServiceError("deck", "delete_deck", err)
		}
	}

	log.Info("deck deleted",
		slog.String("deck_id", id.String()),
		slog.Int("cards_deleted", len(cards)))
	return nil
}

func (s *deckServiceImpl) AddCard(ctx context.Context, deckID uuid.UUID, in CardInput) (*domain.Card, error) {
	if _, err := s.storage.GetDeck(ctx, deckID); err != nil {
		return nil, NewServiceError("deck", "add_card", err)
	}

	card, err := domain.NewCard(deckID, in.Front, in.Back, in.Tags)
	if err != nil {
		return nil, err
	}
	if err := s.storage.SaveCard(ctx, card); err != nil {
		return nil, NewServiceError("deck", "add_card", err)
	}
	if _, err := s.RecomputeDeckStats(ctx, deckID); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *deckServiceImpl) UpdateCard(ctx context.Context, id uuid.UUID, in CardInput) (*domain.Card, error) {
	card, err := s.storage.GetCard(ctx, id)
	if err != nil {
		return nil, NewServiceError("deck", "update_card", err)
	}
	if err := card.UpdateContent(in.Front, in.Back, in.Tags, s.now()); err != nil {
		return nil, err
	}
	if err := s.storage.SaveCard(ctx, card); err != nil {
		return nil, NewServiceError("deck", "update_card", err)
	}
	if _, err := s.RecomputeDeckStats(ctx, card.DeckID); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *deckServiceImpl) GetCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := s.storage.GetCard(ctx, id)
	if err != nil {
		return nil, NewServiceError("deck", "get_card", err)
	}
	return card, nil
}

func (s *deckServiceImpl) DeleteCard(ctx context.Context, id uuid.UUID) error {
	card, err := s.storage.GetCard(ctx, id)
	if err != nil {
		return NewServiceError("deck", "delete_card", err)
	}
	if err := s.storage.DeleteCard(ctx, id); err != nil {
		return NewServiceError("deck", "delete_card", err)
	}
	_, err = s.RecomputeDeckStats(ctx, card.DeckID)
	return err
}

func (s *deckServiceImpl) ListCards(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	if _, err := s.storage.GetDeck(ctx, deckID); err != nil {
		return nil, NewServiceError("deck", "list_cards", err)
	}
	cards, err := s.storage.GetCardsForDeck(ctx, deckID)
	if err != nil {
		return nil, NewServiceError("deck", "list_cards", err)
	}
	return cards, nil
}

func (s *deckServiceImpl) RecomputeDeckStats(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.storage.GetDeck(ctx, deckID)
	if err != nil {
		return nil, NewServiceError("deck", "recompute_stats", err)
	}
	cards, err := s.storage.GetCardsForDeck(ctx, deckID)
	if err != nil {
		return nil, NewServiceError("deck", "recompute_stats", err)
	}

	if deck.ApplyCounts(domain.CountCards(deckID, cards)) {
		if err := s.storage.SaveDeck(ctx, deck); err != nil {
			return nil, NewServiceError("deck", "recompute_stats", err)
		}
		logger.FromContextOrDefault(ctx, s.logger).Debug("deck counters updated",
			slog.String("deck_id", deckID.String()),
			slog.Int("total", deck.TotalCards),
			slog.Int("mastered", deck.MasteredCards),
			slog.Int("learning", deck.LearningCards))
	}
	return deck, nil
}

func (s *deckServiceImpl) MarkStudied(ctx context.Context, deckID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.storage.GetDeck(ctx, deckID)
	if err != nil {
		return NewServiceError("deck", "mark_studied", err)
	}
	at = at.UTC()
	deck.LastStudied = &at
	if err := s.storage.SaveDeck(ctx, deck); err != nil {
		return NewServiceError("deck", "mark_studied", err)
	}
	return nil
}

func (s *deckServiceImpl) ResetStats(ctx context.Context) error {
	if err := s.storage.ClearAllSessions(ctx); err != nil {
		return NewServiceError("deck", "reset_stats", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("study history cleared")
	return nil
}
