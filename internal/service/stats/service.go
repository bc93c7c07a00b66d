package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// Service loads the collections and aggregates them.
type Service struct {
	storage  store.Storage
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a stats Service. loc defines calendar days for streaks;
// nil means time.Local.
func NewService(storage store.Storage, loc *time.Location, logger *slog.Logger) (*Service, error) {
	if storage == nil {
		return nil, errors.New("storage cannot be nil")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage:  storage,
		location: loc,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "stats_service")),
	}, nil
}

// WithClock returns a copy of s that reads the current time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Overview returns the aggregated statistics. Skipped records are logged.
func (s *Service) Overview(ctx context.Context) (*View, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cards, err := s.storage.GetAllCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	sessions, err := s.storage.GetAllSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	decks, err := s.storage.GetAllDecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load decks: %w", err)
	}

	view := Aggregate(Input{
		Cards:    cards,
		Sessions: sessions,
		Decks:    decks,
		Now:      s.now(),
		Location: s.location,
	})
	if view.Skipped > 0 {
		log.Warn("skipped invalid records while aggregating stats", slog.Int("skipped", view.Skipped))
	}
	return &view, nil
}
