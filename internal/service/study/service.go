package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/domain/srs"
	"github.com/phrazzld/scry-flashcards/internal/events"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// ErrNilDependency is returned when a required dependency is missing.
var ErrNilDependency = errors.New("required dependency is nil")

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithEmitter sets the emitter that receives card and session events.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

// Service starts study sessions and tracks the active ones.
type Service struct {
	storage   store.Storage
	scheduler srs.Service
	selector  *srs.Selector
	emitter   events.EventEmitter
	now       func() time.Time
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewService creates a study Service.
func NewService(
	storage store.Storage,
	scheduler srs.Service,
	selector *srs.Selector,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: storage", ErrNilDependency)
	}
	if scheduler == nil {
		return nil, fmt.Errorf("%w: scheduler", ErrNilDependency)
	}
	if selector == nil {
		return nil, fmt.Errorf("%w: selector", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		storage:   storage,
		scheduler: scheduler,
		selector:  selector,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "study_service")),
		sessions:  make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start builds a queue and opens a session on it. A nil deckID studies every
// card; the session is then attributed to the deck of the first queued card.
// Returns ErrEmptyQueue when there is nothing to study.
func (s *Service) Start(ctx context.Context, deckID *uuid.UUID, mode srs.Mode) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		pool []*domain.Card
		err  error
	)
	if deckID != nil {
		if _, err := s.storage.GetDeck(ctx, *deckID); err != nil {
			return nil, err
		}
		pool, err = s.storage.GetCardsForDeck(ctx, *deckID)
	} else {
		pool, err = s.storage.GetAllCards(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	now := s.now()
	queue, err := s.selector.SelectQueue(pool, mode, now)
	if err != nil {
		return nil, domain.NewValidationError("mode", err.Error(), err)
	}
	if len(queue) == 0 {
		log.Debug("nothing to study",
			slog.String("mode", mode.String()),
			slog.Int("pool", len(pool)))
		return nil, ErrEmptyQueue
	}

	sessionDeck := queue[0].DeckID
	if deckID != nil {
		sessionDeck = *deckID
	}
	record, err := domain.NewStudySession(sessionDeck, now)
	if err != nil {
		return nil, err
	}

	session := newSession(deps{
		storage:   s.storage,
		scheduler: s.scheduler,
		emitter:   s.emitter,
		now:       s.now,
		logger:    s.logger,
	}, record, queue)

	s.mu.Lock()
	s.sessions[record.ID] = session
	s.mu.Unlock()

	log.Info("session started",
		slog.String("session_id", record.ID.String()),
		slog.String("deck_id", sessionDeck.String()),
		slog.String("mode", mode.String()),
		slog.Int("queued", len(queue)))
	return session, nil
}

// Get returns an active session.
func (s *Service) Get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Active returns the ids of the tracked sessions.
func (s *Service) Active() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Submit answers the current card of session id. A session that is complete
// and saved stops being tracked.
func (s *Service) Submit(ctx context.Context, id, cardID uuid.UUID, result domain.ReviewResult) (*StepResult, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	res, err := session.Submit(ctx, cardID, result)
	if err != nil {
		return nil, err
	}
	if res.Completed {
		s.forget(id)
	}
	return res, nil
}

// RetryPersist saves a session whose last save failed.
func (s *Service) RetryPersist(ctx context.Context, id uuid.UUID) (*StepResult, error) {
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	res, err := session.RetryPersist(ctx)
	if err != nil {
		return nil, err
	}
	if res.Completed {
		s.forget(id)
	}
	return res, nil
}

// Abandon ends session id early and stops tracking it.
func (s *Service) Abandon(ctx context.Context, id uuid.UUID) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := session.Abandon(ctx); err != nil {
		return err
	}
	s.forget(id)
	return nil
}

// AbandonAll abandons every tracked session. It is called on shutdown and
// returns the joined errors of the sessions that could not be saved.
func (s *Service) AbandonAll(ctx context.Context) error {
	var errs []error
	for _, id := range s.Active() {
		err := s.Abandon(ctx, id)
		switch {
		case err == nil, errors.Is(err, ErrSessionNotFound):
		case errors.Is(err, ErrSessionCompleted):
			if _, err := s.RetryPersist(ctx, id); err != nil && !errors.Is(err, ErrNothingToRetry) {
				errs = append(errs, fmt.Errorf("session %s: %w", id, err))
				continue
			}
			s.forget(id)
		default:
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) forget(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
