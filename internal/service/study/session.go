package study

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/domain/srs"
	"github.com/phrazzld/scry-flashcards/internal/events"
	"github.com/phrazzld/scry-flashcards/internal/platform/logger"
	"github.com/phrazzld/scry-flashcards/internal/service/stats"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// State is the lifecycle state of a Session.
type State int

// Session states. A session is created Active; there is no Idle value
// because an empty queue never produces a session.
const (
	StateActive State = iota + 1
	StateCompleted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StepResult is the outcome of one answered card.
type StepResult struct {
	// Card is the card as scheduled and saved.
	Card *domain.Card `json:"card"`

	// Position is the number of cards answered so far.
	Position  int  `json:"position"`
	Remaining int  `json:"remaining"`
	Completed bool `json:"completed"`

	// Next is the card to answer next; nil once completed.
	Next *domain.Card `json:"next,omitempty"`

	// Stats is set on the completing step only.
	Stats *stats.SessionStats `json:"stats,omitempty"`
}

type deps struct {
	storage   store.Storage
	scheduler srs.Service
	emitter   events.EventEmitter
	now       func() time.Time
	logger    *slog.Logger
}

// Session is the state machine of one study session. Answers are processed
// one at a time; a concurrent answer is rejected with ErrStepInProgress
// instead of waiting.
type Session struct {
	deps

	// stepMu serializes state transitions; it is only ever try-locked.
	stepMu sync.Mutex

	// mu guards the fields below for readers.
	mu             sync.RWMutex
	record         *domain.StudySession
	queue          []*domain.Card
	position       int
	state          State
	stats          *stats.SessionStats
	statsDelivered bool
	pending        bool
}

func newSession(d deps, record *domain.StudySession, queue []*domain.Card) *Session {
	return &Session{
		deps:   d,
		record: record,
		queue:  queue,
		state:  StateActive,
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.ID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Position returns the number of cards answered.
func (s *Session) Position() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// Record returns a copy of the session record.
func (s *Session) Record() *domain.StudySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// Queue returns copies of the queued cards in order.
func (s *Session) Queue() []*domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Card, len(s.queue))
	for i, c := range s.queue {
		out[i] = c.Clone()
	}
	return out
}

// Current returns the card to answer next, or nil when the session is not active.
func (s *Session) Current() *domain.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateActive {
		return nil
	}
	return s.queue[s.position].Clone()
}

// Submit records the answer to the current card. The card is scheduled and
// saved first; if that fails nothing changes. The session record is saved
// after every answer; if that fails the answer stands and the error wraps
// ErrPersistPending.
func (s *Session) Submit(ctx context.Context, cardID uuid.UUID, result domain.ReviewResult) (*StepResult, error) {
	if !s.stepMu.TryLock() {
		return nil, ErrStepInProgress
	}
	defer s.stepMu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.RLock()
	state, position, current := s.state, s.position, s.queue[min(s.position, len(s.queue)-1)]
	s.mu.RUnlock()

	switch state {
	case StateCompleted:
		return nil, ErrSessionCompleted
	case StateAbandoned:
		return nil, ErrSessionAbandoned
	}
	if !result.IsValid() {
		return nil, domain.NewValidationError("result", "must be correct or incorrect", domain.ErrInvalidReviewResult)
	}
	if current.ID != cardID {
		return nil, ErrWrongCard
	}

	now := s.now()
	// A wall clock stepped back must not produce negative durations.
	s.mu.RLock()
	if start := s.record.StartTime; now.Before(start) {
		now = start
	}
	s.mu.RUnlock()

	card, err := s.storage.GetCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	updated, err := s.scheduler.ScheduleReview(card, result, now)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule card: %w", err)
	}
	if err := s.storage.SaveCard(ctx, updated); err != nil {
		log.Error("failed to save reviewed card",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	s.mu.Lock()
	record := s.record.Clone()
	record.CardsReviewed = append(record.CardsReviewed, domain.ReviewedCard{
		CardID:          cardID,
		Result:          result,
		TimeSpentMillis: now.Sub(record.StartTime).Milliseconds(),
	})
	s.position = position + 1
	s.queue[position] = updated.Clone()
	completed := s.position == len(s.queue)
	if completed {
		end := now
		record.EndTime = &end
		sessionStats := stats.ForSession(record, len(s.queue))
		s.stats = &sessionStats
		s.state = StateCompleted
	}
	s.record = record
	s.pending = true
	s.mu.Unlock()

	s.emit(ctx, events.TypeCardReviewed, events.CardReviewed{
		SessionID: record.ID,
		CardID:    cardID,
		DeckID:    updated.DeckID,
		Result:    string(result),
	})

	log.Debug("answer recorded",
		slog.String("session_id", record.ID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("result", string(result)),
		slog.Int("position", position+1),
		slog.Bool("completed", completed))

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return s.stepResult(updated), nil
}

// RetryPersist saves a session whose last save failed. When that save
// completes the session, the result carries the session stats.
func (s *Session) RetryPersist(ctx context.Context) (*StepResult, error) {
	if !s.stepMu.TryLock() {
		return nil, ErrStepInProgress
	}
	defer s.stepMu.Unlock()

	s.mu.RLock()
	pending, position := s.pending, s.position
	var last *domain.Card
	if position > 0 {
		last = s.queue[position-1].Clone()
	}
	s.mu.RUnlock()

	if !pending {
		return nil, ErrNothingToRetry
	}
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return s.stepResult(last), nil
}

// Abandon ends an active session early. The answers so far are saved without
// an end time.
func (s *Session) Abandon(ctx context.Context) error {
	if !s.stepMu.TryLock() {
		return ErrStepInProgress
	}
	defer s.stepMu.Unlock()

	s.mu.RLock()
	state, record := s.state, s.record.Clone()
	s.mu.RUnlock()

	switch state {
	case StateCompleted:
		return ErrSessionCompleted
	case StateAbandoned:
		return ErrSessionAbandoned
	}

	if len(record.CardsReviewed) > 0 {
		if err := s.storage.SaveSession(ctx, record); err != nil {
			return fmt.Errorf("failed to save abandoned session: %w", err)
		}
	}

	s.mu.Lock()
	s.state = StateAbandoned
	s.pending = false
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx, s.logger).Info("session abandoned",
		slog.String("session_id", record.ID.String()),
		slog.Int("answered", len(record.CardsReviewed)),
		slog.Int("queued", len(s.queue)))
	return nil
}

// Stats returns the session stats. They are handed out once: by the
// completing answer or by the first call here, whichever comes first.
func (s *Session) Stats() (*stats.SessionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCompleted {
		return nil, ErrSessionNotCompleted
	}
	if s.statsDelivered {
		return nil, ErrStatsDelivered
	}
	s.statsDelivered = true
	cp := *s.stats
	return &cp, nil
}

// persist saves the current record. Callers hold stepMu.
func (s *Session) persist(ctx context.Context) error {
	record := s.Record()

	if err := s.storage.SaveSession(ctx, record); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save session",
			slog.String("session_id", record.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrPersistPending, err)
	}

	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()

	if record.IsCompleted() {
		s.emit(ctx, events.TypeSessionCompleted, events.SessionCompleted{
			SessionID: record.ID,
			DeckID:    record.DeckID,
			EndTime:   *record.EndTime,
		})
		logger.FromContextOrDefault(ctx, s.logger).Info("session completed",
			slog.String("session_id", record.ID.String()),
			slog.Int("answered", len(record.CardsReviewed)),
			slog.Int("correct", record.CorrectCount()))
	}
	return nil
}

func (s *Session) stepResult(card *domain.Card) *StepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := &StepResult{
		Card:      card,
		Position:  s.position,
		Remaining: len(s.queue) - s.position,
		Completed: s.state == StateCompleted,
	}
	if s.state == StateActive {
		res.Next = s.queue[s.position].Clone()
	}
	if res.Completed && !s.statsDelivered {
		cp := *s.stats
		res.Stats = &cp
		s.statsDelivered = true
	}
	return res
}

// emit publishes an event. Handler failures are logged and do not fail the step.
func (s *Session) emit(ctx context.Context, eventType string, payload interface{}) {
	if s.emitter == nil {
		return
	}
	event, err := events.NewEvent(eventType, payload)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("event handling failed",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
	}
}
