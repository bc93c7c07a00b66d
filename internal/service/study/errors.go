package study

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/store"
)

// Common error types for study sessions
var (
	// ErrEmptyQueue indicates that the selection produced no cards; no session
	// is created. API layer should map this to HTTP 204 No Content.
	ErrEmptyQueue = errors.New("no cards to study")

	// ErrStepInProgress indicates that another answer for the same session is
	// still being processed.
	ErrStepInProgress = errors.New("another answer is being processed")

	// ErrSessionCompleted indicates that the session has already ended.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrSessionAbandoned indicates that the session was abandoned.
	ErrSessionAbandoned = errors.New("session abandoned")

	// ErrSessionNotCompleted indicates that stats were requested before the last answer.
	ErrSessionNotCompleted = errors.New("session not completed")

	// ErrStatsDelivered indicates that the session stats were already returned once.
	ErrStatsDelivered = errors.New("session stats already delivered")

	// ErrNothingToRetry indicates that the session has no unsaved state.
	ErrNothingToRetry = errors.New("session has no pending write")

	// ErrPersistPending indicates that the answer was recorded but the session
	// could not be saved. RetryPersist saves it again.
	ErrPersistPending = errors.New("session save pending")

	// ErrSessionNotFound indicates that no active session has the given id.
	ErrSessionNotFound = fmt.Errorf("%w: active session", store.ErrNotFound)

	// ErrWrongCard indicates that the answered card is not the current card.
	ErrWrongCard = domain.NewValidationError("card_id", "is not the current card", nil)
)
