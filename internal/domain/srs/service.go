package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-flashcards/internal/domain"
)

// Common errors
var (
	ErrNilCard       = errors.New("card cannot be nil")
	ErrInvalidResult = errors.New("invalid review result")
)

// Service defines the interface for scheduling operations.
type Service interface {
	// ScheduleReview returns the card as it should be after answering it with result at now.
	// The input card is not modified and nothing is persisted.
	ScheduleReview(card *domain.Card, result domain.ReviewResult, now time.Time) (*domain.Card, error)

	// IntervalDays returns the table interval for level.
	IntervalDays(level int) int

	// Params exposes the parameters the service was built with.
	Params() *Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters.
// A nil params falls back to the defaults.
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// ScheduleReview implements Service.
func (s *defaultService) ScheduleReview(
	card *domain.Card,
	result domain.ReviewResult,
	now time.Time,
) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if !result.IsValid() {
		return nil, ErrInvalidResult
	}

	return calculateNextCard(card, result, now, s.params), nil
}

// IntervalDays implements Service.
func (s *defaultService) IntervalDays(level int) int {
	return s.params.IntervalDays(level)
}

// Params implements Service.
func (s *defaultService) Params() *Params {
	return s.params
}
