package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewResult is the outcome of answering a single card.
type ReviewResult string

// Possible review result values.
const (
	ResultCorrect   ReviewResult = "correct"
	ResultIncorrect ReviewResult = "incorrect"
)

// IsValid reports whether r is a known result.
func (r ReviewResult) IsValid() bool {
	return r == ResultCorrect || r == ResultIncorrect
}

// ParseReviewResult converts a wire value into a ReviewResult.
func ParseReviewResult(s string) (ReviewResult, error) {
	r := ReviewResult(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidReviewResult, s)
	}
	return r, nil
}

// ReviewedCard records one answered card within a session.
// TimeSpentMillis is measured from the session start.
type ReviewedCard struct {
	CardID          uuid.UUID    `json:"card_id"`
	Result          ReviewResult `json:"result"`
	TimeSpentMillis int64        `json:"time_spent"`
}

// StudySession is one bounded run through a queue of cards.
// EndTime is set exactly once, when the last queued card is answered.
type StudySession struct {
	ID            uuid.UUID      `json:"id"`
	DeckID        uuid.UUID      `json:"deck_id"`
	StartTime     time.Time      `json:"start_time"`
	EndTime       *time.Time     `json:"end_time,omitempty"`
	CardsReviewed []ReviewedCard `json:"cards_reviewed"`
}

// NewStudySession creates a fresh session for deckID starting at now.
func NewStudySession(deckID uuid.UUID, now time.Time) (*StudySession, error) {
	session := &StudySession{
		ID:            uuid.New(),
		DeckID:        deckID,
		StartTime:     now,
		CardsReviewed: []ReviewedCard{},
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if s.DeckID == uuid.Nil {
		return NewValidationError("deck_id", "cannot be empty", ErrInvalidID)
	}
	if s.StartTime.IsZero() {
		return NewValidationError("start_time", "cannot be empty", ErrEmptyContent)
	}
	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		return NewValidationError("end_time", "cannot precede start_time", ErrInvalidTimeRange)
	}
	for i, r := range s.CardsReviewed {
		if r.CardID == uuid.Nil {
			return NewValidationError(fmt.Sprintf("cards_reviewed[%d].card_id", i), "cannot be empty", ErrInvalidID)
		}
		if !r.Result.IsValid() {
			return NewValidationError(fmt.Sprintf("cards_reviewed[%d].result", i), "must be correct or incorrect", ErrInvalidReviewResult)
		}
		if r.TimeSpentMillis < 0 {
			return NewValidationError(fmt.Sprintf("cards_reviewed[%d].time_spent", i), "cannot be negative", ErrNegativeCount)
		}
	}
	return nil
}

// IsCompleted reports whether the session has an end time.
func (s *StudySession) IsCompleted() bool {
	return s.EndTime != nil
}

// Duration returns EndTime - StartTime, or zero for an unfinished session.
func (s *StudySession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// CorrectCount returns the number of correct answers recorded.
func (s *StudySession) CorrectCount() int {
	n := 0
	for _, r := range s.CardsReviewed {
		if r.Result == ResultCorrect {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the session.
func (s *StudySession) Clone() *StudySession {
	if s == nil {
		return nil
	}
	cp := *s
	cp.EndTime = cloneTime(s.EndTime)
	if s.CardsReviewed != nil {
		cp.CardsReviewed = make([]ReviewedCard, len(s.CardsReviewed))
		copy(cp.CardsReviewed, s.CardsReviewed)
	}
	return &cp
}
