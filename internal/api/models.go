package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/phrazzld/scry-flashcards/internal/service/study"
)

// CreateDeckRequest defines the payload for creating or updating a deck.
type CreateDeckRequest struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Color       string `json:"color"       validate:"omitempty,hexcolor,len=7"`
}

// CardRequest defines the payload for creating or updating a card.
type CardRequest struct {
	Front string   `json:"front" validate:"required"`
	Back  string   `json:"back"  validate:"required"`
	Tags  []string `json:"tags"  validate:"max=50,dive,max=100"`
}

// StartSessionRequest defines the payload for starting a study session.
// A missing deck_id studies every card.
type StartSessionRequest struct {
	DeckID *uuid.UUID `json:"deck_id,omitempty"`
	Mode   string     `json:"mode" validate:"omitempty,oneof=due deck random new"`
}

// AnswerRequest defines the payload for answering the current card.
type AnswerRequest struct {
	CardID uuid.UUID `json:"card_id" validate:"required"`
	Result string    `json:"result"  validate:"required,oneof=correct incorrect"`
}

// SessionResponse describes a study session and its queue.
type SessionResponse struct {
	ID        uuid.UUID             `json:"id"`
	DeckID    uuid.UUID             `json:"deck_id"`
	StartTime time.Time             `json:"start_time"`
	EndTime   *time.Time            `json:"end_time,omitempty"`
	State     study.State           `json:"state"`
	Position  int                   `json:"position"`
	Queue     []*domain.Card        `json:"queue"`
	Current   *domain.Card          `json:"current,omitempty"`
	Reviewed  []domain.ReviewedCard `json:"cards_reviewed"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status         string `json:"status"`
	Storage        string `json:"storage"`
	ActiveSessions int    `json:"active_sessions"`
}

func sessionToResponse(s *study.Session) SessionResponse {
	record := s.Record()
	return SessionResponse{
		ID:        record.ID,
		DeckID:    record.DeckID,
		StartTime: record.StartTime,
		EndTime:   record.EndTime,
		State:     s.State(),
		Position:  s.Position(),
		Queue:     s.Queue(),
		Current:   s.Current(),
		Reviewed:  record.CardsReviewed,
	}
}
