package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// TypeSessionCompleted is emitted once per completed study session.
	TypeSessionCompleted = "session.completed"

	// TypeCardReviewed is emitted for every persisted answer.
	TypeCardReviewed = "card.reviewed"
)

// Event is a typed notification with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type selects the handlers that receive the event
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// SessionCompleted is the payload of TypeSessionCompleted.
type SessionCompleted struct {
	SessionID uuid.UUID `json:"session_id"`
	DeckID    uuid.UUID `json:"deck_id"`
	EndTime   time.Time `json:"end_time"`
}

// CardReviewed is the payload of TypeCardReviewed.
type CardReviewed struct {
	SessionID uuid.UUID `json:"session_id"`
	CardID    uuid.UUID `json:"card_id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Result    string    `json:"result"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent delivers the event to every handler subscribed to its type.
	EmitEvent(ctx context.Context, event *Event) error
}
