package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MasteryLevel is the level at which a card counts as mastered.
const MasteryLevel = 5

// Card is a single flashcard. Level, counters and review dates are owned by
// the scheduler; everything else is user content.
type Card struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Level          int        `json:"level"`
	NextReviewDate *time.Time `json:"next_review_date,omitempty"`
	CorrectCount   int        `json:"correct_count"`
	IncorrectCount int        `json:"incorrect_count"`
	LastReviewed   *time.Time `json:"last_reviewed,omitempty"`
	Tags           []string   `json:"tags"`
}

// NewCard creates a new level 0 card in the given deck.
// It generates a new UUID for the card and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewCard(deckID uuid.UUID, front, back string, tags []string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      normalizeTags(tags),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if c.DeckID == uuid.Nil {
		return NewValidationError("deck_id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(c.Front) == "" {
		return NewValidationError("front", "cannot be empty", ErrEmptyContent)
	}
	if strings.TrimSpace(c.Back) == "" {
		return NewValidationError("back", "cannot be empty", ErrEmptyContent)
	}
	if c.Level < 0 {
		return NewValidationError("level", "cannot be negative", ErrNegativeCount)
	}
	if c.CorrectCount < 0 {
		return NewValidationError("correct_count", "cannot be negative", ErrNegativeCount)
	}
	if c.IncorrectCount < 0 {
		return NewValidationError("incorrect_count", "cannot be negative", ErrNegativeCount)
	}
	return nil
}

// UpdateContent replaces the user-editable fields. The card is left untouched
// when the new content is invalid.
func (c *Card) UpdateContent(front, back string, tags []string, now time.Time) error {
	updated := c.Clone()
	updated.Front = front
	updated.Back = back
	updated.Tags = normalizeTags(tags)
	updated.UpdatedAt = now
	if err := updated.Validate(); err != nil {
		return err
	}
	*c = *updated
	return nil
}

// IsMastered reports whether the card reached MasteryLevel.
func (c *Card) IsMastered() bool {
	return c.Level >= MasteryLevel
}

// IsLearning reports whether the card has progressed but is not yet mastered.
func (c *Card) IsLearning() bool {
	return c.Level > 0 && c.Level < MasteryLevel
}

// IsNeverReviewed reports whether the card has no review history at all.
func (c *Card) IsNeverReviewed() bool {
	return c.LastReviewed == nil && c.CorrectCount == 0 && c.IncorrectCount == 0
}

// IsDue reports whether the card has no scheduled date or is scheduled at or before now.
func (c *Card) IsDue(now time.Time) bool {
	return c.NextReviewDate == nil || !c.NextReviewDate.After(now)
}

// Clone returns a deep copy of the card.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cp := *c
	cp.NextReviewDate = cloneTime(c.NextReviewDate)
	cp.LastReviewed = cloneTime(c.LastReviewed)
	if c.Tags != nil {
		cp.Tags = make([]string, len(c.Tags))
		copy(cp.Tags, c.Tags)
	}
	return &cp
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
