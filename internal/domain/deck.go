package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var deckColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Deck groups cards. TotalCards, MasteredCards and LearningCards are derived
// from the deck's cards and are only written through ApplyCounts.
type Deck struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastStudied   *time.Time `json:"last_studied,omitempty"`
	TotalCards    int        `json:"total_cards"`
	MasteredCards int        `json:"mastered_cards"`
	LearningCards int        `json:"learning_cards"`
	Color         string     `json:"color,omitempty"`
}

// DeckCounts holds the derived card counters of a deck.
type DeckCounts struct {
	Total    int `json:"total_cards"`
	Mastered int `json:"mastered_cards"`
	Learning int `json:"learning_cards"`
}

// NewDeck creates an empty deck. An empty color means no color.
func NewDeck(name, description, color string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Color:       color,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(d.Name) == "" {
		return NewValidationError("name", "cannot be empty", ErrEmptyContent)
	}
	if d.Color != "" && !deckColorPattern.MatchString(d.Color) {
		return NewValidationError("color", "must be a #RRGGBB hex value", ErrInvalidColor)
	}
	if d.TotalCards < 0 || d.MasteredCards < 0 || d.LearningCards < 0 {
		return NewValidationError("counts", "cannot be negative", ErrNegativeCount)
	}
	return nil
}

// Update replaces the user-editable fields. The deck is left untouched when
// the new values are invalid.
func (d *Deck) Update(name, description, color string, now time.Time) error {
	updated := d.Clone()
	updated.Name = strings.TrimSpace(name)
	updated.Description = description
	updated.Color = color
	updated.UpdatedAt = now
	if err := updated.Validate(); err != nil {
		return err
	}
	*d = *updated
	return nil
}

// Counts returns the deck's current counters.
func (d *Deck) Counts() DeckCounts {
	return DeckCounts{Total: d.TotalCards, Mastered: d.MasteredCards, Learning: d.LearningCards}
}

// ApplyCounts stores c on the deck and reports whether anything changed.
func (d *Deck) ApplyCounts(c DeckCounts) bool {
	if d.Counts() == c {
		return false
	}
	d.TotalCards = c.Total
	d.MasteredCards = c.Mastered
	d.LearningCards = c.Learning
	return true
}

// Clone returns a deep copy of the deck.
func (d *Deck) Clone() *Deck {
	if d == nil {
		return nil
	}
	cp := *d
	cp.LastStudied = cloneTime(d.LastStudied)
	return &cp
}

// CountCards computes the derived counters for deckID over cards.
// Cards belonging to other decks are ignored.
func CountCards(deckID uuid.UUID, cards []*Card) DeckCounts {
	var c DeckCounts
	for _, card := range cards {
		if card == nil || card.DeckID != deckID {
			continue
		}
		c.Total++
		switch {
		case card.IsMastered():
			c.Mastered++
		case card.IsLearning():
			c.Learning++
		}
	}
	return c
}
