package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()

	card, err := NewCard(deckID, "What is Go?", "A programming language", []string{"lang", " lang ", "", "go"})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, deckID, card.DeckID)
	assert.Equal(t, 0, card.Level)
	assert.Nil(t, card.NextReviewDate)
	assert.Nil(t, card.LastReviewed)
	assert.Equal(t, []string{"lang", "go"}, card.Tags)
	assert.False(t, card.CreatedAt.IsZero())
	assert.Equal(t, card.CreatedAt, card.UpdatedAt)
	assert.True(t, card.IsNeverReviewed())
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Card {
		return &Card{ID: uuid.New(), DeckID: uuid.New(), Front: "f", Back: "b"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Card)
		wantErr error
		field   string
	}{
		{name: "valid", mutate: func(c *Card) {}},
		{name: "nil id", mutate: func(c *Card) { c.ID = uuid.Nil }, wantErr: ErrInvalidID, field: "id"},
		{name: "nil deck", mutate: func(c *Card) { c.DeckID = uuid.Nil }, wantErr: ErrInvalidID, field: "deck_id"},
		{name: "blank front", mutate: func(c *Card) { c.Front = "  " }, wantErr: ErrEmptyContent, field: "front"},
		{name: "empty back", mutate: func(c *Card) { c.Back = "" }, wantErr: ErrEmptyContent, field: "back"},
		{name: "negative level", mutate: func(c *Card) { c.Level = -1 }, wantErr: ErrNegativeCount, field: "level"},
		{name: "negative correct", mutate: func(c *Card) { c.CorrectCount = -1 }, wantErr: ErrNegativeCount, field: "correct_count"},
		{name: "negative incorrect", mutate: func(c *Card) { c.IncorrectCount = -2 }, wantErr: ErrNegativeCount, field: "incorrect_count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, tt.wantErr)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestCardUpdateContentKeepsPriorStateOnError(t *testing.T) {
	t.Parallel()
	card, err := NewCard(uuid.New(), "front", "back", nil)
	require.NoError(t, err)
	before := card.Clone()

	err = card.UpdateContent("", "new back", nil, time.Now())

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, before, card)

	now := time.Now().UTC().Add(time.Minute)
	require.NoError(t, card.UpdateContent("new front", "new back", []string{"x"}, now))
	assert.Equal(t, "new front", card.Front)
	assert.Equal(t, []string{"x"}, card.Tags)
	assert.Equal(t, now, card.UpdatedAt)
}

func TestCardClassification(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name     string
		card     Card
		mastered bool
		learning bool
		due      bool
	}{
		{name: "new", card: Card{Level: 0}, due: true},
		{name: "learning due", card: Card{Level: 2, NextReviewDate: &past}, learning: true, due: true},
		{name: "learning at exactly now", card: Card{Level: 4, NextReviewDate: &now}, learning: true, due: true},
		{name: "mastered later", card: Card{Level: 5, NextReviewDate: &future}, mastered: true},
		{name: "above table", card: Card{Level: 9, NextReviewDate: &future}, mastered: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.mastered, tt.card.IsMastered())
			assert.Equal(t, tt.learning, tt.card.IsLearning())
			assert.Equal(t, tt.due, tt.card.IsDue(now))
		})
	}
}

func TestCardCloneIsDeep(t *testing.T) {
	t.Parallel()
	ts := time.Now()
	card := &Card{ID: uuid.New(), NextReviewDate: &ts, LastReviewed: &ts, Tags: []string{"a"}}

	cp := card.Clone()
	*cp.NextReviewDate = ts.Add(time.Hour)
	cp.Tags[0] = "b"

	assert.Equal(t, ts, *card.NextReviewDate)
	assert.Equal(t, "a", card.Tags[0])
	assert.Nil(t, (*Card)(nil).Clone())
}
