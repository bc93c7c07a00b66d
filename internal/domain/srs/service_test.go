package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-flashcards/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCard() *domain.Card {
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return &domain.Card{
		ID:        uuid.New(),
		DeckID:    uuid.New(),
		Front:     "front",
		Back:      "back",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestNewDefaultService(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	require.NotNil(t, service)

	impl, ok := service.(*defaultService)
	require.True(t, ok, "Expected *defaultService type")
	require.NotNil(t, impl.params)
	assert.Equal(t, 180, service.IntervalDays(7))

	assert.NotNil(t, NewServiceWithParams(nil).Params())
}

func TestScheduleReviewScenario(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	card := newTestCard()
	now := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	afterCorrect, err := service.ScheduleReview(card, domain.ResultCorrect, now)
	require.NoError(t, err)
	assert.Equal(t, 1, afterCorrect.Level)
	assert.Equal(t, 1, afterCorrect.CorrectCount)
	assert.Equal(t, 0, afterCorrect.IncorrectCount)
	require.NotNil(t, afterCorrect.NextReviewDate)
	assert.Equal(t, now.AddDate(0, 0, 1), *afterCorrect.NextReviewDate)
	require.NotNil(t, afterCorrect.LastReviewed)
	assert.Equal(t, now, *afterCorrect.LastReviewed)
	assert.Equal(t, now, afterCorrect.UpdatedAt)

	later := now.Add(24 * time.Hour)
	afterIncorrect, err := service.ScheduleReview(afterCorrect, domain.ResultIncorrect, later)
	require.NoError(t, err)
	assert.Equal(t, 0, afterIncorrect.Level)
	assert.Equal(t, 1, afterIncorrect.CorrectCount)
	assert.Equal(t, 1, afterIncorrect.IncorrectCount)
	assert.Equal(t, later, *afterIncorrect.NextReviewDate, "level 0 is due the same moment")

	assert.Equal(t, 0, card.Level, "input card must not be mutated")
	assert.Nil(t, card.NextReviewDate)
	assert.Equal(t, 1, afterCorrect.Level)
}

func TestScheduleReviewNeverNegative(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	card := newTestCard()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		next, err := service.ScheduleReview(card, domain.ResultIncorrect, now)
		require.NoError(t, err)
		assert.Equal(t, 0, next.Level)
		assert.Equal(t, i+1, next.IncorrectCount)
		card = next
	}
}

func TestScheduleReviewGapsNonDecreasing(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	card := newTestCard()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	prevGap := time.Duration(-1)
	for i := 0; i < 12; i++ {
		next, err := service.ScheduleReview(card, domain.ResultCorrect, now)
		require.NoError(t, err)
		gap := next.NextReviewDate.Sub(now)
		assert.GreaterOrEqual(t, gap, prevGap, "step %d", i)
		prevGap = gap
		card = next
	}
	assert.Equal(t, 12, card.Level, "level keeps counting past the table")
	assert.Equal(t, now.AddDate(0, 0, 180), *card.NextReviewDate)
}

func TestScheduleReviewErrors(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()

	_, err := service.ScheduleReview(nil, domain.ResultCorrect, time.Now())
	assert.ErrorIs(t, err, ErrNilCard)

	_, err = service.ScheduleReview(newTestCard(), domain.ReviewResult("skip"), time.Now())
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestCalculateNewLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, calculateNewLevel(0, domain.ResultCorrect))
	assert.Equal(t, 8, calculateNewLevel(7, domain.ResultCorrect))
	assert.Equal(t, 0, calculateNewLevel(0, domain.ResultIncorrect))
	assert.Equal(t, 2, calculateNewLevel(3, domain.ResultIncorrect))
}
