package srs

import (
	"time"

	"github.com/phrazzld/scry-flashcards/internal/domain"
)

// calculateNewLevel moves a level one step up on a correct answer and one step
// down on an incorrect one. The level never drops below zero.
func calculateNewLevel(level int, result domain.ReviewResult) int {
	if result == domain.ResultCorrect {
		return level + 1
	}
	if level <= 0 {
		return 0
	}
	return level - 1
}

// calculateNextReviewDate adds the interval for level to now.
// Calendar days are used so the time of day is kept.
func calculateNextReviewDate(level int, now time.Time, params *Params) time.Time {
	return now.AddDate(0, 0, params.IntervalDays(level))
}

// calculateNextCard produces the scheduled copy of card for result.
//
// The input card is never modified. The returned card has:
//   - Level moved by calculateNewLevel
//   - CorrectCount or IncorrectCount incremented
//   - LastReviewed and UpdatedAt set to now
//   - NextReviewDate recomputed from the new level
func calculateNextCard(
	card *domain.Card,
	result domain.ReviewResult,
	now time.Time,
	params *Params,
) *domain.Card {
	next := card.Clone()

	next.Level = calculateNewLevel(card.Level, result)
	if result == domain.ResultCorrect {
		next.CorrectCount++
	} else {
		next.IncorrectCount++
	}

	reviewed := now
	due := calculateNextReviewDate(next.Level, now, params)
	next.LastReviewed = &reviewed
	next.NextReviewDate = &due
	next.UpdatedAt = now

	return next
}
