// Package domain defines the core flashcard entities (cards, decks and study
// sessions), their validation rules and the errors shared across the
// application.
package domain
