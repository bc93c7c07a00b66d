// Package store defines the persistence contracts for decks, cards, study
// sessions and backups, along with the sentinel errors callers match on.
// Concrete key-value backends live under internal/platform.
package store
