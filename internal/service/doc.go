// Package service contains the application use cases for decks and cards.
// Services receive their storage through constructors and never depend on a
// specific backend.
//
// Study sessions live in the study subpackage and statistics in the stats
// subpackage; both share the ServiceError type and sentinels declared here.
package service
