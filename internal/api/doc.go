// Package api exposes decks, cards, study sessions, statistics and backups
// over HTTP. Handlers decode and validate requests, call the services and map
// their errors to status codes with client-safe messages.
package api
