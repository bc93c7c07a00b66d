// Package events provides a small in-process event bus.
//
// Services emit events without knowing which handlers process them. The study
// service emits:
//   - SessionCompleted when the last card of a session is answered
//   - CardReviewed after each answered card has been persisted
//
// Handlers subscribe per event type.
package events
