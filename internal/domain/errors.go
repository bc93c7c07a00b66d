package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Every ValidationError matches it with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or empty.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidReviewResult is returned when a review result is not correct or incorrect.
	ErrInvalidReviewResult = errors.New("invalid review result")

	// ErrNegativeCount is returned when a level or counter is below zero.
	ErrNegativeCount = errors.New("count cannot be negative")

	// ErrInvalidColor is returned when a deck color is not a #RRGGBB hex string.
	ErrInvalidColor = errors.New("invalid color")

	// ErrInvalidTimeRange is returned when an end time precedes its start time.
	ErrInvalidTimeRange = errors.New("end time before start time")
)

// ValidationError describes a single field that failed validation.
// It matches both ErrValidation and its underlying cause with errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Message)
}

// Unwrap exposes ErrValidation and the specific cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
