package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateActiveTicket means the patient already holds a
	// waiting or serving ticket for the day.
	ErrDuplicateActiveTicket = errors.New("patient already has an active ticket")
	ErrQueueClosed           = errors.New("queue is closed")
	ErrQueueEmpty            = errors.New("no patients waiting")
	ErrInvalidTransition     = errors.New("invalid ticket transition")
	// ErrConcurrency means the ticket numbering race exceeded its retry
	// budget; the whole call is safe to retry.
	ErrConcurrency      = errors.New("ticket numbering contention")
	ErrSettingsNotFound = errors.New("queue settings not found")

	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
