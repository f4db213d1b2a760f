package domain

import "errors"

// Sentinel errors shared across usecases and adapters.
// Adapters wrap these with context via fmt.Errorf and %w; callers test with
// errors.Is.
var (
	// ErrClientNotFound is returned when a referenced client id does not
	// exist in the registry.
	ErrClientNotFound = errors.New("client not found")

	// ErrOperationNotFound is returned when a referenced operation id does
	// not exist in the log.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrEmailTaken is returned when creating a client with an email that
	// already belongs to another client.
	ErrEmailTaken = errors.New("email already registered")
)
