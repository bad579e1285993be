package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for missing or invalid arguments before any side effect.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned when a referenced entity is absent from the local store.
	ErrNotFound = errors.New("not found")
	// ErrPersistenceFailed is returned when the remote gateway rejects or fails a call.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrInvalidState is returned when the tracker is in the wrong state for an operation.
	ErrInvalidState = errors.New("invalid state")

	ErrTrackingFailed = errors.New("tracking failed")
	ErrCreationFailed = errors.New("creation failed")
	ErrStopFailed     = errors.New("stop failed")

	// ErrDuplicate is an ErrInvalidArgument for names that already exist locally.
	ErrDuplicate = fmt.Errorf("%w: duplicate name", ErrInvalidArgument)
)

// Invalid wraps ErrInvalidArgument with a message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Persistence wraps a gateway error as ErrPersistenceFailed, keeping the cause.
func Persistence(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrPersistenceFailed, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistenceFailed, op, err)
}
