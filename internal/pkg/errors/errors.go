package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is returned when a natural key is already taken.
	ErrConflict = errors.New("conflict")
	// ErrNoRecipients is returned when a notification has no usable address.
	ErrNoRecipients = errors.New("no recipients")
)
