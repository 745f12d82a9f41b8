package domain

import "errors"

// Failure taxonomy. Callers distinguish outcomes with errors.Is; the
// boundary layer maps these to user-visible responses.
var (
	// ErrNotFound means the device id is absent from the registry.
	ErrNotFound = errors.New("device not found")

	// ErrUnreachable means the device's authoritative process could not
	// be contacted (timeout, refused connection, non-protocol response).
	ErrUnreachable = errors.New("device unreachable")

	// ErrInvalidAction means the action name or parameter failed the
	// variant's precondition; no transition was attempted.
	ErrInvalidAction = errors.New("invalid action")
)
