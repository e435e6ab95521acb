package domain

import "errors"

var (
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks an unknown call, agent, or source database.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a concurrent-mutation clash.
	ErrConflict = errors.New("conflict")

	// ErrInvalidActor marks an actor id that does not resolve to an active agent.
	ErrInvalidActor = errors.New("invalid actor")
)
