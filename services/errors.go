package services

import "errors"

// Classified failures. Controllers map these onto HTTP statuses; everything
// else surfaces as an internal error.
var (
	// ErrNotFound: referenced user or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the write collides with an existing row (duplicate check-in).
	ErrConflict = errors.New("conflict")
	// ErrValidation: malformed input, rejected before any store mutation.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden: the record exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")
	// ErrMissingDefinition: an unlock rule references an achievement key with no
	// active definition. A configuration bug, logged server-side, never shown to users.
	ErrMissingDefinition = errors.New("missing achievement definition")
)
