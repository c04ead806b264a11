package domain

import "errors"

// Sentinel errors shared by services, repositories and HTTP controllers.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller does not own the record.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when the request is well-formed but not acceptable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidReference is returned when a scoped mutation names an occurrence
	// that is not part of the supplied series.
	ErrInvalidReference = errors.New("invalid reference occurrence")
)
