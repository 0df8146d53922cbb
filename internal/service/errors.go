package service

import "errors"

// Sentinel errors the API layer maps to HTTP statuses. Callers wrap
// them with fmt.Errorf("%w: ...") to add detail and check with
// errors.Is.
var (
	// ErrValidation marks a request the caller can fix.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized marks a failed or missing authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an authenticated caller acting outside their role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks an operation that lost to a concurrent writer,
	// such as approving a transaction someone else already approved.
	ErrConflict = errors.New("conflict")
)
