package chat

import "errors"

// Service-level error taxonomy. Handlers map these to HTTP status codes;
// nothing below the API layer knows about HTTP.
var (
	// ErrValidation: missing or malformed input, user-correctable.
	ErrValidation = errors.New("validation error")

	// ErrUnauthenticated: no valid session. Identity-lookup failures are
	// folded into this so storage errors never leak to anonymous callers.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnauthorized: valid session, insufficient permission. Deliberately
	// covers both "room does not exist" and "wrong password" on join so the
	// response does not reveal which private rooms exist.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound: a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a uniqueness constraint fired (duplicate room name,
	// duplicate favorite).
	ErrConflict = errors.New("conflict")

	// ErrRetryable: transient storage or transport failure, safe to retry
	// with backoff.
	ErrRetryable = errors.New("retryable failure")
)

// Retryable reports whether err is transient from the caller's perspective.
func Retryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}
