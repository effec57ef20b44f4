package errors

import "errors"

// This package defines a centralized set of sentinel errors for the
// application. Services return these recognizable errors without coupling
// themselves to HTTP status codes; the API layer maps them with errors.Is().

var (
	// ErrNotFound signifies that a requested resource could not be located,
	// e.g. a conversation identifier that does not resolve.
	// Mapped to 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that client-supplied input failed validation.
	// Mapped to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrProvider signifies that the completion provider call failed or was
	// interrupted mid-stream. On streaming endpoints this becomes a terminal
	// `error` event rather than an HTTP status.
	ErrProvider = errors.New("completion provider error")

	// ErrInternal signifies an unexpected server-side error. Kept generic so
	// implementation details never leak to the client.
	// Mapped to 500 Internal Server Error.
	ErrInternal = errors.New("internal server error")
)
