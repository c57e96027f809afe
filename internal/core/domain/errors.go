package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrShutdown indicates the sync service has been shut down.
	ErrShutdown = errors.New("sync service shut down")

	// Remote Errors.

	// ErrUnauthenticated indicates the server does not consider the session
	// logged in. Terminal for the current run.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrMalformedResponse indicates a response that could not be decoded or
	// lacked required members. Transient; retried on the next trigger.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrTransport indicates the request never produced a usable response.
	ErrTransport = errors.New("transport failure")

	// Local Errors.

	// ErrMalformedAction indicates a queued action whose persisted payload
	// cannot be decoded. Unrecoverable; the action is dropped.
	ErrMalformedAction = errors.New("malformed queued action")
)
