package library

import (
	"errors"
)

// Error taxonomy shared by all repository implementations.
//
// Storage engines attach the underlying driver error with errors.Join, so
// callers match the kind with errors.Is and still see the cause when the
// chain is printed or logged.
var (
	// ErrEntityNotFound indicates that a referenced entity (book, user or
	// checkout) does not exist. Surfaced to callers as a client-visible
	// "not found".
	ErrEntityNotFound = errors.New("entity not found")

	// ErrCheckoutConflict indicates that a checkout or return precondition
	// was violated under the serializable re-read: the book is already
	// checked out, or the supplied checkout/returner pair does not match the
	// current active checkout. Serialization aborts detected by the database
	// (SQLSTATE 40001) map to this same error. Never retried by the core.
	ErrCheckoutConflict = errors.New("checkout conflict, the request cannot be applied to the current state")

	// ErrNoRowsAffected indicates that a write which should have affected
	// exactly one row affected zero. This is an invariant violation (a bug or
	// an undetected race), not a user error.
	ErrNoRowsAffected = errors.New("no rows were affected by a write that expected one")

	// ErrStorageFailed indicates a statement-level database failure.
	ErrStorageFailed = errors.New("storage operation failed")

	// ErrTransactionFailed indicates that a transaction could not be started
	// or committed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrUnauthorized indicates that the supplied credentials do not match a
	// known user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnauthenticated indicates that no valid identity was supplied with
	// the request.
	ErrUnauthenticated = errors.New("unauthenticated")
)
