package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/librarium-io/library-manager-go/library"
)

// CheckoutState is the authoritative per-book snapshot the decide functions
// work on: the book row joined with its at-most-one active checkout. The
// checkout fields are invalid when no active checkout exists.
type CheckoutState struct {
	BookID       uuid.UUID
	CheckoutID   uuid.NullUUID
	CheckedOutBy uuid.NullUUID
}

// HasActiveCheckout reports whether the book is currently checked out.
func (s CheckoutState) HasActiveCheckout() bool {
	return s.CheckoutID.Valid
}

// DecideCreate validates the NoActiveCheckout -> ActiveCheckout transition.
// A nil state means the book does not exist.
//
// Rules:
//
//	GIVEN: a book with BookID
//	WHEN: a checkout for BookID is requested
//	THEN: nil, the caller may insert the active checkout row
//	ERROR: ErrEntityNotFound if the book does not exist
//	ERROR: ErrCheckoutConflict if the book is already checked out
func DecideCreate(state *CheckoutState, bookID uuid.UUID) error {
	if state == nil {
		return errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the book (%s) does not exist", bookID),
		)
	}

	if state.HasActiveCheckout() {
		return errors.Join(
			library.ErrCheckoutConflict,
			fmt.Errorf("the book (%s) is already checked out", bookID),
		)
	}

	return nil
}

// DecideReturn validates the ActiveCheckout -> NoActiveCheckout transition.
// A nil state means the book does not exist.
//
// Rules:
//
//	GIVEN: a book with BookID and an active checkout
//	WHEN: a return of CheckoutID by ReturnedBy is requested
//	THEN: nil, the caller may move the row into history
//	ERROR: ErrEntityNotFound if the book does not exist
//	ERROR: ErrCheckoutConflict if the book has no active checkout, or if the
//	       supplied (checkout id, returner) pair does not exactly match the
//	       active checkout; this rejects both wrong-user return attempts and
//	       stale checkout identifiers
func DecideReturn(state *CheckoutState, event library.ReturnCheckout) error {
	if state == nil {
		return errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the book (%s) does not exist", event.BookID),
		)
	}

	if !state.HasActiveCheckout() {
		return errors.Join(
			library.ErrCheckoutConflict,
			fmt.Errorf("the book (%s) is not checked out", event.BookID),
		)
	}

	if state.CheckoutID.UUID != event.CheckoutID || state.CheckedOutBy.UUID != event.ReturnedBy {
		return errors.Join(
			library.ErrCheckoutConflict,
			fmt.Errorf(
				"the user (%s) can not return the book (%s) for the checkout (%s)",
				event.ReturnedBy, event.BookID, event.CheckoutID,
			),
		)
	}

	return nil
}
