package library

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutBook carries the descriptive book fields that checkout listings are
// joined with.
type CheckoutBook struct {
	BookID uuid.UUID
	Title  string
	Author string
	ISBN   string
}

// Checkout is a loan of a book. It is active while ReturnedAt is nil and
// becomes history once the return transition sets it. A book's full history
// is the union of zero-or-one active Checkout plus all its returned ones.
type Checkout struct {
	ID           uuid.UUID
	Book         CheckoutBook
	CheckedOutBy uuid.UUID
	CheckedOutAt time.Time
	ReturnedAt   *time.Time
}

// IsReturned reports whether the checkout has been converted into history.
func (c Checkout) IsReturned() bool {
	return c.ReturnedAt != nil
}

// CreateCheckout is the NoActiveCheckout -> ActiveCheckout transition: the
// named book is lent to the named borrower at the given time.
type CreateCheckout struct {
	BookID       uuid.UUID
	CheckedOutBy uuid.UUID
	CheckedOutAt time.Time
}

// ReturnCheckout is the ActiveCheckout -> NoActiveCheckout transition: the
// named checkout of the named book is returned by the named user at the given
// time. The (CheckoutID, ReturnedBy) pair must match the current active
// checkout exactly.
type ReturnCheckout struct {
	CheckoutID uuid.UUID
	BookID     uuid.UUID
	ReturnedBy uuid.UUID
	ReturnedAt time.Time
}
