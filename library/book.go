package library

import (
	"github.com/google/uuid"
)

// BookOwner identifies the user who registered a book in the catalog.
type BookOwner struct {
	UserID uuid.UUID
	Name   string
}

// Book is a single-copy catalog entry. A book has at most one outstanding
// checkout at any time; that invariant is enforced by the checkout core, not
// by this type.
type Book struct {
	ID          uuid.UUID
	Title       string
	Author      string
	ISBN        string
	Description string
	Owner       BookOwner
}

// BookPage is one page of a paginated catalog listing.
type BookPage struct {
	Total  int64
	Limit  int64
	Offset int64
	Items  []Book
}

// CreateBook carries the fields for registering a new book, owned by the
// registering user.
type CreateBook struct {
	Title       string
	Author      string
	ISBN        string
	Description string
	OwnedBy     uuid.UUID
}

// UpdateBook carries a full replacement of a book's descriptive fields.
// RequestedBy must be the book's owner.
type UpdateBook struct {
	BookID      uuid.UUID
	Title       string
	Author      string
	ISBN        string
	Description string
	RequestedBy uuid.UUID
}

// DeleteBook removes a book from the catalog. RequestedBy must be the book's
// owner.
type DeleteBook struct {
	BookID      uuid.UUID
	RequestedBy uuid.UUID
}
