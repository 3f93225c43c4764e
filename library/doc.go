// Package library provides the core domain model and repository contracts
// for the library management backend.
//
// This package defines the entities (Book, User, Checkout), the mutation
// events that repositories accept, the shared error taxonomy, and the
// repository contracts that storage engines implement.
//
// Key types:
//   - Checkout: a loan of a book, active while ReturnedAt is nil
//   - CreateCheckout / ReturnCheckout: the two checkout state transitions
//   - CheckoutRepository: the operation set of the checkout core
//
// Common usage pattern:
//
//	store, _ := postgresengine.NewStoreFromPGXPool(pool)
//	var checkouts library.CheckoutRepository = store
//
//	err := checkouts.CreateCheckout(ctx, library.CreateCheckout{
//		BookID:       bookID,
//		CheckedOutBy: userID,
//		CheckedOutAt: time.Now(),
//	})
//	if errors.Is(err, library.ErrCheckoutConflict) {
//		// the book is already checked out
//	}
package library
