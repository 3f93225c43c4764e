package core_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/library/core"
)

func Test_DecideCreate_When_BookExists_And_NoActiveCheckout(t *testing.T) {
	// arrange
	state := &core.CheckoutState{BookID: uuid.New()}

	// act
	err := core.DecideCreate(state, state.BookID)

	// assert
	assert.NoError(t, err)
}

func Test_DecideCreate_When_BookDoesNotExist(t *testing.T) {
	// act
	err := core.DecideCreate(nil, uuid.New())

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_DecideCreate_When_BookIsAlreadyCheckedOut(t *testing.T) {
	// arrange
	state := &core.CheckoutState{
		BookID:       uuid.New(),
		CheckoutID:   uuid.NullUUID{UUID: uuid.New(), Valid: true},
		CheckedOutBy: uuid.NullUUID{UUID: uuid.New(), Valid: true},
	}

	// act
	err := core.DecideCreate(state, state.BookID)

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrCheckoutConflict)
}

func Test_DecideReturn_When_CheckoutAndReturnerMatch(t *testing.T) {
	// arrange
	checkoutID := uuid.New()
	borrowerID := uuid.New()
	state := &core.CheckoutState{
		BookID:       uuid.New(),
		CheckoutID:   uuid.NullUUID{UUID: checkoutID, Valid: true},
		CheckedOutBy: uuid.NullUUID{UUID: borrowerID, Valid: true},
	}

	// act
	err := core.DecideReturn(state, library.ReturnCheckout{
		CheckoutID: checkoutID,
		BookID:     state.BookID,
		ReturnedBy: borrowerID,
	})

	// assert
	assert.NoError(t, err)
}

func Test_DecideReturn_When_BookDoesNotExist(t *testing.T) {
	// act
	err := core.DecideReturn(nil, library.ReturnCheckout{
		CheckoutID: uuid.New(),
		BookID:     uuid.New(),
		ReturnedBy: uuid.New(),
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrEntityNotFound)
}

func Test_DecideReturn_When_BookIsNotCheckedOut(t *testing.T) {
	// arrange
	state := &core.CheckoutState{BookID: uuid.New()}

	// act
	err := core.DecideReturn(state, library.ReturnCheckout{
		CheckoutID: uuid.New(),
		BookID:     state.BookID,
		ReturnedBy: uuid.New(),
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrCheckoutConflict)
}

func Test_DecideReturn_When_AnotherUserTriesToReturn(t *testing.T) {
	// arrange
	checkoutID := uuid.New()
	state := &core.CheckoutState{
		BookID:       uuid.New(),
		CheckoutID:   uuid.NullUUID{UUID: checkoutID, Valid: true},
		CheckedOutBy: uuid.NullUUID{UUID: uuid.New(), Valid: true},
	}

	// act
	err := core.DecideReturn(state, library.ReturnCheckout{
		CheckoutID: checkoutID,
		BookID:     state.BookID,
		ReturnedBy: uuid.New(), // not the borrower
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrCheckoutConflict)
}

func Test_DecideReturn_When_CheckoutIDIsStale(t *testing.T) {
	// arrange
	borrowerID := uuid.New()
	state := &core.CheckoutState{
		BookID:       uuid.New(),
		CheckoutID:   uuid.NullUUID{UUID: uuid.New(), Valid: true},
		CheckedOutBy: uuid.NullUUID{UUID: borrowerID, Valid: true},
	}

	// act
	err := core.DecideReturn(state, library.ReturnCheckout{
		CheckoutID: uuid.New(), // from an earlier, already returned checkout
		BookID:     state.BookID,
		ReturnedBy: borrowerID,
	})

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrCheckoutConflict)
}
