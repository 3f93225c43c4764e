package postgresengine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/library/postgresengine/internal/adapters"
	"github.com/librarium-io/library-manager-go/testutil/config"
	"github.com/librarium-io/library-manager-go/testutil/helper"
)

var errInjectedStatementFault = errors.New("injected statement fault")

// statementFaultAdapter delegates to a real adapter but fails every statement
// inside a transaction whose SQL starts with the configured prefix. It lets
// the test force a crash between the two writes of a return transition.
type statementFaultAdapter struct {
	adapters.DBAdapter
	failOnPrefix string
}

func (a *statementFaultAdapter) BeginSerializable(ctx context.Context) (adapters.DBTransaction, error) {
	tx, err := a.DBAdapter.BeginSerializable(ctx)
	if err != nil {
		return nil, err
	}

	return &statementFaultTransaction{DBTransaction: tx, failOnPrefix: a.failOnPrefix}, nil
}

type statementFaultTransaction struct {
	adapters.DBTransaction
	failOnPrefix string
}

func (t *statementFaultTransaction) Exec(ctx context.Context, query string) (adapters.DBResult, error) {
	if strings.HasPrefix(query, t.failOnPrefix) {
		return nil, errInjectedStatementFault
	}

	return t.DBTransaction.Exec(ctx, query)
}

func Test_ReturnCheckout_When_TheDeleteFails_NothingIsPersisted(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
	require.NoError(t, err, "error connecting to DB pool in test setup")
	defer pool.Close()

	helper.ApplySchema(t, pool)
	helper.CleanUpLibraryTables(t, pool)

	// The history insert succeeds, the delete of the active row fails.
	faultyStore, err := newStore(&statementFaultAdapter{
		DBAdapter:    adapters.NewPGXAdapter(pool),
		failOnPrefix: "DELETE",
	})
	require.NoError(t, err, "error creating store")

	// arrange
	ownerID := helper.GivenUser(t, ctx, pool)
	borrowerID := helper.GivenUser(t, ctx, pool)
	bookID := helper.GivenBook(t, ctx, pool, ownerID)
	checkoutID := helper.GivenCheckout(t, ctx, pool, bookID, borrowerID, time.Now())

	// act
	err = faultyStore.ReturnCheckout(ctx, library.ReturnCheckout{
		CheckoutID: checkoutID,
		BookID:     bookID,
		ReturnedBy: borrowerID,
		ReturnedAt: time.Now(),
	})

	// assert - the transaction rolled back as a whole: the checkout is still
	// active and no partial history row survived the failed delete
	assert.Error(t, err)
	assert.ErrorIs(t, err, library.ErrStorageFailed)
	assert.Equal(t, 1, helper.ActiveCheckoutCount(t, ctx, pool, bookID))
	assert.Equal(t, 0, helper.ReturnedCheckoutCount(t, ctx, pool, bookID))

	// A clean store can still complete the return afterward.
	cleanStore, err := NewStoreFromPGXPool(pool)
	require.NoError(t, err)

	err = cleanStore.ReturnCheckout(ctx, library.ReturnCheckout{
		CheckoutID: checkoutID,
		BookID:     bookID,
		ReturnedBy: borrowerID,
		ReturnedAt: time.Now(),
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, helper.ActiveCheckoutCount(t, ctx, pool, bookID))
	assert.Equal(t, 1, helper.ReturnedCheckoutCount(t, ctx, pool, bookID))
}
