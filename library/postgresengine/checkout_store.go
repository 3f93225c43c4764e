package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/library/core"
	"github.com/librarium-io/library-manager-go/library/postgresengine/internal/adapters"
)

const (
	opCreateCheckout = "create checkout"
	opReturnCheckout = "return checkout"

	logMsgCheckoutCreated  = "checkout created"
	logMsgCheckoutReturned = "checkout returned"

	logAttrBookID     = "book_id"
	logAttrCheckoutID = "checkout_id"
)

// CreateCheckout performs the NoActiveCheckout -> ActiveCheckout transition.
//
// The whole transition runs inside one serializable transaction: the current
// book/checkout state is re-read inside that transaction and the precondition
// checks run against that fresh read, never against state read before the
// transaction began. A weaker isolation level would let two concurrent calls
// both read "no active checkout" before either writes, producing two active
// checkouts for one book.
//
// Errors: library.ErrEntityNotFound when the book does not exist,
// library.ErrCheckoutConflict when the book is already checked out or a
// concurrent transaction won the race, library.ErrNoRowsAffected when the
// insert unexpectedly applied no row.
func (s *Store) CreateCheckout(ctx context.Context, event library.CreateCheckout) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	state, err := s.readCheckoutState(ctx, tx, event.BookID)
	if err != nil {
		return err
	}

	if decideErr := core.DecideCreate(state, event.BookID); decideErr != nil {
		s.observeDecision(opCreateCheckout, decideErr)
		return decideErr
	}

	checkoutID := uuid.New()

	sqlQuery, buildErr := s.buildInsertCheckoutQuery(checkoutID, event)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.executeStatement(ctx, tx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected < 1 {
		return errors.Join(library.ErrNoRowsAffected, errors.New("no checkout record has been created"))
	}

	if commitErr := s.commit(ctx, tx); commitErr != nil {
		return commitErr
	}

	s.logOperation(logMsgCheckoutCreated,
		logAttrBookID, event.BookID.String(),
		logAttrCheckoutID, checkoutID.String())

	return nil
}

// ReturnCheckout performs the ActiveCheckout -> NoActiveCheckout transition,
// atomically appending the history record and deleting the active row inside
// one serializable transaction. Both writes happen or neither happens.
//
// Errors: library.ErrEntityNotFound when the book does not exist,
// library.ErrCheckoutConflict when there is no active checkout or the
// supplied (checkout id, returner) pair does not match it exactly,
// library.ErrNoRowsAffected when one of the writes unexpectedly applied no
// row (the transaction is rolled back, restoring the pre-call state).
func (s *Store) ReturnCheckout(ctx context.Context, event library.ReturnCheckout) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	state, err := s.readCheckoutState(ctx, tx, event.BookID)
	if err != nil {
		return err
	}

	if decideErr := core.DecideReturn(state, event); decideErr != nil {
		s.observeDecision(opReturnCheckout, decideErr)
		return decideErr
	}

	insertQuery, buildErr := s.buildInsertReturnedCheckoutQuery(event)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.executeStatement(ctx, tx, insertQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected < 1 {
		return errors.Join(library.ErrNoRowsAffected, errors.New("no returned checkout record has been created"))
	}

	deleteQuery, buildErr := s.buildDeleteCheckoutQuery(event.CheckoutID)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr = s.executeStatement(ctx, tx, deleteQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected < 1 {
		return errors.Join(library.ErrNoRowsAffected, errors.New("no checkout record has been deleted"))
	}

	if commitErr := s.commit(ctx, tx); commitErr != nil {
		return commitErr
	}

	s.logOperation(logMsgCheckoutReturned,
		logAttrBookID, event.BookID.String(),
		logAttrCheckoutID, event.CheckoutID.String())

	return nil
}

// FindUnreturnedAll returns all active checkouts joined with book fields,
// oldest loan first.
func (s *Store) FindUnreturnedAll(ctx context.Context) ([]library.Checkout, error) {
	return s.findUnreturned(ctx, uuid.NullUUID{})
}

// FindUnreturnedByUser returns the given borrower's active checkouts joined
// with book fields, oldest loan first.
func (s *Store) FindUnreturnedByUser(ctx context.Context, userID uuid.UUID) ([]library.Checkout, error) {
	return s.findUnreturned(ctx, uuid.NullUUID{UUID: userID, Valid: true})
}

// FindHistoryByBook returns the book's current active checkout (if any)
// prepended to its returned history ordered by checkout timestamp
// descending: "currently out" before "previously out, most recent first".
//
// Errors: library.ErrEntityNotFound when the book does not exist.
func (s *Store) FindHistoryByBook(ctx context.Context, bookID uuid.UUID) ([]library.Checkout, error) {
	if _, err := s.FindBookByID(ctx, bookID); err != nil {
		return nil, err
	}

	active, err := s.findActiveByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	sqlQuery, buildErr := s.buildReturnedHistoryQuery(bookID)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	history := make([]library.Checkout, 0)

	for rows.Next() {
		var checkout library.Checkout
		var returnedAt time.Time

		scanErr := rows.Scan(
			&checkout.ID,
			&checkout.Book.BookID,
			&checkout.CheckedOutBy,
			&checkout.CheckedOutAt,
			&returnedAt,
			&checkout.Book.Title,
			&checkout.Book.Author,
			&checkout.Book.ISBN,
		)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(library.ErrStorageFailed, scanErr)
		}

		checkout.ReturnedAt = &returnedAt
		history = append(history, checkout)
	}

	if active != nil {
		history = append([]library.Checkout{*active}, history...)
	}

	return history, nil
}

// readCheckoutState reads, inside the given transaction, the authoritative
// current state of the book and any active checkout for it: the book row
// left-outer-joined with at most one checkout row, NULL checkout fields if
// none. A nil state means the book does not exist.
func (s *Store) readCheckoutState(
	ctx context.Context,
	tx adapters.DBTransaction,
	bookID uuid.UUID,
) (*core.CheckoutState, error) {

	sqlQuery, buildErr := s.buildCheckoutStateQuery(bookID)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, tx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return nil, nil
	}

	state := &core.CheckoutState{}
	if scanErr := rows.Scan(&state.BookID, &state.CheckoutID, &state.CheckedOutBy); scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return nil, errors.Join(library.ErrStorageFailed, scanErr)
	}

	return state, nil
}

// findActiveByBook returns the book's active checkout joined with book
// fields, or nil if the book is not checked out.
func (s *Store) findActiveByBook(ctx context.Context, bookID uuid.UUID) (*library.Checkout, error) {
	sqlQuery, buildErr := s.buildActiveByBookQuery(bookID)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return nil, nil
	}

	var checkout library.Checkout
	scanErr := rows.Scan(
		&checkout.ID,
		&checkout.Book.BookID,
		&checkout.CheckedOutBy,
		&checkout.CheckedOutAt,
		&checkout.Book.Title,
		&checkout.Book.Author,
		&checkout.Book.ISBN,
	)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return nil, errors.Join(library.ErrStorageFailed, scanErr)
	}

	return &checkout, nil
}

func (s *Store) findUnreturned(ctx context.Context, byUser uuid.NullUUID) ([]library.Checkout, error) {
	sqlQuery, buildErr := s.buildUnreturnedQuery(byUser)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	checkouts := make([]library.Checkout, 0)

	for rows.Next() {
		var checkout library.Checkout

		scanErr := rows.Scan(
			&checkout.ID,
			&checkout.Book.BookID,
			&checkout.CheckedOutBy,
			&checkout.CheckedOutAt,
			&checkout.Book.Title,
			&checkout.Book.Author,
			&checkout.Book.ISBN,
		)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(library.ErrStorageFailed, scanErr)
		}

		checkouts = append(checkouts, checkout)
	}

	return checkouts, nil
}

// observeDecision logs and counts precondition failures; conflicts are
// expected outcomes under contention.
func (s *Store) observeDecision(operation string, decideErr error) {
	if errors.Is(decideErr, library.ErrCheckoutConflict) {
		s.logConflict(logMsgOperation+operation, decideErr)
		s.recordOperationMetric(metricCheckoutConflicts, operation)
	}
}

func (s *Store) buildCheckoutStateQuery(bookID uuid.UUID) (sqlQueryString, error) {
	stmt := s.builder().
		From(goqu.T(tableBooks).As("b")).
		Select(
			goqu.I("b."+colBookID),
			goqu.I("c."+colCheckoutID),
			goqu.I("c."+colUserID),
		).
		LeftOuterJoin(
			goqu.T(tableCheckouts).As("c"),
			goqu.On(goqu.I("b."+colBookID).Eq(goqu.I("c."+colBookID))),
		).
		Where(goqu.I("b." + colBookID).Eq(bookID.String()))

	return s.toSQL(stmt)
}

func (s *Store) buildInsertCheckoutQuery(checkoutID uuid.UUID, event library.CreateCheckout) (sqlQueryString, error) {
	stmt := s.builder().
		Insert(tableCheckouts).
		Cols(colCheckoutID, colBookID, colUserID, colCheckedOutAt).
		Vals(goqu.Vals{
			checkoutID.String(),
			event.BookID.String(),
			event.CheckedOutBy.String(),
			event.CheckedOutAt,
		})

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildInsertReturnedCheckoutQuery builds the INSERT .. SELECT that carries
// the original checkout's borrower and timestamp forward into history.
func (s *Store) buildInsertReturnedCheckoutQuery(event library.ReturnCheckout) (sqlQueryString, error) {
	selectStmt := s.builder().
		From(tableCheckouts).
		Select(
			goqu.C(colCheckoutID),
			goqu.C(colBookID),
			goqu.C(colUserID),
			goqu.C(colCheckedOutAt),
			goqu.V(event.ReturnedAt),
		).
		Where(goqu.C(colCheckoutID).Eq(event.CheckoutID.String()))

	stmt := s.builder().
		Insert(tableReturnedCheckouts).
		Cols(colCheckoutID, colBookID, colUserID, colCheckedOutAt, colReturnedAt).
		FromQuery(selectStmt)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *Store) buildDeleteCheckoutQuery(checkoutID uuid.UUID) (sqlQueryString, error) {
	stmt := s.builder().
		Delete(tableCheckouts).
		Where(goqu.C(colCheckoutID).Eq(checkoutID.String()))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (s *Store) buildUnreturnedQuery(byUser uuid.NullUUID) (sqlQueryString, error) {
	stmt := s.builder().
		From(goqu.T(tableCheckouts).As("c")).
		Select(
			goqu.I("c."+colCheckoutID),
			goqu.I("c."+colBookID),
			goqu.I("c."+colUserID),
			goqu.I("c."+colCheckedOutAt),
			goqu.I("b."+colTitle),
			goqu.I("b."+colAuthor),
			goqu.I("b."+colISBN),
		).
		InnerJoin(
			goqu.T(tableBooks).As("b"),
			goqu.On(goqu.I("c."+colBookID).Eq(goqu.I("b."+colBookID))),
		).
		Order(goqu.I("c." + colCheckedOutAt).Asc())

	if byUser.Valid {
		stmt = stmt.Where(goqu.I("c." + colUserID).Eq(byUser.UUID.String()))
	}

	return s.toSQL(stmt)
}

func (s *Store) buildActiveByBookQuery(bookID uuid.UUID) (sqlQueryString, error) {
	stmt := s.builder().
		From(goqu.T(tableCheckouts).As("c")).
		Select(
			goqu.I("c."+colCheckoutID),
			goqu.I("c."+colBookID),
			goqu.I("c."+colUserID),
			goqu.I("c."+colCheckedOutAt),
			goqu.I("b."+colTitle),
			goqu.I("b."+colAuthor),
			goqu.I("b."+colISBN),
		).
		InnerJoin(
			goqu.T(tableBooks).As("b"),
			goqu.On(goqu.I("c."+colBookID).Eq(goqu.I("b."+colBookID))),
		).
		Where(goqu.I("c." + colBookID).Eq(bookID.String()))

	return s.toSQL(stmt)
}

func (s *Store) buildReturnedHistoryQuery(bookID uuid.UUID) (sqlQueryString, error) {
	stmt := s.builder().
		From(goqu.T(tableReturnedCheckouts).As("rc")).
		Select(
			goqu.I("rc."+colCheckoutID),
			goqu.I("rc."+colBookID),
			goqu.I("rc."+colUserID),
			goqu.I("rc."+colCheckedOutAt),
			goqu.I("rc."+colReturnedAt),
			goqu.I("b."+colTitle),
			goqu.I("b."+colAuthor),
			goqu.I("b."+colISBN),
		).
		InnerJoin(
			goqu.T(tableBooks).As("b"),
			goqu.On(goqu.I("rc."+colBookID).Eq(goqu.I("b."+colBookID))),
		).
		Where(goqu.I("rc." + colBookID).Eq(bookID.String())).
		Order(goqu.I("rc." + colCheckedOutAt).Desc())

	return s.toSQL(stmt)
}

func (s *Store) toSQL(stmt *goqu.SelectDataset) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return "", errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	return sqlQuery, nil
}
