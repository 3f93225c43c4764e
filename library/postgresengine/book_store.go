package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/librarium-io/library-manager-go/library"
)

const (
	logMsgBookCreated = "book created"
	logMsgBookUpdated = "book updated"
	logMsgBookDeleted = "book deleted"
)

// CreateBook registers a new book owned by the creating user and returns the
// generated book id.
func (s *Store) CreateBook(ctx context.Context, event library.CreateBook) (uuid.UUID, error) {
	bookID := uuid.New()

	stmt := s.builder().
		Insert(tableBooks).
		Cols(colBookID, colTitle, colAuthor, colISBN, colDescription, colUserID).
		Vals(goqu.Vals{
			bookID.String(),
			event.Title,
			event.Author,
			event.ISBN,
			event.Description,
			event.OwnedBy.String(),
		})

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return uuid.Nil, errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, s.db, sqlQuery)
	if execErr != nil {
		return uuid.Nil, execErr
	}

	if rowsAffected < 1 {
		return uuid.Nil, errors.Join(library.ErrNoRowsAffected, errors.New("no book record has been created"))
	}

	s.logOperation(logMsgBookCreated, logAttrBookID, bookID.String())

	return bookID, nil
}

// UpdateBook replaces a book's descriptive fields. Only the owner may update
// a book; a non-owner request behaves like a missing book.
func (s *Store) UpdateBook(ctx context.Context, event library.UpdateBook) error {
	stmt := s.builder().
		Update(tableBooks).
		Set(goqu.Record{
			colTitle:       event.Title,
			colAuthor:      event.Author,
			colISBN:        event.ISBN,
			colDescription: event.Description,
		}).
		Where(
			goqu.C(colBookID).Eq(event.BookID.String()),
			goqu.C(colUserID).Eq(event.RequestedBy.String()),
		)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, s.db, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected < 1 {
		return errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the book (%s) owned by the user (%s) does not exist", event.BookID, event.RequestedBy),
		)
	}

	s.logOperation(logMsgBookUpdated, logAttrBookID, event.BookID.String())

	return nil
}

// DeleteBook removes a book from the catalog. Only the owner may delete a
// book; a non-owner request behaves like a missing book.
func (s *Store) DeleteBook(ctx context.Context, event library.DeleteBook) error {
	stmt := s.builder().
		Delete(tableBooks).
		Where(
			goqu.C(colBookID).Eq(event.BookID.String()),
			goqu.C(colUserID).Eq(event.RequestedBy.String()),
		)

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, s.db, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected < 1 {
		return errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the book (%s) owned by the user (%s) does not exist", event.BookID, event.RequestedBy),
		)
	}

	s.logOperation(logMsgBookDeleted, logAttrBookID, event.BookID.String())

	return nil
}

// FindBookByID returns a single catalog entry with owner attribution.
//
// Errors: library.ErrEntityNotFound when the book does not exist.
func (s *Store) FindBookByID(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	sqlQuery, buildErr := s.toSQL(s.bookSelect().Where(goqu.I("b." + colBookID).Eq(bookID.String())))
	if buildErr != nil {
		return library.Book{}, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return library.Book{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return library.Book{}, errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the book (%s) does not exist", bookID),
		)
	}

	return s.scanBook(rows)
}

// ListBooks returns one page of the catalog ordered by registration time,
// newest first, along with the total number of books.
func (s *Store) ListBooks(ctx context.Context, limit, offset int64) (library.BookPage, error) {
	total, err := s.countBooks(ctx)
	if err != nil {
		return library.BookPage{}, err
	}

	stmt := s.bookSelect().
		Order(goqu.I("b." + colCreatedAt).Desc()).
		Limit(uint(limit)).
		Offset(uint(offset))

	sqlQuery, buildErr := s.toSQL(stmt)
	if buildErr != nil {
		return library.BookPage{}, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return library.BookPage{}, queryErr
	}
	defer s.closeRows(rows)

	page := library.BookPage{Total: total, Limit: limit, Offset: offset, Items: make([]library.Book, 0)}

	for rows.Next() {
		book, scanErr := s.scanBook(rows)
		if scanErr != nil {
			return library.BookPage{}, scanErr
		}

		page.Items = append(page.Items, book)
	}

	return page, nil
}

func (s *Store) countBooks(ctx context.Context) (int64, error) {
	sqlQuery, buildErr := s.toSQL(s.builder().From(tableBooks).Select(goqu.COUNT(goqu.Star())))
	if buildErr != nil {
		return 0, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return 0, queryErr
	}
	defer s.closeRows(rows)

	var total int64
	if rows.Next() {
		if scanErr := rows.Scan(&total); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return 0, errors.Join(library.ErrStorageFailed, scanErr)
		}
	}

	return total, nil
}

// bookSelect is the shared book projection: catalog fields plus the owner's
// display name.
func (s *Store) bookSelect() *goqu.SelectDataset {
	return s.builder().
		From(goqu.T(tableBooks).As("b")).
		Select(
			goqu.I("b."+colBookID),
			goqu.I("b."+colTitle),
			goqu.I("b."+colAuthor),
			goqu.I("b."+colISBN),
			goqu.I("b."+colDescription),
			goqu.I("b."+colUserID),
			goqu.I("u."+colName),
		).
		InnerJoin(
			goqu.T(tableUsers).As("u"),
			goqu.On(goqu.I("b."+colUserID).Eq(goqu.I("u."+colUserID))),
		)
}

func (s *Store) scanBook(rows interface{ Scan(dest ...any) error }) (library.Book, error) {
	var book library.Book

	scanErr := rows.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Description,
		&book.Owner.UserID,
		&book.Owner.Name,
	)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return library.Book{}, errors.Join(library.ErrStorageFailed, scanErr)
	}

	return book, nil
}
