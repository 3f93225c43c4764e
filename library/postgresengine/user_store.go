package postgresengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/librarium-io/library-manager-go/library"
)

const (
	logMsgUserCreated = "user created"
	logMsgUserUpdated = "user updated"
	logMsgUserDeleted = "user deleted"

	logAttrUserID = "user_id"
)

// CreateUser creates a new account with a bcrypt-hashed password and the
// default User role.
func (s *Store) CreateUser(ctx context.Context, event library.CreateUser) (library.User, error) {
	passwordHash, hashErr := bcrypt.GenerateFromPassword([]byte(event.Password), bcrypt.DefaultCost)
	if hashErr != nil {
		return library.User{}, errors.Join(library.ErrStorageFailed, hashErr)
	}

	userID := uuid.New()
	role := library.RoleUser

	stmt := s.builder().
		Insert(tableUsers).
		Cols(colUserID, colName, colEmail, colPasswordHash, colRole).
		Vals(goqu.Vals{
			userID.String(),
			event.Name,
			event.Email,
			string(passwordHash),
			role.String(),
		})

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return library.User{}, errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, s.db, sqlQuery)
	if execErr != nil {
		return library.User{}, execErr
	}

	if rowsAffected < 1 {
		return library.User{}, errors.Join(library.ErrNoRowsAffected, errors.New("no user record has been created"))
	}

	s.logOperation(logMsgUserCreated, logAttrUserID, userID.String())

	return library.User{ID: userID, Name: event.Name, Email: event.Email, Role: role}, nil
}

// UpdateUserRole changes the role of an existing account.
//
// Errors: library.ErrEntityNotFound when the user does not exist.
func (s *Store) UpdateUserRole(ctx context.Context, event library.UpdateUserRole) error {
	stmt := s.builder().
		Update(tableUsers).
		Set(goqu.Record{colRole: event.Role.String()}).
		Where(goqu.C(colUserID).Eq(event.UserID.String()))

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
			fmt.Errorf("the user (%s) does not exist", event.UserID),
		)
	}

	s.logOperation(logMsgUserUpdated, logAttrUserID, event.UserID.String())

	return nil
}

// UpdateUserPassword verifies the current password inside a transaction and
// replaces the stored hash.
//
// Errors: library.ErrEntityNotFound when the user does not exist,
// library.ErrUnauthorized when the current password does not match.
func (s *Store) UpdateUserPassword(ctx context.Context, event library.UpdateUserPassword) error {
	tx, err := s.beginSerializable(ctx)
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx)

	currentHash, readErr := s.readPasswordHash(ctx, tx, event.UserID)
	if readErr != nil {
		return readErr
	}

	if compareErr := bcrypt.CompareHashAndPassword([]byte(currentHash), []byte(event.CurrentPassword)); compareErr != nil {
		return errors.Join(library.ErrUnauthorized, compareErr)
	}

	newHash, hashErr := bcrypt.GenerateFromPassword([]byte(event.NewPassword), bcrypt.DefaultCost)
	if hashErr != nil {
		return errors.Join(library.ErrStorageFailed, hashErr)
	}

	stmt := s.builder().
		Update(tableUsers).
		Set(goqu.Record{colPasswordHash: string(newHash)}).
		Where(goqu.C(colUserID).Eq(event.UserID.String()))

	sqlQuery, _, toSQLErr := stmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(library.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, tx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected < 1 {
		return errors.Join(library.ErrNoRowsAffected, errors.New("no password has been updated"))
	}

	if commitErr := s.commit(ctx, tx); commitErr != nil {
		return commitErr
	}

	s.logOperation(logMsgUserUpdated, logAttrUserID, event.UserID.String())

	return nil
}

// DeleteUser removes an account.
//
// Errors: library.ErrEntityNotFound when the user does not exist.
func (s *Store) DeleteUser(ctx context.Context, event library.DeleteUser) error {
	stmt := s.builder().
		Delete(tableUsers).
		Where(goqu.C(colUserID).Eq(event.UserID.String()))

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
			fmt.Errorf("the user (%s) does not exist", event.UserID),
		)
	}

	s.logOperation(logMsgUserDeleted, logAttrUserID, event.UserID.String())

	return nil
}

// FindUserByID returns a single account.
//
// Errors: library.ErrEntityNotFound when the user does not exist.
func (s *Store) FindUserByID(ctx context.Context, userID uuid.UUID) (library.User, error) {
	sqlQuery, buildErr := s.toSQL(s.userSelect().Where(goqu.C(colUserID).Eq(userID.String())))
	if buildErr != nil {
		return library.User{}, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return library.User{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return library.User{}, errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the user (%s) does not exist", userID),
		)
	}

	return s.scanUser(rows)
}

// FindAllUsers returns all accounts ordered by creation time.
func (s *Store) FindAllUsers(ctx context.Context) ([]library.User, error) {
	sqlQuery, buildErr := s.toSQL(s.userSelect().Order(goqu.C(colCreatedAt).Asc()))
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.executeQuery(ctx, s.db, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	users := make([]library.User, 0)

	for rows.Next() {
		user, scanErr := s.scanUser(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		users = append(users, user)
	}

	return users, nil
}

func (s *Store) readPasswordHash(ctx context.Context, on queryExecutor, userID uuid.UUID) (string, error) {
	sqlQuery, buildErr := s.toSQL(
		s.builder().
			From(tableUsers).
			Select(goqu.C(colPasswordHash)).
			Where(goqu.C(colUserID).Eq(userID.String())),
	)
	if buildErr != nil {
		return "", buildErr
	}

	rows, queryErr := s.executeQuery(ctx, on, sqlQuery)
	if queryErr != nil {
		return "", queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return "", errors.Join(
			library.ErrEntityNotFound,
			fmt.Errorf("the user (%s) does not exist", userID),
		)
	}

	var hash string
	if scanErr := rows.Scan(&hash); scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return "", errors.Join(library.ErrStorageFailed, scanErr)
	}

	return hash, nil
}

func (s *Store) userSelect() *goqu.SelectDataset {
	return s.builder().
		From(tableUsers).
		Select(goqu.C(colUserID), goqu.C(colName), goqu.C(colEmail), goqu.C(colRole))
}

func (s *Store) scanUser(rows interface{ Scan(dest ...any) error }) (library.User, error) {
	var user library.User
	var roleName string

	if scanErr := rows.Scan(&user.ID, &user.Name, &user.Email, &roleName); scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return library.User{}, errors.Join(library.ErrStorageFailed, scanErr)
	}

	role, roleErr := library.ParseRole(roleName)
	if roleErr != nil {
		return library.User{}, errors.Join(library.ErrStorageFailed, roleErr)
	}

	user.Role = role

	return user, nil
}
