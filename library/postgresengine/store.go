package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/librarium-io/library-manager-go/library"
	"github.com/librarium-io/library-manager-go/library/postgresengine/internal/adapters"
)

// Configuration errors.
var (
	// ErrNilDatabaseConnection is returned when a nil database handle is
	// supplied to a constructor.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
)

const (
	tableBooks             = "books"
	tableUsers             = "users"
	tableCheckouts         = "checkouts"
	tableReturnedCheckouts = "returned_checkouts"

	colBookID       = "book_id"
	colUserID       = "user_id"
	colCheckoutID   = "checkout_id"
	colCheckedOutAt = "checked_out_at"
	colReturnedAt   = "returned_at"
	colTitle        = "title"
	colAuthor       = "author"
	colISBN         = "isbn"
	colDescription  = "description"
	colName         = "name"
	colEmail        = "email"
	colPasswordHash = "password_hash"
	colRole         = "role"
	colCreatedAt    = "created_at"
	colUpdatedAt    = "updated_at"

	dialectPostgres = "postgres"

	sqlStateSerializationFailure = "40001"
)

type sqlQueryString = string

// Store is the PostgreSQL implementation of the library repository
// contracts. It holds no checkout state in process memory: every transition
// re-reads authoritative state inside its own serializable transaction.
type Store struct {
	db               adapters.DBAdapter
	logger           Logger
	metricsCollector MetricsCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional
// configuration.
func NewStoreFromPGXPool(pool *pgxpool.Pool, options ...Option) (*Store, error) {
	if pool == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(pool), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional
// configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional
// configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{db: db}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ping verifies that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	rows, err := s.db.Query(ctx, "SELECT 1")
	if err != nil {
		return s.storageError(err)
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return errors.Join(library.ErrStorageFailed, errors.New("health check query returned no row"))
	}

	var one int
	if scanErr := rows.Scan(&one); scanErr != nil {
		return s.storageError(scanErr)
	}

	return nil
}

// builder returns the goqu dialect builder all queries start from.
func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// beginSerializable starts a serializable transaction, mapping failures to
// the transaction error kind.
func (s *Store) beginSerializable(ctx context.Context) (adapters.DBTransaction, error) {
	tx, err := s.db.BeginSerializable(ctx)
	if err != nil {
		s.logError(logMsgBeginTxFailed, err)
		s.recordErrorMetric(metricTransactionErrors)

		return nil, errors.Join(library.ErrTransactionFailed, err)
	}

	return tx, nil
}

// rollback aborts a transaction and logs a warning when the abort itself
// fails. Safe to defer after a successful commit.
func (s *Store) rollback(ctx context.Context, tx adapters.DBTransaction) {
	if err := tx.Rollback(ctx); err != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgRollbackFailed, logAttrError, err.Error())
		}
	}
}

// commit commits a transaction. A serialization abort at commit time is
// mapped to the same conflict kind as an application-level precondition
// failure, everything else to the transaction error kind.
func (s *Store) commit(ctx context.Context, tx adapters.DBTransaction) error {
	if err := tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			s.logConflict(logMsgSerializationAbort, err)
			s.recordErrorMetric(metricCheckoutConflicts)

			return errors.Join(library.ErrCheckoutConflict, err)
		}

		s.logError(logMsgCommitFailed, err)
		s.recordErrorMetric(metricTransactionErrors)

		return errors.Join(library.ErrTransactionFailed, err)
	}

	return nil
}

// queryExecutor is the subset of statement execution shared by the pool and
// by transactions.
type queryExecutor interface {
	Query(ctx context.Context, query string) (adapters.DBRows, error)
	Exec(ctx context.Context, query string) (adapters.DBResult, error)
}

// executeQuery runs a select statement and returns its rows with timing.
func (s *Store) executeQuery(ctx context.Context, on queryExecutor, sqlQuery sqlQueryString) (adapters.DBRows, error) {
	start := time.Now()
	rows, err := on.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, time.Since(start))

	if err != nil {
		s.logError(logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		s.recordErrorMetric(metricStorageErrors)

		return nil, s.storageError(err)
	}

	return rows, nil
}

// executeStatement runs a mutating statement and returns the number of rows
// it affected.
func (s *Store) executeStatement(ctx context.Context, on queryExecutor, sqlQuery sqlQueryString) (int64, error) {
	start := time.Now()
	result, err := on.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, time.Since(start))

	if err != nil {
		s.logError(logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		s.recordErrorMetric(metricStorageErrors)

		return 0, s.storageError(err)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, errors.Join(library.ErrStorageFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// storageError attaches the matching error kind to a driver error.
// Serialization aborts can surface on any statement inside a serializable
// transaction, not only at commit, so they are mapped here as well.
func (s *Store) storageError(err error) error {
	if isSerializationFailure(err) {
		s.recordErrorMetric(metricCheckoutConflicts)

		return errors.Join(library.ErrCheckoutConflict, err)
	}

	return errors.Join(library.ErrStorageFailed, err)
}

// isSerializationFailure reports whether err is a Postgres SQLSTATE 40001
// (serialization_failure) from either driver family.
func isSerializationFailure(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == sqlStateSerializationFailure
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == sqlStateSerializationFailure
	}

	return false
}
