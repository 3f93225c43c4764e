package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the
// library stores.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)

	// BeginSerializable starts a transaction at serializable isolation.
	// The checkout state machine depends on this level: anything weaker
	// permits two concurrent checkouts to both read "no active checkout"
	// before either writes.
	BeginSerializable(ctx context.Context) (DBTransaction, error)
}

// DBTransaction defines the interface for statements scoped to one
// transaction.
type DBTransaction interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
	Commit(ctx context.Context) error

	// Rollback aborts the transaction. Rolling back an already committed or
	// rolled back transaction returns nil, so callers can defer it
	// unconditionally.
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
