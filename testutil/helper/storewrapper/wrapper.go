package storewrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/librarium-io/library-manager-go/library/postgresengine"
	"github.com/librarium-io/library-manager-go/testutil/config"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Wrapper abstracts over the different database adapter types.
// GetPool always returns a pgx pool, independent of the adapter the store
// runs on, so fixtures and assertions have a uniform handle.
type Wrapper interface {
	GetStore() *postgresengine.Store
	GetPool() *pgxpool.Pool
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *postgresengine.Store
}

func (w *PGXPoolWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *PGXPoolWrapper) GetPool() *pgxpool.Pool {
	return w.pool
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db    *sql.DB
	pool  *pgxpool.Pool
	store *postgresengine.Store
}

func (w *SQLDBWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *SQLDBWrapper) GetPool() *pgxpool.Pool {
	return w.pool
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
	w.pool.Close()
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db    *sqlx.DB
	pool  *pgxpool.Pool
	store *postgresengine.Store
}

func (w *SQLXWrapper) GetStore() *postgresengine.Store {
	return w.store
}

func (w *SQLXWrapper) GetPool() *pgxpool.Pool {
	return w.pool
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
	w.pool.Close()
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the environment variable
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolTestConfig())
	assert.NoError(t, err, "error connecting to DB pool in test setup")

	switch engineTypeFromEnv {
	case typePGXPool, "":
		store, err := postgresengine.NewStoreFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating store")

		return &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBTestConfig()

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating store")

		return &SQLDBWrapper{db: db, pool: connPool, store: store}

	case typeSQLXDB:
		db := config.PostgresSQLXTestConfig()

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		assert.NoError(t, err, "error creating store")

		return &SQLXWrapper{db: db, pool: connPool, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}
