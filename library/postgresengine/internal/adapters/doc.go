// Package adapters provides database abstraction implementations for the
// postgres engine.
//
// It wraps the three supported drivers (pgx pool, database/sql, sqlx) behind
// the DBAdapter interface so the stores never talk to driver-specific row
// formats directly. The adapters also hand out serializable transactions and
// normalize rollback-after-commit so stores can roll back unconditionally in
// a defer.
package adapters
