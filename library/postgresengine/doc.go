// Package postgresengine provides the PostgreSQL implementation of the
// library repository contracts.
//
// The package implements the checkout state machine on top of serializable
// transactions, supporting multiple database adapters (pgx, sql.DB, sqlx)
// with atomic transitions and concurrency conflict detection.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Serializable checkout/return transitions with in-transaction re-reads
//   - Rows-affected verification distinguishing precondition failures from
//     invariant violations
//   - Serialization aborts (SQLSTATE 40001) mapped to the same conflict kind
//     as application-level precondition failures
//   - Configurable logging and metrics via dependency-free interfaces
//
// Usage examples:
//
//	// Basic usage
//	pool, _ := pgxpool.New(context.Background(), dsn)
//	store, _ := postgresengine.NewStoreFromPGXPool(pool)
//
//	// With structured logging (a *slog.Logger satisfies Logger directly)
//	store, _ := postgresengine.NewStoreFromPGXPool(
//		pool,
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	err := store.CreateCheckout(ctx, event)
//	checkouts, err := store.FindUnreturnedAll(ctx)
package postgresengine
