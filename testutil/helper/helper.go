package helper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/librarium-io/library-manager-go/schema"
)

// DefaultTestPassword is the plain-text password all fixture users get.
const DefaultTestPassword = "test-password"

// ApplySchema provisions the library schema; the DDL is idempotent.
func ApplySchema(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), schema.DDL)
	require.NoError(t, err, "error applying the database schema")
}

// CleanUpLibraryTables empties all library tables.
func CleanUpLibraryTables(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE returned_checkouts, checkouts, books, users CASCADE")
	require.NoError(t, err, "error cleaning up the library tables")
}

// GivenUniqueID returns a fresh uuid for test arrangement.
func GivenUniqueID(t testing.TB) uuid.UUID {
	t.Helper()

	return uuid.New()
}

// GivenUser inserts a user with a unique email and the default test password
// and returns its id.
func GivenUser(t testing.TB, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()

	return GivenUserWithCredentials(t, ctx, pool,
		fmt.Sprintf("user-%s@example.com", uuid.NewString()), DefaultTestPassword)
}

// GivenUserWithCredentials inserts a user with the given email and password
// and returns its id. The password is bcrypt-hashed at the minimum cost to
// keep the test suite fast.
func GivenUserWithCredentials(t testing.TB, ctx context.Context, pool *pgxpool.Pool, email, password string) uuid.UUID {
	t.Helper()

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err, "error hashing the fixture password")

	userID := uuid.New()

	_, err = pool.Exec(ctx,
		"INSERT INTO users (user_id, name, email, password_hash, role) VALUES ($1, $2, $3, $4, 'User')",
		userID, "Test User", email, string(passwordHash))
	require.NoError(t, err, "error inserting the fixture user")

	return userID
}

// GivenBook inserts a book owned by the given user and returns its id.
func GivenBook(t testing.TB, ctx context.Context, pool *pgxpool.Pool, ownedBy uuid.UUID) uuid.UUID {
	t.Helper()

	bookID := uuid.New()

	_, err := pool.Exec(ctx,
		"INSERT INTO books (book_id, title, author, isbn, description, user_id) VALUES ($1, $2, $3, $4, $5, $6)",
		bookID, "Test Title", "Test Author", "978-0000000000", "Test Description", ownedBy)
	require.NoError(t, err, "error inserting the fixture book")

	return bookID
}

// GivenCheckout inserts an active checkout row and returns its id.
func GivenCheckout(t testing.TB, ctx context.Context, pool *pgxpool.Pool, bookID, userID uuid.UUID, at time.Time) uuid.UUID {
	t.Helper()

	checkoutID := uuid.New()

	_, err := pool.Exec(ctx,
		"INSERT INTO checkouts (checkout_id, book_id, user_id, checked_out_at) VALUES ($1, $2, $3, $4)",
		checkoutID, bookID, userID, at)
	require.NoError(t, err, "error inserting the fixture checkout")

	return checkoutID
}

// ActiveCheckoutCount returns the number of active checkout rows for the book.
func ActiveCheckoutCount(t testing.TB, ctx context.Context, pool *pgxpool.Pool, bookID uuid.UUID) int {
	t.Helper()

	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM checkouts WHERE book_id = $1", bookID).Scan(&count)
	require.NoError(t, err, "error counting active checkouts")

	return count
}

// ReturnedCheckoutCount returns the number of history rows for the book.
func ReturnedCheckoutCount(t testing.TB, ctx context.Context, pool *pgxpool.Pool, bookID uuid.UUID) int {
	t.Helper()

	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM returned_checkouts WHERE book_id = $1", bookID).Scan(&count)
	require.NoError(t, err, "error counting returned checkouts")

	return count
}
