package library

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CheckoutRepository is the operation set of the checkout core, independent
// of storage technology. Implementations must guarantee that no two
// concurrent CreateCheckout calls for the same book both succeed and that
// ReturnCheckout is atomic with respect to crash and to concurrent readers.
type CheckoutRepository interface {
	CreateCheckout(ctx context.Context, event CreateCheckout) error
	ReturnCheckout(ctx context.Context, event ReturnCheckout) error
	FindUnreturnedAll(ctx context.Context) ([]Checkout, error)
	FindUnreturnedByUser(ctx context.Context, userID uuid.UUID) ([]Checkout, error)
	FindHistoryByBook(ctx context.Context, bookID uuid.UUID) ([]Checkout, error)
}

// BookRepository is the catalog contract.
type BookRepository interface {
	CreateBook(ctx context.Context, event CreateBook) (uuid.UUID, error)
	UpdateBook(ctx context.Context, event UpdateBook) error
	DeleteBook(ctx context.Context, event DeleteBook) error
	FindBookByID(ctx context.Context, bookID uuid.UUID) (Book, error)
	ListBooks(ctx context.Context, limit, offset int64) (BookPage, error)
}

// UserRepository is the account management contract.
type UserRepository interface {
	CreateUser(ctx context.Context, event CreateUser) (User, error)
	UpdateUserRole(ctx context.Context, event UpdateUserRole) error
	UpdateUserPassword(ctx context.Context, event UpdateUserPassword) error
	DeleteUser(ctx context.Context, event DeleteUser) error
	FindUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	FindAllUsers(ctx context.Context) ([]User, error)
}

// AuthRepository resolves credentials and opaque access tokens to user
// identities. The checkout core trusts whatever identity this contract
// returns and uses it as the borrower/returner id.
type AuthRepository interface {
	// VerifyUser checks email and password against the stored hash and
	// returns the matching user id, or ErrUnauthorized.
	VerifyUser(ctx context.Context, email, password string) (uuid.UUID, error)

	// CreateToken issues a fresh opaque access token for the user and stores
	// it with the configured expiry.
	CreateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ResolveUser maps an access token to the user id it was issued for.
	// An unknown or expired token yields ok == false with a nil error.
	ResolveUser(ctx context.Context, accessToken string) (userID uuid.UUID, ok bool, err error)

	// RevokeToken deletes an access token.
	RevokeToken(ctx context.Context, accessToken string) error
}

// TokenCache is the expiring key-value capability AuthRepository
// implementations store access tokens in.
type TokenCache interface {
	Set(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	Get(ctx context.Context, token string) (userID uuid.UUID, ok bool, err error)
	Delete(ctx context.Context, token string) error
}

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
