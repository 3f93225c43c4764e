package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/librarium-io/library-manager-go/library"
)

// Configuration errors.
var (
	// ErrNilStore is returned when a nil Store is supplied to NewAuthStore.
	ErrNilStore = errors.New("store must not be nil")

	// ErrNilTokenCache is returned when a nil token cache is supplied to
	// NewAuthStore.
	ErrNilTokenCache = errors.New("token cache must not be nil")

	// ErrInvalidTokenTTL is returned when a non-positive token TTL is
	// supplied to NewAuthStore.
	ErrInvalidTokenTTL = errors.New("token ttl must be positive")
)

// AuthStore implements library.AuthRepository: credentials are verified
// against the users table, issued tokens live in an expiring TokenCache.
type AuthStore struct {
	store *Store
	cache library.TokenCache
	ttl   time.Duration
}

// NewAuthStore creates an AuthStore on top of an existing Store and a token
// cache. Tokens expire after ttl.
func NewAuthStore(store *Store, cache library.TokenCache, ttl time.Duration) (*AuthStore, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	if cache == nil {
		return nil, ErrNilTokenCache
	}

	if ttl <= 0 {
		return nil, ErrInvalidTokenTTL
	}

	return &AuthStore{store: store, cache: cache, ttl: ttl}, nil
}

// VerifyUser checks email and password against the stored bcrypt hash and
// returns the matching user id.
//
// Errors: library.ErrUnauthorized for an unknown email or a wrong password;
// the two cases are indistinguishable to the caller.
func (a *AuthStore) VerifyUser(ctx context.Context, email, password string) (uuid.UUID, error) {
	sqlQuery, buildErr := a.store.toSQL(
		a.store.builder().
			From(tableUsers).
			Select(goqu.C(colUserID), goqu.C(colPasswordHash)).
			Where(goqu.C(colEmail).Eq(email)),
	)
	if buildErr != nil {
		return uuid.Nil, buildErr
	}

	rows, queryErr := a.store.executeQuery(ctx, a.store.db, sqlQuery)
	if queryErr != nil {
		return uuid.Nil, queryErr
	}
	defer a.store.closeRows(rows)

	if !rows.Next() {
		return uuid.Nil, errors.Join(library.ErrUnauthorized, errors.New("unknown email"))
	}

	var userID uuid.UUID
	var passwordHash string

	if scanErr := rows.Scan(&userID, &passwordHash); scanErr != nil {
		a.store.logError(logMsgScanRowFailed, scanErr)
		return uuid.Nil, errors.Join(library.ErrStorageFailed, scanErr)
	}

	if compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); compareErr != nil {
		return uuid.Nil, errors.Join(library.ErrUnauthorized, compareErr)
	}

	return userID, nil
}

// CreateToken issues a fresh opaque access token for the user and stores it
// with the configured expiry.
func (a *AuthStore) CreateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()

	if err := a.cache.Set(ctx, token, userID, a.ttl); err != nil {
		return "", err
	}

	return token, nil
}

// ResolveUser maps an access token to the user id it was issued for. An
// unknown or expired token yields ok == false with a nil error.
func (a *AuthStore) ResolveUser(ctx context.Context, accessToken string) (uuid.UUID, bool, error) {
	return a.cache.Get(ctx, accessToken)
}

// RevokeToken deletes an access token from the cache.
func (a *AuthStore) RevokeToken(ctx context.Context, accessToken string) error {
	return a.cache.Delete(ctx, accessToken)
}
