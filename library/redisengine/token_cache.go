package redisengine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/librarium-io/library-manager-go/library"
)

const tokenKeyPrefix = "access_token:"

// ErrNilRedisClient is returned when a nil client is supplied to
// NewTokenCache.
var ErrNilRedisClient = errors.New("redis client must not be nil")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sessionRecord is the cached value for one access token.
type sessionRecord struct {
	UserID   uuid.UUID `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// TokenCache implements library.TokenCache on a Redis client.
type TokenCache struct {
	client *redis.Client
}

// NewTokenCache creates a TokenCache using the given Redis client.
func NewTokenCache(client *redis.Client) (*TokenCache, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	return &TokenCache{client: client}, nil
}

// Set stores an access token with the given TTL.
func (c *TokenCache) Set(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	payload, marshalErr := json.Marshal(sessionRecord{UserID: userID, IssuedAt: time.Now().UTC()})
	if marshalErr != nil {
		return errors.Join(library.ErrStorageFailed, marshalErr)
	}

	if err := c.client.Set(ctx, tokenKeyPrefix+token, payload, ttl).Err(); err != nil {
		return errors.Join(library.ErrStorageFailed, err)
	}

	return nil
}

// Get resolves an access token to the user id it was issued for. An unknown
// or expired token yields ok == false with a nil error.
func (c *TokenCache) Get(ctx context.Context, token string) (uuid.UUID, bool, error) {
	payload, err := c.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}

	if err != nil {
		return uuid.Nil, false, errors.Join(library.ErrStorageFailed, err)
	}

	var record sessionRecord
	if unmarshalErr := json.Unmarshal(payload, &record); unmarshalErr != nil {
		return uuid.Nil, false, errors.Join(library.ErrStorageFailed, unmarshalErr)
	}

	return record.UserID, true, nil
}

// Delete removes an access token. Deleting an unknown token is a no-op.
func (c *TokenCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return errors.Join(library.ErrStorageFailed, err)
	}

	return nil
}
