package redisengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarium-io/library-manager-go/library/redisengine"
)

func Test_TokenCache_SetAndGet(t *testing.T) {
	// setup
	ctx := context.Background()
	_, cache := setupTokenCache(t)

	// arrange
	userID := uuid.New()
	token := uuid.NewString()

	// act
	err := cache.Set(ctx, token, userID, time.Hour)

	// assert
	assert.NoError(t, err, "error storing the token")

	resolvedID, ok, err := cache.Get(ctx, token)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, userID, resolvedID)
}

func Test_TokenCache_Get_When_TokenIsUnknown(t *testing.T) {
	// setup
	ctx := context.Background()
	_, cache := setupTokenCache(t)

	// act
	resolvedID, ok, err := cache.Get(ctx, uuid.NewString())

	// assert
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, resolvedID)
}

func Test_TokenCache_Get_When_TokenHasExpired(t *testing.T) {
	// setup
	ctx := context.Background()
	server, cache := setupTokenCache(t)

	// arrange
	token := uuid.NewString()
	require.NoError(t, cache.Set(ctx, token, uuid.New(), time.Minute))

	// act - advance miniredis past the TTL
	server.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, token)

	// assert - an expired token is a miss, not an error
	assert.NoError(t, err)
	assert.False(t, ok)
}

func Test_TokenCache_Delete(t *testing.T) {
	// setup
	ctx := context.Background()
	_, cache := setupTokenCache(t)

	// arrange
	token := uuid.NewString()
	require.NoError(t, cache.Set(ctx, token, uuid.New(), time.Hour))

	// act
	err := cache.Delete(ctx, token)

	// assert
	assert.NoError(t, err, "error deleting the token")

	_, ok, err := cache.Get(ctx, token)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func Test_TokenCache_Delete_When_TokenIsUnknown(t *testing.T) {
	// setup
	ctx := context.Background()
	_, cache := setupTokenCache(t)

	// act
	err := cache.Delete(ctx, uuid.NewString())

	// assert
	assert.NoError(t, err, "deleting an unknown token must be a no-op")
}

func Test_NewTokenCache_When_ClientIsNil(t *testing.T) {
	// act
	cache, err := redisengine.NewTokenCache(nil)

	// assert
	assert.Nil(t, cache)
	assert.ErrorIs(t, err, redisengine.ErrNilRedisClient)
}

// Test setup helpers.
func setupTokenCache(t testing.TB) (*miniredis.Miniredis, *redisengine.TokenCache) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})

	cache, err := redisengine.NewTokenCache(client)
	require.NoError(t, err, "error creating token cache")

	return server, cache
}
