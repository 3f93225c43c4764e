// Package redisengine provides the Redis implementation of the
// library.TokenCache contract.
//
// Access tokens are stored as keys with a per-entry TTL; Redis expiry is the
// only expiry mechanism, nothing is cached in process memory. The cached
// value is a small JSON session record so future fields can be added without
// a key-format migration.
package redisengine
