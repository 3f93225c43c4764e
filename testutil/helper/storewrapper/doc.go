// Package storewrapper selects the database adapter for integration tests
// based on the ADAPTER_TYPE environment variable and hands out a ready
// store together with a pgx pool for test arrangement and assertions.
package storewrapper
