// Package config provides database configurations for tests.
//
// The DSN comes from the DATABASE_URL environment variable with a local
// default, so the test suite runs against a disposable local Postgres
// without further setup.
package config
