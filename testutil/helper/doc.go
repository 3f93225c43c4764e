// Package helper provides schema provisioning, cleanup, and fixture helpers
// for the store test suites. Fixtures write directly through a pgx pool so
// tests can arrange state independently of the code under test.
package helper
