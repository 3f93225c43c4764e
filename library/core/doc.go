// Package core contains the pure decision logic of the checkout state
// machine.
//
// The decide functions take a freshly read state snapshot and a requested
// transition and return nil or one of the library error kinds. They have no
// side effects, which keeps the precondition rules unit testable without a
// database. Storage engines are responsible for reading the snapshot inside
// a serializable transaction and for performing the writes a nil decision
// permits.
package core
