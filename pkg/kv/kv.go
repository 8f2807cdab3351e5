// Package kv adapts an ordered key-value backend to the four-column-family
// model the storage layer is built on: point get, bounded range
// iteration, range delete, and optimistic transactions with snapshot
// reads and read-for-update conflict tracking.
//
// The reference backend is BadgerDB. Badger has no native notion of a
// column family, so each family is realized as a single-byte key prefix,
// the same technique the teacher codebase uses for its node/edge/label
// keyspaces.
package kv

import "context"

// ColumnFamily names one of the four independent keyspaces a graph
// database instance is organized into.
type ColumnFamily byte

// The four column families named in spec.md §4.1/§6, in their fixed
// storage order.
const (
	CFDefault ColumnFamily = iota
	CFNode
	CFEdge
	CFAdj
)

// cfCount is the number of column families; used to size prefix tables.
const cfCount = 4

// KeyValue is a single (key, value) pair yielded by an Iterator. Both
// slices are borrowed from the backend and must be copied by the caller
// before the next call to Next or Close.
type KeyValue struct {
	Key   []byte
	Value []byte
}

// Iterator yields key-value pairs over a bounded range in lexicographic
// byte order. An Iterator borrows from the Transaction that created it
// and must be closed before that transaction is committed or rolled
// back.
type Iterator interface {
	// Valid reports whether the iterator currently points at an entry.
	Valid() bool
	// Item returns the entry the iterator currently points at. Only
	// valid to call when Valid() is true. The returned slices are
	// borrowed and must be copied before the next call to Next.
	Item() KeyValue
	// Next advances the iterator by one entry.
	Next()
	// Close releases resources held by the iterator. Must be called
	// exactly once, typically via defer.
	Close()
}

// Backend is the adapter's entry point: it opens optimistic transactions
// against the underlying ordered key-value store.
type Backend interface {
	// Begin opens a new optimistic transaction with a fixed read
	// snapshot taken at call time.
	Begin(ctx context.Context) (Transaction, error)
	// Close releases all backend resources. No transaction may be
	// in use when Close is called.
	Close() error
}

// Transaction is a single optimistic transaction against the backend: a
// fixed snapshot for reads, buffered writes, and commit-time conflict
// detection against keys read for update.
//
// A Transaction is not safe for concurrent use from multiple goroutines.
type Transaction interface {
	// Get reads a single key. readForUpdate marks the read for
	// conflict detection: if another transaction commits a write to
	// this key before this transaction commits, Commit fails with
	// ErrBusy. Returns ErrNotFound if the key is absent.
	Get(cf ColumnFamily, key []byte, readForUpdate bool) ([]byte, error)
	// Put writes a key, buffered until Commit.
	Put(cf ColumnFamily, key, value []byte) error
	// Delete removes a key, buffered until Commit.
	Delete(cf ColumnFamily, key []byte) error
	// DeleteRange removes every key in [lo, hi), buffered until Commit.
	DeleteRange(cf ColumnFamily, lo, hi []byte) error
	// Iterate opens an ordered scan over [lo, hi) within cf. A nil lo
	// starts at the first key of cf; a nil hi runs to the last key of
	// cf. Iterate does not mark read keys for conflict detection.
	Iterate(cf ColumnFamily, lo, hi []byte) Iterator

	// SetSavepoint records the current set of buffered writes so a
	// later RollbackToSavepoint can undo everything written since.
	SetSavepoint() Savepoint
	// RollbackToSavepoint discards every write buffered since sp was
	// taken, without discarding writes from before it.
	RollbackToSavepoint(sp Savepoint)

	// Commit attempts to apply all buffered writes atomically. Fails
	// with ErrBusy if a conflicting transaction committed first, or
	// ErrTryAgain if the backend's conflict-tracking history has been
	// exhausted.
	Commit() error
	// Rollback discards all buffered writes. Safe to call after a
	// failed Commit; a no-op if the transaction is already closed.
	Rollback() error
}

// Savepoint is an opaque marker returned by Transaction.SetSavepoint.
type Savepoint int
