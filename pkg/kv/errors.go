package kv

import "errors"

// Stable error identifiers crossing the storage boundary, per spec.md §6.
var (
	// ErrNotFound is returned by Get when the key does not exist in
	// the transaction's snapshot (or its own prior writes).
	ErrNotFound = errors.New("kv: not found")
	// ErrBusy is returned by Commit when another transaction committed
	// a conflicting write to a key this transaction read-for-update or
	// wrote.
	ErrBusy = errors.New("kv: busy, retry the transaction")
	// ErrTryAgain is returned by Commit when the backend's
	// conflict-tracking history has been exhausted and it cannot
	// determine whether a conflict occurred.
	ErrTryAgain = errors.New("kv: try again")
	// ErrCorruption signals that stored bytes could not be decoded.
	ErrCorruption = errors.New("kv: corruption")
	// ErrIOError wraps a backend I/O failure.
	ErrIOError = errors.New("kv: io error")
	// ErrClosed is returned by operations on a backend or transaction
	// that has already been closed.
	ErrClosed = errors.New("kv: closed")
	// ErrInvalidArgument is returned when the caller's own input is
	// malformed, independent of any stored state: an Options value Open
	// cannot act on.
	ErrInvalidArgument = errors.New("kv: invalid argument")
)
