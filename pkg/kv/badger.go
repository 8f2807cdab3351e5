// Package kv - BadgerDB-backed implementation of Backend/Transaction.
//
// Badger has no native column families, so each family is a single-byte
// key prefix (the same technique the teacher codebase uses for its own
// node/edge/label keyspaces), and no native savepoints, so writes are
// buffered in an in-memory overlay that is only flushed onto Badger's
// own transaction at Commit time. Savepoints simply truncate the
// overlay's operation log and replay it.
package kv

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/dgraph-io/badger/v4"
)

// cfPrefixes maps each ColumnFamily to its single-byte key prefix, in
// the fixed order required by spec.md §6.
var cfPrefixes = [cfCount]byte{
	CFDefault: 0x00,
	CFNode:    0x01,
	CFEdge:    0x02,
	CFAdj:     0x03,
}

// Options configures a BadgerBackend.
//
// The defaults follow spec.md §4.1: a ~512MiB block cache and
// write-ahead logging disabled, since the reference configuration does
// not guarantee durability beyond what Badger's own value log provides.
type Options struct {
	// Dir is the directory Badger stores its files in. Ignored if
	// InMemory is true.
	Dir string
	// InMemory runs Badger entirely in RAM; useful for tests. Data is
	// lost when the backend is closed.
	InMemory bool
	// SyncWrites forces an fsync on every commit. Off by default,
	// matching spec.md's WAL-disabled reference configuration.
	SyncWrites bool
	// BlockCacheBytes sizes Badger's block cache. Zero uses the
	// spec.md default of 512MiB.
	BlockCacheBytes int64
	// Logger receives Badger's internal log output. A quiet logger is
	// installed if nil.
	Logger badger.Logger
}

func (o Options) withDefaults() Options {
	if o.BlockCacheBytes == 0 {
		o.BlockCacheBytes = 512 << 20
	}
	return o
}

// quietLogger discards everything; the default when no Logger is set.
type quietLogger struct{}

func (quietLogger) Errorf(string, ...interface{})   {}
func (quietLogger) Warningf(string, ...interface{}) {}
func (quietLogger) Infof(string, ...interface{})    {}
func (quietLogger) Debugf(string, ...interface{})   {}

// BadgerBackend is the reference Backend implementation, built on
// BadgerDB.
type BadgerBackend struct {
	db *badger.DB
}

// Open opens a BadgerBackend under the given options.
func Open(opts Options) (*BadgerBackend, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("opening badger backend: Dir is required unless InMemory is set: %w", ErrInvalidArgument)
	}
	if opts.BlockCacheBytes < 0 {
		return nil, fmt.Errorf("opening badger backend: BlockCacheBytes must not be negative: %w", ErrInvalidArgument)
	}

	opts = opts.withDefaults()

	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = bopts.WithInMemory(true)
	}
	bopts = bopts.
		WithSyncWrites(opts.SyncWrites).
		WithBlockCacheSize(opts.BlockCacheBytes)

	if opts.Logger != nil {
		bopts = bopts.WithLogger(opts.Logger)
	} else {
		bopts = bopts.WithLogger(quietLogger{})
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger backend: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// Begin opens a new optimistic transaction.
func (b *BadgerBackend) Begin(ctx context.Context) (Transaction, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return newBadgerTransaction(b.db), nil
}

// Close releases the underlying Badger database.
func (b *BadgerBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing badger backend: %w", err)
	}
	return nil
}

// RunValueLogGC runs one pass of Badger's value log garbage collection.
// Exposed for the admin CLI's "gc" command; not part of the core query
// path.
func (b *BadgerBackend) RunValueLogGC(discardRatio float64) error {
	err := b.db.RunValueLogGC(discardRatio)
	if err != nil && err != badger.ErrNoRewrite {
		return fmt.Errorf("running value log gc: %w", err)
	}
	return nil
}

// --- key encoding ---

func fullKey(cf ColumnFamily, key []byte) []byte {
	out := make([]byte, 0, 1+len(key))
	out = append(out, cfPrefixes[cf])
	out = append(out, key...)
	return out
}

// prefixBounds returns the [lo, hi) byte bounds for an unbounded scan of
// cf: lo is the bare prefix, hi is the prefix with its last byte
// incremented (there is exactly one prefix byte, so this never
// overflows past 0xFF + carry because prefixes are < 0xFF in practice;
// a 0xFF prefix scans to the end of the keyspace).
func prefixBounds(cf ColumnFamily) (lo, hi []byte) {
	p := cfPrefixes[cf]
	lo = []byte{p}
	if p == 0xFF {
		return lo, nil
	}
	return lo, []byte{p + 1}
}

// --- write overlay ---

type opKind int

const (
	opPut opKind = iota
	opDelete
	opDeleteRange
)

type overlayOp struct {
	kind  opKind
	cf    ColumnFamily
	key   []byte
	value []byte
	// keys holds the exact set of keys affected by a DeleteRange,
	// captured once at call time. Both Commit and RollbackToSavepoint
	// replay against this fixed list rather than re-deriving the range
	// (which would observe the tombstones the range delete itself
	// already placed in the overlay).
	keys [][]byte
}

type overlayEntry struct {
	value   []byte
	deleted bool
}

// --- transaction ---

type badgerTransaction struct {
	db      *badger.DB
	txn     *badger.Txn
	closed  bool
	log     []overlayOp
	overlay map[ColumnFamily]map[string]overlayEntry
}

func newBadgerTransaction(db *badger.DB) *badgerTransaction {
	return &badgerTransaction{
		db:      db,
		txn:     db.NewTransaction(true),
		overlay: make(map[ColumnFamily]map[string]overlayEntry),
	}
}

func (t *badgerTransaction) cfMap(cf ColumnFamily) map[string]overlayEntry {
	m := t.overlay[cf]
	if m == nil {
		m = make(map[string]overlayEntry)
		t.overlay[cf] = m
	}
	return m
}

// Get checks the write overlay first (read-your-own-writes), then falls
// back to Badger's snapshot. readForUpdate controls whether the
// fallback read registers for conflict detection: Badger only tracks
// conflicts for explicit Txn.Get calls, not for iterator reads, so a
// non-conflict read is served through a seek-only iterator instead.
func (t *badgerTransaction) Get(cf ColumnFamily, key []byte, readForUpdate bool) ([]byte, error) {
	if t.closed {
		return nil, ErrClosed
	}
	if entry, ok := t.cfMap(cf)[string(key)]; ok {
		if entry.deleted {
			return nil, ErrNotFound
		}
		return append([]byte(nil), entry.value...), nil
	}

	fk := fullKey(cf, key)
	if readForUpdate {
		item, err := t.txn.Get(fk)
		if err == badger.ErrKeyNotFound {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOError, err)
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("copying value log entry: %v: %w", err, ErrCorruption)
		}
		return val, nil
	}

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	it.Seek(fk)
	if !it.Valid() || !bytes.Equal(it.Item().Key(), fk) {
		return nil, ErrNotFound
	}
	val, err := it.Item().ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("copying value log entry: %v: %w", err, ErrCorruption)
	}
	return val, nil
}

func (t *badgerTransaction) Put(cf ColumnFamily, key, value []byte) error {
	if t.closed {
		return ErrClosed
	}
	keyCopy := append([]byte(nil), key...)
	valCopy := append([]byte(nil), value...)
	t.cfMap(cf)[string(keyCopy)] = overlayEntry{value: valCopy}
	t.log = append(t.log, overlayOp{kind: opPut, cf: cf, key: keyCopy, value: valCopy})
	return nil
}

func (t *badgerTransaction) Delete(cf ColumnFamily, key []byte) error {
	if t.closed {
		return ErrClosed
	}
	keyCopy := append([]byte(nil), key...)
	t.cfMap(cf)[string(keyCopy)] = overlayEntry{deleted: true}
	t.log = append(t.log, overlayOp{kind: opDelete, cf: cf, key: keyCopy})
	return nil
}

func (t *badgerTransaction) DeleteRange(cf ColumnFamily, lo, hi []byte) error {
	if t.closed {
		return ErrClosed
	}
	// Materialize the keys currently in range, then delete each.
	// DeleteRange has no native Badger equivalent, so every key in the
	// range is collected in memory first.
	it := t.Iterate(cf, lo, hi)
	var keys [][]byte
	for it.Valid() {
		keys = append(keys, append([]byte(nil), it.Item().Key...))
		it.Next()
	}
	it.Close()

	for _, k := range keys {
		t.cfMap(cf)[string(k)] = overlayEntry{deleted: true}
	}
	t.log = append(t.log, overlayOp{kind: opDeleteRange, cf: cf, keys: keys})
	return nil
}

func (t *badgerTransaction) Iterate(cf ColumnFamily, lo, hi []byte) Iterator {
	fullLo := fullKey(cf, lo)
	var fullHi []byte
	if hi != nil {
		fullHi = fullKey(cf, hi)
	} else {
		_, upper := prefixBounds(cf)
		fullHi = upper
	}

	base := t.txn.NewIterator(badger.DefaultIteratorOptions)
	base.Seek(fullLo)

	overlayKeys := t.sortedOverlayKeys(cf, lo, hi)

	it := &mergeIterator{
		cf:      cf,
		base:    base,
		fullHi:  fullHi,
		overlay: overlayKeys,
		entries: t.cfMap(cf),
	}
	it.advanceToValid()
	return it
}

func (t *badgerTransaction) sortedOverlayKeys(cf ColumnFamily, lo, hi []byte) []string {
	m := t.cfMap(cf)
	keys := make([]string, 0, len(m))
	for k := range m {
		if lo != nil && k < string(lo) {
			continue
		}
		if hi != nil && k >= string(hi) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *badgerTransaction) SetSavepoint() Savepoint {
	return Savepoint(len(t.log))
}

func (t *badgerTransaction) RollbackToSavepoint(sp Savepoint) {
	if int(sp) >= len(t.log) {
		return
	}
	t.log = t.log[:sp]
	t.overlay = make(map[ColumnFamily]map[string]overlayEntry)
	for _, op := range t.log {
		t.replay(op)
	}
}

func (t *badgerTransaction) replay(op overlayOp) {
	switch op.kind {
	case opPut:
		t.cfMap(op.cf)[string(op.key)] = overlayEntry{value: op.value}
	case opDelete:
		t.cfMap(op.cf)[string(op.key)] = overlayEntry{deleted: true}
	case opDeleteRange:
		for _, k := range op.keys {
			t.cfMap(op.cf)[string(k)] = overlayEntry{deleted: true}
		}
	}
}

func (t *badgerTransaction) Commit() error {
	if t.closed {
		return ErrClosed
	}
	for _, op := range t.log {
		switch op.kind {
		case opPut:
			if err := t.txn.Set(fullKey(op.cf, op.key), op.value); err != nil {
				t.txn.Discard()
				t.closed = true
				return fmt.Errorf("%w: %v", ErrIOError, err)
			}
		case opDelete:
			if err := t.txn.Delete(fullKey(op.cf, op.key)); err != nil {
				t.txn.Discard()
				t.closed = true
				return fmt.Errorf("%w: %v", ErrIOError, err)
			}
		case opDeleteRange:
			for _, k := range op.keys {
				if err := t.txn.Delete(fullKey(op.cf, k)); err != nil {
					t.txn.Discard()
					t.closed = true
					return fmt.Errorf("%w: %v", ErrIOError, err)
				}
			}
		}
	}

	err := t.txn.Commit()
	t.closed = true
	if err == badger.ErrConflict {
		return ErrBusy
	}
	if err == badger.ErrTxnTooBig {
		return ErrTryAgain
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIOError, err)
	}
	return nil
}

func (t *badgerTransaction) Rollback() error {
	if t.closed {
		return nil
	}
	t.txn.Discard()
	t.closed = true
	return nil
}

// --- merge iterator over overlay + base snapshot ---

type mergeIterator struct {
	cf      ColumnFamily
	base    *badger.Iterator
	fullHi  []byte
	overlay []string // sorted keys (unprefixed), filtered to range
	oi      int
	entries map[string]overlayEntry

	valid   bool
	current KeyValue
}

func (it *mergeIterator) baseValid() bool {
	return it.base.Valid() && bytes.Compare(it.base.Item().Key(), it.fullHi) < 0
}

// advanceToValid positions the iterator on the next logical entry,
// skipping overlay tombstones and preferring the overlay on ties (an
// overlay write shadows the base snapshot for the same key).
func (it *mergeIterator) advanceToValid() {
	for {
		baseHasMore := it.baseValid()
		overlayHasMore := it.oi < len(it.overlay)

		if !baseHasMore && !overlayHasMore {
			it.valid = false
			return
		}

		if overlayHasMore && (!baseHasMore || it.overlay[it.oi] <= string(it.base.Item().Key()[1:])) {
			key := it.overlay[it.oi]
			entry := it.entries[key]
			if baseHasMore && key == string(it.base.Item().Key()[1:]) {
				it.base.Next()
			}
			it.oi++
			if entry.deleted {
				continue
			}
			it.valid = true
			it.current = KeyValue{Key: []byte(key), Value: entry.value}
			return
		}

		// base wins
		item := it.base.Item()
		keyCopy := append([]byte(nil), item.Key()[1:]...)
		val, err := item.ValueCopy(nil)
		it.base.Next()
		if err != nil {
			log.Printf("kv: iterator value copy failed: %v", err)
			continue
		}
		it.valid = true
		it.current = KeyValue{Key: keyCopy, Value: val}
		return
	}
}

func (it *mergeIterator) Valid() bool   { return it.valid }
func (it *mergeIterator) Item() KeyValue { return it.current }
func (it *mergeIterator) Next()          { it.advanceToValid() }
func (it *mergeIterator) Close()         { it.base.Close() }
