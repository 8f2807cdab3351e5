package graph

import (
	"fmt"
	"sync"

	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/fenwickgraph/graphdb/pkg/kv"
)

// Transaction is a single optimistic transaction against the graph
// storage layer: node and edge records plus the adjacency index that
// keeps them consistent. It wraps a kv.Transaction and is not safe for
// concurrent use from multiple goroutines.
type Transaction struct {
	mu  sync.Mutex
	txn kv.Transaction

	// buf is reused across Put calls to avoid a fresh allocation per
	// serialized record.
	buf []byte
}

func newTransaction(txn kv.Transaction) *Transaction {
	return &Transaction{txn: txn}
}

// GetNode reads a node by id. A missing node is reported as (nil, nil),
// not an error.
func (tx *Transaction) GetNode(id ids.ElementId) (*Node, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	b, err := tx.txn.Get(kv.CFNode, nodeKey(id), false)
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading node %s: %w", id, err)
	}
	return decodeNode(id, b)
}

// PutNode writes a node's labels and properties. It does not touch the
// adjacency index.
func (tx *Transaction) PutNode(n *Node) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	tx.buf = encodeNode(tx.buf[:0], n)
	if err := tx.txn.Put(kv.CFNode, nodeKey(n.ID), tx.buf); err != nil {
		return fmt.Errorf("writing node %s: %w", n.ID, err)
	}
	return nil
}

// GetEdge reads an edge by id. A missing edge is reported as (nil, nil),
// not an error.
func (tx *Transaction) GetEdge(id ids.ElementId) (*Edge, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.getEdgeLocked(id, false)
}

func (tx *Transaction) getEdgeLocked(id ids.ElementId, readForUpdate bool) (*Edge, error) {
	b, err := tx.txn.Get(kv.CFEdge, edgeKey(id), readForUpdate)
	if err == kv.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading edge %s: %w", id, err)
	}
	return decodeEdge(id, b)
}

// PutEdge writes an edge record, validating against any existing record
// with the same id and, for a new edge, writing both adjacency entries.
//
// Both endpoint nodes are read for update first: this is what makes a
// concurrent node delete and a concurrent edge insert onto that node
// conflict correctly at commit time, in either order.
func (tx *Transaction) PutEdge(e *Edge) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if _, err := tx.txn.Get(kv.CFNode, nodeKey(e.Src), true); err != nil {
		if err == kv.ErrNotFound {
			return fmt.Errorf("edge %s source node %s: %w", e.ID, e.Src, ErrNotFound)
		}
		return fmt.Errorf("reading edge %s source node: %w", e.ID, err)
	}
	if _, err := tx.txn.Get(kv.CFNode, nodeKey(e.Dst), true); err != nil {
		if err == kv.ErrNotFound {
			return fmt.Errorf("edge %s destination node %s: %w", e.ID, e.Dst, ErrNotFound)
		}
		return fmt.Errorf("reading edge %s destination node: %w", e.ID, err)
	}

	existing, err := tx.getEdgeLocked(e.ID, false)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Src != e.Src || existing.Dst != e.Dst || existing.Directed != e.Directed {
			return fmt.Errorf("edge %s: %w", e.ID, ErrEdgeDataMismatch)
		}
	}

	tx.buf = encodeEdge(tx.buf[:0], e)
	if err := tx.txn.Put(kv.CFEdge, edgeKey(e.ID), tx.buf); err != nil {
		return fmt.Errorf("writing edge %s: %w", e.ID, err)
	}

	if existing == nil {
		ioSrc := Simple
		if e.Directed {
			ioSrc = Out
		}
		ioDst := ioSrc.Inverse()

		if err := tx.txn.Put(kv.CFAdj, adjKey(e.Src, ioSrc, e.ID), e.Dst.Bytes()); err != nil {
			return fmt.Errorf("writing adjacency entry for edge %s: %w", e.ID, err)
		}
		if err := tx.txn.Put(kv.CFAdj, adjKey(e.Dst, ioDst, e.ID), e.Src.Bytes()); err != nil {
			return fmt.Errorf("writing reverse adjacency entry for edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// DeleteEdge removes an edge and both of its adjacency entries. Returns
// ErrNotFound if the edge does not exist.
func (tx *Transaction) DeleteEdge(id ids.ElementId) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	e, err := tx.getEdgeLocked(id, true)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("edge %s: %w", id, ErrNotFound)
	}

	if err := tx.txn.Delete(kv.CFEdge, edgeKey(id)); err != nil {
		return fmt.Errorf("deleting edge %s: %w", id, err)
	}

	ioSrc := Simple
	if e.Directed {
		ioSrc = Out
	}
	ioDst := ioSrc.Inverse()

	if err := tx.txn.Delete(kv.CFAdj, adjKey(e.Src, ioSrc, id)); err != nil {
		return fmt.Errorf("deleting adjacency entry for edge %s: %w", id, err)
	}
	if err := tx.txn.Delete(kv.CFAdj, adjKey(e.Dst, ioDst, id)); err != nil {
		return fmt.Errorf("deleting reverse adjacency entry for edge %s: %w", id, err)
	}
	return nil
}

// DeleteNode removes a node and every adjacency entry incident to it,
// both sides. Cascading deletes of incident edges are the caller's
// responsibility: DeleteNode only removes the index, leaving dangling
// edge rows until they are explicitly deleted or overwritten. Returns
// ErrNotFound if the node does not exist.
func (tx *Transaction) DeleteNode(id ids.ElementId) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if _, err := tx.txn.Get(kv.CFNode, nodeKey(id), true); err != nil {
		if err == kv.ErrNotFound {
			return fmt.Errorf("node %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("reading node %s: %w", id, err)
	}

	if err := tx.txn.Delete(kv.CFNode, nodeKey(id)); err != nil {
		return fmt.Errorf("deleting node %s: %w", id, err)
	}

	lo, hi := adjFullBounds(id)
	it := tx.txn.Iterate(kv.CFAdj, lo, hi)
	var toDelete []AdjEntry
	for it.Valid() {
		item := it.Item()
		entry, derr := parseAdjKeyValue(item.Key, item.Value)
		if derr != nil {
			it.Close()
			return fmt.Errorf("decoding adjacency entry for node %s: %w", id, derr)
		}
		toDelete = append(toDelete, entry)
		it.Next()
	}
	it.Close()

	for _, entry := range toDelete {
		if err := tx.txn.Delete(kv.CFAdj, adjKey(entry.SrcNode, entry.InOut, entry.Edge)); err != nil {
			return fmt.Errorf("deleting adjacency entry for node %s: %w", id, err)
		}
		if err := tx.txn.Delete(kv.CFAdj, adjKey(entry.DstNode, entry.InOut.Inverse(), entry.Edge)); err != nil {
			return fmt.Errorf("deleting reverse adjacency entry for node %s: %w", id, err)
		}
	}
	return nil
}

// IterateAdj opens a non-conflicting prefix scan over node's adjacency
// entries whose InOut tag falls in [minIO, maxIO]. The returned iterator
// must be closed before the transaction commits or rolls back.
func (tx *Transaction) IterateAdj(node ids.ElementId, minIO, maxIO InOut) *AdjIterator {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	lo, hi := adjBounds(node, minIO, maxIO)
	return &AdjIterator{it: tx.txn.Iterate(kv.CFAdj, lo, hi)}
}

// Commit attempts to apply all buffered writes atomically, per the
// backend's conflict-detection rules.
func (tx *Transaction) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.txn.Commit()
}

// Rollback discards all buffered writes.
func (tx *Transaction) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.txn.Rollback()
}

// SetSavepoint records the current set of buffered writes.
func (tx *Transaction) SetSavepoint() kv.Savepoint {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.txn.SetSavepoint()
}

// RollbackToSavepoint discards every write buffered since sp was taken.
func (tx *Transaction) RollbackToSavepoint(sp kv.Savepoint) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.txn.RollbackToSavepoint(sp)
}

func parseAdjKeyValue(key, val []byte) (AdjEntry, error) {
	if len(key) != adjKeyLen {
		return AdjEntry{}, fmt.Errorf("adjacency key has length %d, want %d: %w", len(key), adjKeyLen, ErrCorruptedIndex)
	}
	src, err := ids.FromBytes(key[:ids.Size])
	if err != nil {
		return AdjEntry{}, fmt.Errorf("decoding adjacency src: %w: %w", err, ErrCorruptedIndex)
	}
	io := InOut(key[ids.Size])
	edge, err := ids.FromBytes(key[ids.Size+1:])
	if err != nil {
		return AdjEntry{}, fmt.Errorf("decoding adjacency edge id: %w: %w", err, ErrCorruptedIndex)
	}
	dst, err := decodeAdjValue(val)
	if err != nil {
		return AdjEntry{}, fmt.Errorf("decoding adjacency dst: %w: %w", err, ErrCorruptedIndex)
	}
	return AdjEntry{SrcNode: src, InOut: io, Edge: edge, DstNode: dst}, nil
}

// AdjIterator yields AdjEntry values over a bounded adjacency range.
type AdjIterator struct {
	it kv.Iterator
}

// Valid reports whether the iterator currently points at an entry.
func (ai *AdjIterator) Valid() bool { return ai.it.Valid() }

// Item decodes the entry the iterator currently points at. Only valid to
// call when Valid() is true.
func (ai *AdjIterator) Item() (AdjEntry, error) {
	item := ai.it.Item()
	return parseAdjKeyValue(item.Key, item.Value)
}

// Next advances the iterator by one entry.
func (ai *AdjIterator) Next() { ai.it.Next() }

// Close releases resources held by the iterator.
func (ai *AdjIterator) Close() { ai.it.Close() }
