package graph

import (
	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/fenwickgraph/graphdb/pkg/kv"
)

// IterateNodes opens a scan over every node in the transaction's
// snapshot, in element-id order. Non-conflicting.
func (tx *Transaction) IterateNodes() *NodeIterator {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return &NodeIterator{it: tx.txn.Iterate(kv.CFNode, nil, nil)}
}

// IterateEdges opens a scan over every edge in the transaction's
// snapshot, in element-id order. Non-conflicting.
func (tx *Transaction) IterateEdges() *EdgeIterator {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return &EdgeIterator{it: tx.txn.Iterate(kv.CFEdge, nil, nil)}
}

// NodeIterator yields decoded Node values over a full-table scan.
type NodeIterator struct {
	it kv.Iterator
}

func (ni *NodeIterator) Valid() bool { return ni.it.Valid() }

func (ni *NodeIterator) Item() (*Node, error) {
	item := ni.it.Item()
	id, err := ids.FromBytes(item.Key)
	if err != nil {
		return nil, err
	}
	return decodeNode(id, item.Value)
}

func (ni *NodeIterator) Next() { ni.it.Next() }
func (ni *NodeIterator) Close() { ni.it.Close() }

// EdgeIterator yields decoded Edge values over a full-table scan.
type EdgeIterator struct {
	it kv.Iterator
}

func (ei *EdgeIterator) Valid() bool { return ei.it.Valid() }

func (ei *EdgeIterator) Item() (*Edge, error) {
	item := ei.it.Item()
	id, err := ids.FromBytes(item.Key)
	if err != nil {
		return nil, err
	}
	return decodeEdge(id, item.Value)
}

func (ei *EdgeIterator) Next() { ei.it.Next() }
func (ei *EdgeIterator) Close() { ei.it.Close() }
