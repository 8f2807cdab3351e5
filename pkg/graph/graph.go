// Package graph implements the property-graph storage layer on top of the
// pkg/kv adapter: nodes, edges, and the adjacency index that makes edge
// traversal a bounded prefix scan instead of a full edge-table scan.
package graph

import (
	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/fenwickgraph/graphdb/pkg/value"
)

// InOut tags one side of an adjacency entry: whether it records an
// outgoing directed edge, an incoming directed edge, or one side of an
// undirected edge.
type InOut byte

const (
	// Out marks the source side of a directed edge: (src, Out, e) -> dst.
	Out InOut = 0
	// Simple marks either side of an undirected edge.
	Simple InOut = 1
	// In marks the destination side of a directed edge: (dst, In, e) -> src.
	In InOut = 2
)

// Inverse returns the InOut tag written at the opposite endpoint of an
// edge: out and in mirror each other, simple mirrors itself.
func (io InOut) Inverse() InOut {
	switch io {
	case Out:
		return In
	case In:
		return Out
	default:
		return Simple
	}
}

func (io InOut) String() string {
	switch io {
	case Out:
		return "out"
	case In:
		return "in"
	case Simple:
		return "simple"
	default:
		return "invalid"
	}
}

// Node is a graph vertex: an identity, an insertion-ordered set of
// labels, and an insertion-ordered property map.
type Node struct {
	ID         ids.ElementId
	Labels     []string
	Properties []value.PropertyEntry
}

// Edge is a graph edge between two nodes, directed or not. The endpoint
// order is always recorded; for undirected edges it carries no query
// semantics.
type Edge struct {
	ID         ids.ElementId
	Src        ids.ElementId
	Dst        ids.ElementId
	Directed   bool
	Labels     []string
	Properties []value.PropertyEntry
}

// AdjEntry is one row of the adjacency index: from SrcNode, in direction
// InOut, edge Edge leads to DstNode.
type AdjEntry struct {
	SrcNode ids.ElementId
	InOut   InOut
	Edge    ids.ElementId
	DstNode ids.ElementId
}

// HasLabel reports whether labels contains label.
func HasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
