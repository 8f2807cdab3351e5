package exec

import (
	"github.com/fenwickgraph/graphdb/pkg/graph"
	"github.com/fenwickgraph/graphdb/pkg/ids"
)

// opState is the executor's per-operator state slot. Per spec.md §9 this
// would be a tagged variant in a language with sum types; Go expresses
// the same idea as a struct carrying every shape an operator's state can
// take, with only the fields relevant to that operator's Kind ever
// populated.
type opState struct {
	// NodeScan, EdgeScan, Step: whether the root/input row has been
	// pulled yet this pass.
	started bool

	nodeIter *graph.NodeIterator // NodeScan
	edgeIter *graph.EdgeIterator // EdgeScan
	adjIter  *graph.AdjIterator  // Step

	// Step: the source node of the current input row, held across a
	// left_or_right direction's two scan phases.
	stepSrc   ids.ElementId
	stepPhase int

	// Limit
	count int

	// Skip: whether the n-row drain has already run.
	skipped bool

	// Anti, Begin, EmptyResult: a single-use latch.
	flag bool

	// Join, UnionAll: which side is currently being pulled.
	phase int
}

// close releases any iterator this state slot holds open.
func (s *opState) close() {
	if s.nodeIter != nil {
		s.nodeIter.Close()
	}
	if s.edgeIter != nil {
		s.edgeIter.Close()
	}
	if s.adjIter != nil {
		s.adjIter.Close()
	}
}
