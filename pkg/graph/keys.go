package graph

import "github.com/fenwickgraph/graphdb/pkg/ids"

// nodeKey is the node CF key: the 12-byte element id, unadorned.
func nodeKey(id ids.ElementId) []byte {
	return append([]byte(nil), id.Bytes()...)
}

// edgeKey is the edge CF key: the 12-byte element id, unadorned.
func edgeKey(id ids.ElementId) []byte {
	return append([]byte(nil), id.Bytes()...)
}

// adjKeyLen is the fixed length of an adjacency key: src(12) || inout(1) || edge(12).
const adjKeyLen = ids.Size + 1 + ids.Size

// adjKey builds the adj CF key for one adjacency entry.
func adjKey(src ids.ElementId, io InOut, edge ids.ElementId) []byte {
	k := make([]byte, 0, adjKeyLen)
	k = append(k, src.Bytes()...)
	k = append(k, byte(io))
	k = append(k, edge.Bytes()...)
	return k
}

// adjBounds returns the [lo, hi) range covering every adjacency entry for
// src whose InOut tag falls in [minIO, maxIO], inclusive on both ends.
// Direction slices are chosen by picking contiguous minIO/maxIO bounds,
// per spec.md §4.3.
func adjBounds(src ids.ElementId, minIO, maxIO InOut) (lo, hi []byte) {
	lo = make([]byte, 0, ids.Size+1)
	lo = append(lo, src.Bytes()...)
	lo = append(lo, byte(minIO))

	hi = make([]byte, 0, ids.Size+1)
	hi = append(hi, src.Bytes()...)
	hi = append(hi, byte(maxIO)+1)
	return lo, hi
}

// adjFullBounds returns the range covering every adjacency entry for src,
// across all three InOut tags.
func adjFullBounds(src ids.ElementId) (lo, hi []byte) {
	return adjBounds(src, Out, In)
}
