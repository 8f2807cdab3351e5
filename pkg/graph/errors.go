package graph

import "errors"

// Errors surfaced by Transaction operations, per spec.md §4.3/§6.
var (
	// ErrNotFound is returned by get_node/get_edge as a nil result, and by
	// delete_node/delete_edge and by put_edge (missing endpoint node) as an
	// error.
	ErrNotFound = errors.New("graph: not found")
	// ErrEdgeDataMismatch is returned by PutEdge when an edge id already
	// exists with different endpoints or directedness.
	ErrEdgeDataMismatch = errors.New("graph: edge endpoints or directedness do not match existing record")
	// ErrCorruptedIndex is returned when an adjacency entry cannot be
	// decoded into a well-formed AdjEntry: a malformed key length or an
	// invalid id payload. This is spec.md §7's CorruptedIndex class,
	// distinct from a plain node/edge record decode failure.
	ErrCorruptedIndex = errors.New("graph: corrupted adjacency index entry")
)
