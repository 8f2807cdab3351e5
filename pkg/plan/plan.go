// Package plan describes a query plan: a flat, post-order sequence of
// operators over a fixed-width row of assignments, plus the identifiers
// to return. It contains no execution logic — see pkg/exec for that.
package plan

import "github.com/fenwickgraph/graphdb/pkg/expr"

// NoIdent marks an optional identifier slot (an output ref, an edge
// ident on Step, and so on) as absent.
const NoIdent = -1

// Kind tags which operator variant an Operator value holds.
type Kind int

const (
	NodeScan Kind = iota
	EdgeScan
	NodeById
	EdgeById
	Step
	Begin
	Argument
	Join
	SemiJoin
	Anti
	UnionAll
	Project
	Filter
	Limit
	Skip
	EmptyResult
	InsertNode
	InsertEdge
)

func (k Kind) String() string {
	switch k {
	case NodeScan:
		return "NodeScan"
	case EdgeScan:
		return "EdgeScan"
	case NodeById:
		return "NodeById"
	case EdgeById:
		return "EdgeById"
	case Step:
		return "Step"
	case Begin:
		return "Begin"
	case Argument:
		return "Argument"
	case Join:
		return "Join"
	case SemiJoin:
		return "SemiJoin"
	case Anti:
		return "Anti"
	case UnionAll:
		return "UnionAll"
	case Project:
		return "Project"
	case Filter:
		return "Filter"
	case Limit:
		return "Limit"
	case Skip:
		return "Skip"
	case EmptyResult:
		return "EmptyResult"
	case InsertNode:
		return "InsertNode"
	case InsertEdge:
		return "InsertEdge"
	default:
		return "Unknown"
	}
}

// Direction selects which adjacency entries Step visits relative to the
// source node, per spec.md §4.5's scan-bound table.
type Direction int

const (
	Left Direction = iota
	Right
	Undirected
	LeftOrUndirected
	RightOrUndirected
	Any
	LeftOrRight
)

// IsJoinLike reports whether a Kind introduces a right-hand subquery
// delimited by a matching Begin marker.
func (k Kind) IsJoinLike() bool {
	switch k {
	case Join, SemiJoin, UnionAll:
		return true
	default:
		return false
	}
}

// ProjectClause assigns the result of evaluating Expr to Target.
type ProjectClause struct {
	Target int
	Expr   Expression
}

// FilterKind tags a FilterClause variant.
type FilterKind int

const (
	BoolExpClause FilterKind = iota
	IdentLabelClause
)

// FilterClause is either a boolean expression over the row (BoolExp) or
// a label membership test on a node_ref/edge_ref identifier (IdentLabel).
type FilterClause struct {
	Kind  FilterKind
	Expr  Expression // BoolExpClause
	Ident int        // IdentLabelClause
	Label string     // IdentLabelClause
}

// PropertyClause evaluates Expr and stores it under Key on an inserted
// node or edge.
type PropertyClause struct {
	Key  string
	Expr Expression
}

// Expression is the evaluable payload of Project/Filter/Insert clauses.
type Expression = *expr.Expr

// Operator is one node of a flat post-order plan. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Operator struct {
	Kind Kind

	// NodeScan, EdgeScan
	Out   int
	Label string // optional, "" means unfiltered

	// NodeById, EdgeById
	Ref int
	ID  int

	// Step
	Src       int
	EdgeOut   int // NoIdent if the edge ref is not requested
	DstOut    int // NoIdent if the dst ref is not requested
	Dir       Direction
	EdgeLabel string // optional, "" means unfiltered

	// Argument
	Ident int

	// Join, SemiJoin, UnionAll: index of the matching Begin marker,
	// computed once at plan construction by computeSubqueryBegins.
	beginIndex int

	// Project
	ProjectClauses []ProjectClause

	// Filter
	FilterClauses []FilterClause

	// Limit, Skip
	N int

	// InsertNode, InsertEdge
	Labels     []string
	Properties []PropertyClause
	// InsertEdge
	EdgeSrc, EdgeDst int
	Directed         bool
}

// Plan is an ordered operator sequence plus the identifiers to project
// into each output row.
type Plan struct {
	Ops     []Operator
	Results []int
	Width   int
}

// New builds a Plan from ops and results, computing each join-like
// operator's subquery begin index and the plan's width (one plus the
// maximum identifier any operator references).
func New(ops []Operator, results []int) *Plan {
	p := &Plan{Ops: append([]Operator(nil), ops...), Results: append([]int(nil), results...)}
	p.computeSubqueryBegins()
	p.Width = p.computeWidth()
	return p
}

// computeSubqueryBegins finds, for every join-like operator at index j,
// the matching Begin at the same nesting depth: the right-hand subquery
// occupies ops[subquery_begin, j), so the search runs backward from
// j-1. A nested join-like operator encountered along the way owns its
// own, already-consumed Begin further back, so it opens a level of
// nesting that must be closed before a Begin can match at depth zero.
// Per spec.md §9 this is precomputed once and cached rather than
// rescanned on every pull.
func (p *Plan) computeSubqueryBegins() {
	for j := range p.Ops {
		if !p.Ops[j].Kind.IsJoinLike() {
			continue
		}
		depth := 0
		begin := -1
		for k := j - 1; k >= 0; k-- {
			switch {
			case p.Ops[k].Kind == Begin && depth == 0:
				begin = k
			case p.Ops[k].Kind == Begin:
				depth--
			case p.Ops[k].Kind.IsJoinLike():
				depth++
			}
			if begin >= 0 {
				break
			}
		}
		p.Ops[j].beginIndex = begin
	}
}

// SubqueryBegin returns the index of the Begin marker matching the
// join-like operator at j.
func (p *Plan) SubqueryBegin(j int) int {
	return p.Ops[j].beginIndex
}

func (p *Plan) computeWidth() int {
	max := -1
	note := func(i int) {
		if i > max {
			max = i
		}
	}
	for _, op := range p.Ops {
		switch op.Kind {
		case NodeScan, EdgeScan:
			note(op.Out)
		case NodeById, EdgeById:
			note(op.Ref)
			note(op.ID)
		case Step:
			note(op.Src)
			if op.EdgeOut != NoIdent {
				note(op.EdgeOut)
			}
			if op.DstOut != NoIdent {
				note(op.DstOut)
			}
		case Argument:
			note(op.Ident)
		case Project:
			for _, c := range op.ProjectClauses {
				note(c.Target)
			}
		case Filter:
			for _, c := range op.FilterClauses {
				if c.Kind == IdentLabelClause {
					note(c.Ident)
				}
			}
		case InsertNode:
			if op.Out != NoIdent {
				note(op.Out)
			}
		case InsertEdge:
			note(op.EdgeSrc)
			note(op.EdgeDst)
			if op.Out != NoIdent {
				note(op.Out)
			}
		}
	}
	for _, r := range p.Results {
		note(r)
	}
	return max + 1
}
