package exec

import (
	"fmt"

	"github.com/fenwickgraph/graphdb/pkg/graph"
	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/fenwickgraph/graphdb/pkg/plan"
	"github.com/fenwickgraph/graphdb/pkg/value"
)

func (ex *Executor) nodeScan(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]

	if !state.started {
		ok, err := ex.pullChild(i)
		if err != nil || !ok {
			return false, err
		}
		state.started = true
		state.nodeIter = ex.tx.IterateNodes()
	} else if state.nodeIter != nil {
		state.nodeIter.Next()
	}

	for state.nodeIter != nil && state.nodeIter.Valid() {
		n, err := state.nodeIter.Item()
		if err != nil {
			return false, err
		}
		if op.Label != "" && !graph.HasLabel(n.Labels, op.Label) {
			state.nodeIter.Next()
			continue
		}
		ex.row[op.Out] = value.NodeRef(n.ID)
		return true, nil
	}
	if state.nodeIter != nil {
		state.nodeIter.Close()
		state.nodeIter = nil
	}
	return false, nil
}

func (ex *Executor) edgeScan(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]

	if !state.started {
		ok, err := ex.pullChild(i)
		if err != nil || !ok {
			return false, err
		}
		state.started = true
		state.edgeIter = ex.tx.IterateEdges()
	} else if state.edgeIter != nil {
		state.edgeIter.Next()
	}

	for state.edgeIter != nil && state.edgeIter.Valid() {
		e, err := state.edgeIter.Item()
		if err != nil {
			return false, err
		}
		if op.Label != "" && !graph.HasLabel(e.Labels, op.Label) {
			state.edgeIter.Next()
			continue
		}
		ex.row[op.Out] = value.EdgeRef(e.ID)
		return true, nil
	}
	if state.edgeIter != nil {
		state.edgeIter.Close()
		state.edgeIter = nil
	}
	return false, nil
}

func (ex *Executor) nodeById(i int, op *plan.Operator) (bool, error) {
	for {
		ok, err := ex.pullChild(i)
		if err != nil || !ok {
			return false, err
		}
		id, isID := ex.row[op.ID].AsID()
		if !isID {
			continue // type mismatch: drop the row, try the next one
		}
		n, err := ex.tx.GetNode(id)
		if err != nil {
			return false, err
		}
		if n == nil {
			continue
		}
		ex.row[op.Ref] = value.NodeRef(n.ID)
		return true, nil
	}
}

func (ex *Executor) edgeById(i int, op *plan.Operator) (bool, error) {
	for {
		ok, err := ex.pullChild(i)
		if err != nil || !ok {
			return false, err
		}
		id, isID := ex.row[op.ID].AsID()
		if !isID {
			continue
		}
		e, err := ex.tx.GetEdge(id)
		if err != nil {
			return false, err
		}
		if e == nil {
			continue
		}
		ex.row[op.Ref] = value.EdgeRef(e.ID)
		return true, nil
	}
}

// stepBounds maps a Step direction (and, for left_or_right, which of
// its two non-contiguous phases is active) to adjacency scan bounds,
// per spec.md §4.5.
func stepBounds(dir plan.Direction, phase int) (graph.InOut, graph.InOut) {
	switch dir {
	case plan.Left:
		return graph.In, graph.In
	case plan.Right:
		return graph.Out, graph.Out
	case plan.Undirected:
		return graph.Simple, graph.Simple
	case plan.LeftOrUndirected:
		return graph.Simple, graph.In
	case plan.RightOrUndirected:
		return graph.Out, graph.Simple
	case plan.Any:
		return graph.Out, graph.In
	case plan.LeftOrRight:
		if phase == 0 {
			return graph.Out, graph.Out
		}
		return graph.In, graph.In
	default:
		return graph.Out, graph.In
	}
}

func (ex *Executor) step(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]

	for {
		if !state.started {
			ok, err := ex.pullChild(i)
			if err != nil || !ok {
				return false, err
			}
			srcID, isNodeRef := ex.row[op.Src].AsNodeRef()
			if !isNodeRef {
				// Type mismatch: this pull reports no match. A later
				// call starts over with a fresh input row.
				return false, nil
			}
			state.started = true
			state.stepSrc = srcID
			state.stepPhase = 0
			minIO, maxIO := stepBounds(op.Dir, 0)
			state.adjIter = ex.tx.IterateAdj(state.stepSrc, minIO, maxIO)
		} else if state.adjIter != nil {
			state.adjIter.Next()
		}

		for state.adjIter != nil {
			for state.adjIter.Valid() {
				entry, err := state.adjIter.Item()
				if err != nil {
					return false, err
				}
				if op.EdgeLabel != "" {
					e, err := ex.tx.GetEdge(entry.Edge)
					if err != nil {
						return false, err
					}
					if e == nil || !graph.HasLabel(e.Labels, op.EdgeLabel) {
						state.adjIter.Next()
						continue
					}
				}
				if op.EdgeOut != plan.NoIdent {
					ex.row[op.EdgeOut] = value.EdgeRef(entry.Edge)
				}
				if op.DstOut != plan.NoIdent {
					ex.row[op.DstOut] = value.NodeRef(entry.DstNode)
				}
				return true, nil
			}
			state.adjIter.Close()
			state.adjIter = nil
			if op.Dir == plan.LeftOrRight && state.stepPhase == 0 {
				state.stepPhase = 1
				minIO, maxIO := stepBounds(op.Dir, 1)
				state.adjIter = ex.tx.IterateAdj(state.stepSrc, minIO, maxIO)
			}
		}
		state.started = false
	}
}

func (ex *Executor) begin(i int) (bool, error) {
	state := &ex.states[i]
	if state.flag {
		return false, nil
	}
	state.flag = true
	return true, nil
}

func (ex *Executor) join(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]
	begin := ex.plan.SubqueryBegin(i)
	if begin < 0 {
		return false, fmt.Errorf("Join at %d has no matching Begin: %w", i, ErrMalformedPlan)
	}

	for {
		if state.phase == 0 {
			ok, err := ex.pullLeft(i)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			ex.resetStateRange(begin, i)
			state.phase = 1
		}

		ok, err := ex.pullChild(i)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		state.phase = 0
	}
}

func (ex *Executor) semiJoin(i int, op *plan.Operator) (bool, error) {
	begin := ex.plan.SubqueryBegin(i)
	if begin < 0 {
		return false, fmt.Errorf("SemiJoin at %d has no matching Begin: %w", i, ErrMalformedPlan)
	}

	for {
		ok, err := ex.pullLeft(i)
		if err != nil || !ok {
			return false, err
		}
		ex.resetStateRange(begin, i)
		matched, err := ex.pullChild(i)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
}

func (ex *Executor) anti(i int) (bool, error) {
	state := &ex.states[i]
	if state.flag {
		return false, nil
	}
	state.flag = true
	ok, err := ex.pullChild(i)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (ex *Executor) unionAll(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]
	begin := ex.plan.SubqueryBegin(i)
	if begin < 0 {
		return false, fmt.Errorf("UnionAll at %d has no matching Begin: %w", i, ErrMalformedPlan)
	}

	if state.phase == 0 {
		ok, err := ex.pullChild(i)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		state.phase = 1
	}
	return ex.pullLeft(i)
}

func (ex *Executor) project(i int, op *plan.Operator) (bool, error) {
	ok, err := ex.pullChild(i)
	if err != nil || !ok {
		return false, err
	}
	for _, c := range op.ProjectClauses {
		ex.row[c.Target] = evalClause(c.Expr, ex.row, ex.params)
	}
	return true, nil
}

func (ex *Executor) filter(i int, op *plan.Operator) (bool, error) {
	for {
		ok, err := ex.pullChild(i)
		if err != nil || !ok {
			return false, err
		}

		pass := true
		for _, c := range op.FilterClauses {
			switch c.Kind {
			case plan.BoolExpClause:
				if !evalClause(c.Expr, ex.row, ex.params).Truthy() {
					pass = false
				}
			case plan.IdentLabelClause:
				matched, err := ex.identHasLabel(c.Ident, c.Label)
				if err != nil {
					return false, err
				}
				if !matched {
					pass = false
				}
			}
			if !pass {
				break
			}
		}
		if pass {
			return true, nil
		}
	}
}

func (ex *Executor) identHasLabel(ident int, label string) (bool, error) {
	v := ex.row[ident]
	if ref, ok := v.AsNodeRef(); ok {
		n, err := ex.tx.GetNode(ref)
		if err != nil {
			return false, err
		}
		return n != nil && graph.HasLabel(n.Labels, label), nil
	}
	if ref, ok := v.AsEdgeRef(); ok {
		e, err := ex.tx.GetEdge(ref)
		if err != nil {
			return false, err
		}
		return e != nil && graph.HasLabel(e.Labels, label), nil
	}
	return false, ErrWrongType
}

func (ex *Executor) limit(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]
	if state.count >= op.N {
		return false, nil
	}
	ok, err := ex.pullChild(i)
	if err != nil || !ok {
		return false, err
	}
	state.count++
	return true, nil
}

func (ex *Executor) skip(i int, op *plan.Operator) (bool, error) {
	state := &ex.states[i]
	if !state.skipped {
		state.skipped = true
		for k := 0; k < op.N; k++ {
			ok, err := ex.pullChild(i)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}
	return ex.pullChild(i)
}

func (ex *Executor) emptyResult(i int) (bool, error) {
	state := &ex.states[i]
	if !state.flag {
		state.flag = true
		for {
			ok, err := ex.pullChild(i)
			if err != nil {
				return false, err
			}
			if !ok {
				break
			}
		}
	}
	return false, nil
}

func (ex *Executor) insertNode(i int, op *plan.Operator) (bool, error) {
	ok, err := ex.pullChild(i)
	if err != nil || !ok {
		return false, err
	}

	id, err := ids.New()
	if err != nil {
		return false, err
	}
	n := &graph.Node{
		ID:         id,
		Labels:     append([]string(nil), op.Labels...),
		Properties: evalProperties(op.Properties, ex.row, ex.params),
	}
	if err := ex.tx.PutNode(n); err != nil {
		return false, err
	}
	if op.Out != plan.NoIdent {
		ex.row[op.Out] = value.NodeRef(id)
	}
	return true, nil
}

func (ex *Executor) insertEdge(i int, op *plan.Operator) (bool, error) {
	ok, err := ex.pullChild(i)
	if err != nil || !ok {
		return false, err
	}

	src, isSrc := ex.row[op.EdgeSrc].AsNodeRef()
	if !isSrc {
		return false, ErrWrongType
	}
	dst, isDst := ex.row[op.EdgeDst].AsNodeRef()
	if !isDst {
		return false, ErrWrongType
	}

	id, err := ids.New()
	if err != nil {
		return false, err
	}
	e := &graph.Edge{
		ID:         id,
		Src:        src,
		Dst:        dst,
		Directed:   op.Directed,
		Labels:     append([]string(nil), op.Labels...),
		Properties: evalProperties(op.Properties, ex.row, ex.params),
	}
	if err := ex.tx.PutEdge(e); err != nil {
		return false, err
	}
	if op.Out != plan.NoIdent {
		ex.row[op.Out] = value.EdgeRef(id)
	}
	return true, nil
}

func evalProperties(clauses []plan.PropertyClause, row []value.Value, params map[string]value.Value) []value.PropertyEntry {
	if len(clauses) == 0 {
		return nil
	}
	props := make([]value.PropertyEntry, len(clauses))
	for i, c := range clauses {
		props[i] = value.PropertyEntry{Key: c.Key, Value: evalClause(c.Expr, row, params)}
	}
	return props
}
