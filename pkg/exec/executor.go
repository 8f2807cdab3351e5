// Package exec implements the pull-based streaming executor: given a
// plan.Plan and a graph.Transaction, it drives the single next(end_index)
// primitive described in spec.md §4.5 and exposes it as an ordinary Go
// iterator via Run.
package exec

import (
	"fmt"

	"github.com/fenwickgraph/graphdb/pkg/expr"
	"github.com/fenwickgraph/graphdb/pkg/graph"
	"github.com/fenwickgraph/graphdb/pkg/plan"
	"github.com/fenwickgraph/graphdb/pkg/value"
)

// Executor drives one plan against one storage transaction. It is not
// safe for concurrent use: spec.md §5 scopes one executor to one
// transaction, both single-threaded.
type Executor struct {
	plan   *plan.Plan
	tx     *graph.Transaction
	params map[string]value.Value

	row    []value.Value
	states []opState

	// initialConsumed tracks the one-bit implicit root row: next(0)
	// returns true exactly once.
	initialConsumed bool

	// pullBudget is decremented on every operator dispatch; zero means
	// unlimited. See spec.md §9 on execution-cost accounting.
	pullBudget int
}

// New builds an Executor for plan against tx. params binds the plan's
// free parameter references. A pullBudget of zero disables the pull
// counter.
func New(p *plan.Plan, tx *graph.Transaction, params map[string]value.Value, pullBudget int) *Executor {
	return &Executor{
		plan:       p,
		tx:         tx,
		params:     params,
		row:        make([]value.Value, p.Width),
		states:     make([]opState, len(p.Ops)),
		pullBudget: pullBudget,
	}
}

// Run advances the plan to its next result row. ok is false once the
// plan is exhausted; the caller should stop calling Run at that point.
// Callers iterate Run to exhaustion, per spec.md §4.5.
func (ex *Executor) Run() (row []value.Value, ok bool, err error) {
	ok, err = ex.next(len(ex.plan.Ops))
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make([]value.Value, len(ex.plan.Results))
	for i, r := range ex.plan.Results {
		out[i] = ex.row[r]
	}
	return out, true, nil
}

// Close releases every iterator still held open by the executor's
// state, regardless of how the query ended. Callers must call Close
// after they stop pulling Run.
func (ex *Executor) Close() {
	for i := range ex.states {
		ex.states[i].close()
	}
}

// next is the executor's single primitive: advance the prefix of the
// plan up to but not including endIndex by one row.
func (ex *Executor) next(endIndex int) (bool, error) {
	if endIndex == 0 {
		if !ex.initialConsumed {
			ex.initialConsumed = true
			return true, nil
		}
		return false, nil
	}

	if ex.pullBudget > 0 {
		ex.pullBudget--
		if ex.pullBudget == 0 {
			return false, ErrPullBudgetExceeded
		}
	}

	i := endIndex - 1
	op := &ex.plan.Ops[i]

	switch op.Kind {
	case plan.NodeScan:
		return ex.nodeScan(i, op)
	case plan.EdgeScan:
		return ex.edgeScan(i, op)
	case plan.NodeById:
		return ex.nodeById(i, op)
	case plan.EdgeById:
		return ex.edgeById(i, op)
	case plan.Step:
		return ex.step(i, op)
	case plan.Begin:
		return ex.begin(i)
	case plan.Argument:
		return ex.pullChild(i)
	case plan.Join:
		return ex.join(i, op)
	case plan.SemiJoin:
		return ex.semiJoin(i, op)
	case plan.Anti:
		return ex.anti(i)
	case plan.UnionAll:
		return ex.unionAll(i, op)
	case plan.Project:
		return ex.project(i, op)
	case plan.Filter:
		return ex.filter(i, op)
	case plan.Limit:
		return ex.limit(i, op)
	case plan.Skip:
		return ex.skip(i, op)
	case plan.EmptyResult:
		return ex.emptyResult(i)
	case plan.InsertNode:
		return ex.insertNode(i, op)
	case plan.InsertEdge:
		return ex.insertEdge(i, op)
	default:
		return false, fmt.Errorf("operator %v: %w", op.Kind, ErrMalformedPlan)
	}
}

// pullChild pulls an operator's single ordinary input: everything
// preceding it in the flat sequence, per spec.md §4.5's next(end_index-1)
// rule restated at the call site (i is already end_index-1, so the
// input is next(i)).
func (ex *Executor) pullChild(i int) (bool, error) {
	return ex.next(i)
}

// pullLeft pulls a join-like operator's left-hand input: the prefix up
// to its subquery_begin.
func (ex *Executor) pullLeft(i int) (bool, error) {
	begin := ex.plan.SubqueryBegin(i)
	if begin < 0 {
		return false, fmt.Errorf("operator %d has no matching Begin: %w", i, ErrMalformedPlan)
	}
	return ex.next(begin)
}

// resetStateRange reinitializes every operator state slot in [start,
// end), closing any iterator it holds open first. Used before each
// right-hand pass of a join-like operator.
func (ex *Executor) resetStateRange(start, end int) {
	for k := start; k < end; k++ {
		ex.states[k].close()
		ex.states[k] = opState{}
	}
}

func evalClause(e plan.Expression, row []value.Value, params map[string]value.Value) value.Value {
	return expr.Eval(e, row, params)
}
