package exec

import (
	"context"
	"testing"

	"github.com/fenwickgraph/graphdb/pkg/expr"
	"github.com/fenwickgraph/graphdb/pkg/graph"
	"github.com/fenwickgraph/graphdb/pkg/ids"
	"github.com/fenwickgraph/graphdb/pkg/kv"
	"github.com/fenwickgraph/graphdb/pkg/plan"
	"github.com/fenwickgraph/graphdb/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTx(t *testing.T) *graph.Transaction {
	t.Helper()
	b, err := kv.Open(kv.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	s := graph.NewStore(b)
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}

func mustNode(t *testing.T, tx *graph.Transaction, labels ...string) *graph.Node {
	t.Helper()
	id, err := ids.New()
	require.NoError(t, err)
	n := &graph.Node{ID: id, Labels: labels}
	require.NoError(t, tx.PutNode(n))
	return n
}

func mustEdge(t *testing.T, tx *graph.Transaction, src, dst ids.ElementId, labels ...string) *graph.Edge {
	t.Helper()
	id, err := ids.New()
	require.NoError(t, err)
	e := &graph.Edge{ID: id, Src: src, Dst: dst, Directed: true, Labels: labels}
	require.NoError(t, tx.PutEdge(e))
	return e
}

func runAll(t *testing.T, p *plan.Plan, tx *graph.Transaction, params map[string]value.Value) [][]value.Value {
	t.Helper()
	ex := New(p, tx, params, 0)
	t.Cleanup(ex.Close)
	var rows [][]value.Value
	for {
		row, ok, err := ex.Run()
		require.NoError(t, err)
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	return rows
}

// TestEmptyNodeScan is spec.md §8 scenario 1.
func TestEmptyNodeScan(t *testing.T) {
	tx := newTestTx(t)
	p := plan.New([]plan.Operator{{Kind: plan.NodeScan, Out: 0}}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Empty(t, rows)
}

// TestSingleStepTraversal is spec.md §8 scenario 2.
func TestSingleStepTraversal(t *testing.T) {
	tx := newTestTx(t)
	n1 := mustNode(t, tx)
	n2 := mustNode(t, tx)
	n3 := mustNode(t, tx)
	e1 := mustEdge(t, tx, n1.ID, n2.ID)
	e2 := mustEdge(t, tx, n2.ID, n3.ID)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Step, Src: 0, EdgeOut: 1, DstOut: 2, Dir: plan.Right},
	}, []int{0, 1, 2})
	rows := runAll(t, p, tx, nil)

	require.Len(t, rows, 2)
	seen := map[ids.ElementId]struct{ edge, dst ids.ElementId }{}
	for _, r := range rows {
		src, _ := r[0].AsNodeRef()
		edge, _ := r[1].AsEdgeRef()
		dst, _ := r[2].AsNodeRef()
		seen[src] = struct{ edge, dst ids.ElementId }{edge, dst}
	}
	assert.Equal(t, e1.ID, seen[n1.ID].edge)
	assert.Equal(t, n2.ID, seen[n1.ID].dst)
	assert.Equal(t, e2.ID, seen[n2.ID].edge)
	assert.Equal(t, n3.ID, seen[n2.ID].dst)
	_, sawN3 := seen[n3.ID]
	assert.False(t, sawN3, "n3 has no outgoing edge")
}

// TestTwoStepTraversal is spec.md §8 scenario 3.
func TestTwoStepTraversal(t *testing.T) {
	tx := newTestTx(t)
	n1 := mustNode(t, tx)
	n2 := mustNode(t, tx)
	n3 := mustNode(t, tx)
	mustEdge(t, tx, n1.ID, n2.ID)
	mustEdge(t, tx, n2.ID, n3.ID)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Step, Src: 0, EdgeOut: 1, DstOut: 2, Dir: plan.Right},
		{Kind: plan.Step, Src: 2, EdgeOut: 3, DstOut: 4, Dir: plan.Right},
	}, []int{0, 1, 2, 3, 4})
	rows := runAll(t, p, tx, nil)

	require.Len(t, rows, 1)
	src, _ := rows[0][0].AsNodeRef()
	dst, _ := rows[0][4].AsNodeRef()
	assert.Equal(t, n1.ID, src)
	assert.Equal(t, n3.ID, dst)
}

// TestFilterByLabel is spec.md §8 scenario 6.
func TestFilterByLabel(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx, "Person")
	mustNode(t, tx, "Person")
	mustNode(t, tx, "Food")

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Filter, FilterClauses: []plan.FilterClause{
			{Kind: plan.IdentLabelClause, Ident: 0, Label: "Person"},
		}},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Len(t, rows, 2)
}

func TestFilterIdentLabelWrongTypeOnNonReference(t *testing.T) {
	tx := newTestTx(t)
	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Project, ProjectClauses: []plan.ProjectClause{
			{Target: 0, Expr: expr.Lit(value.Int(1))},
		}},
		{Kind: plan.Filter, FilterClauses: []plan.FilterClause{
			{Kind: plan.IdentLabelClause, Ident: 0, Label: "Person"},
		}},
	}, []int{0})
	mustNode(t, tx)

	ex := New(p, tx, nil, 0)
	defer ex.Close()
	_, _, err := ex.Run()
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestLimit(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx)
	mustNode(t, tx)
	mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Limit, N: 2},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Len(t, rows, 2)
}

func TestSkip(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx)
	mustNode(t, tx)
	mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Skip, N: 2},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Len(t, rows, 1)
}

func TestEmptyResultDrainsAndYieldsNothing(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx)
	mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.EmptyResult},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Empty(t, rows)
}

// TestJoinCrossProduct checks Join's left/right state machine by
// joining every node against every node, itself included (an
// uncorrelated cross product), matching the subquery-begin semantics of spec.md §4.5.
func TestJoinCrossProduct(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx)
	mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Begin},
		{Kind: plan.NodeScan, Out: 1},
		{Kind: plan.Join},
	}, []int{0, 1})
	rows := runAll(t, p, tx, nil)
	assert.Len(t, rows, 4)
}

func TestSemiJoinKeepsOnlyMatchingLeftRows(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx, "Person")
	mustNode(t, tx, "Food")

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Begin},
		{Kind: plan.Argument, Ident: 0},
		{Kind: plan.Filter, FilterClauses: []plan.FilterClause{
			{Kind: plan.IdentLabelClause, Ident: 0, Label: "Person"},
		}},
		{Kind: plan.SemiJoin},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Len(t, rows, 1)
}

func TestAntiYieldsOneRowOnlyWhenChildIsEmpty(t *testing.T) {
	tx := newTestTx(t)

	emptyPlan := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Anti},
	}, []int{})
	rows := runAll(t, emptyPlan, tx, nil)
	assert.Len(t, rows, 1)

	mustNode(t, tx)
	nonEmptyPlan := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Anti},
	}, []int{})
	rows = runAll(t, nonEmptyPlan, tx, nil)
	assert.Empty(t, rows)
}

func TestUnionAllDrainsSubqueryThenPrefix(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx)
	mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.Begin},
		{Kind: plan.NodeScan, Out: 0},
		{Kind: plan.UnionAll},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	assert.Len(t, rows, 4)
}

func TestInsertNodePersistsLabelsAndProperties(t *testing.T) {
	tx := newTestTx(t)

	p := plan.New([]plan.Operator{
		{Kind: plan.Begin},
		{Kind: plan.InsertNode, Out: 0, Labels: []string{"Person"},
			Properties: []plan.PropertyClause{{Key: "age", Expr: expr.Lit(value.Int(30))}}},
	}, []int{0})
	rows := runAll(t, p, tx, nil)
	require.Len(t, rows, 1)

	ref, ok := rows[0][0].AsNodeRef()
	require.True(t, ok)
	n, err := tx.GetNode(ref)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, []string{"Person"}, n.Labels)
	require.Len(t, n.Properties, 1)
	assert.Equal(t, "age", n.Properties[0].Key)
}

func TestInsertEdgeWrongTypeWhenSrcIsNotNodeRef(t *testing.T) {
	tx := newTestTx(t)
	n := mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.Begin},
		{Kind: plan.Project, ProjectClauses: []plan.ProjectClause{
			{Target: 0, Expr: expr.Lit(value.Int(1))},
			{Target: 1, Expr: expr.Lit(value.NodeRef(n.ID))},
		}},
		{Kind: plan.InsertEdge, EdgeSrc: 0, EdgeDst: 1, Out: 2},
	}, []int{2})

	ex := New(p, tx, nil, 0)
	defer ex.Close()
	_, _, err := ex.Run()
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestInsertEdgePersistsAndPublishesRef(t *testing.T) {
	tx := newTestTx(t)
	n1 := mustNode(t, tx)
	n2 := mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.Begin},
		{Kind: plan.Project, ProjectClauses: []plan.ProjectClause{
			{Target: 0, Expr: expr.Lit(value.NodeRef(n1.ID))},
			{Target: 1, Expr: expr.Lit(value.NodeRef(n2.ID))},
		}},
		{Kind: plan.InsertEdge, EdgeSrc: 0, EdgeDst: 1, Out: 2, Directed: true, Labels: []string{"KNOWS"}},
	}, []int{2})
	rows := runAll(t, p, tx, nil)
	require.Len(t, rows, 1)

	ref, ok := rows[0][0].AsEdgeRef()
	require.True(t, ok)
	e, err := tx.GetEdge(ref)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, n1.ID, e.Src)
	assert.Equal(t, n2.ID, e.Dst)
	assert.Equal(t, []string{"KNOWS"}, e.Labels)
}

func TestNodeByIdPublishesRefForExistingNode(t *testing.T) {
	tx := newTestTx(t)
	n := mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.Begin},
		{Kind: plan.Project, ProjectClauses: []plan.ProjectClause{
			{Target: 0, Expr: expr.Lit(value.ID(n.ID))},
		}},
		{Kind: plan.NodeById, ID: 0, Ref: 1},
	}, []int{1})
	rows := runAll(t, p, tx, nil)
	require.Len(t, rows, 1)
	ref, ok := rows[0][0].AsNodeRef()
	require.True(t, ok)
	assert.Equal(t, n.ID, ref)
}

func TestPullBudgetExceeded(t *testing.T) {
	tx := newTestTx(t)
	mustNode(t, tx)
	mustNode(t, tx)

	p := plan.New([]plan.Operator{
		{Kind: plan.NodeScan, Out: 0},
	}, []int{0})

	ex := New(p, tx, nil, 2)
	defer ex.Close()
	_, ok, err := ex.Run()
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = ex.Run()
	assert.ErrorIs(t, err, ErrPullBudgetExceeded)
}
