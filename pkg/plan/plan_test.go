package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubqueryBeginSimpleJoin(t *testing.T) {
	// [NodeScan(0), Begin, Argument(0), NodeScan(1), Join]
	ops := []Operator{
		{Kind: NodeScan, Out: 0},
		{Kind: Begin},
		{Kind: Argument, Ident: 0},
		{Kind: NodeScan, Out: 1},
		{Kind: Join},
	}
	p := New(ops, []int{0, 1})
	assert.Equal(t, 1, p.SubqueryBegin(4))
	assert.Equal(t, 2, p.Width)
}

func TestSubqueryBeginNestedJoin(t *testing.T) {
	// Outer: [A(0), Begin(1), InnerBegin(2), Arg(3), B(4), InnerJoin(5), C(6), OuterJoin(7)]
	ops := []Operator{
		{Kind: NodeScan, Out: 0},   // 0: outer left
		{Kind: Begin},              // 1: outer begin
		{Kind: Begin},              // 2: inner begin
		{Kind: Argument, Ident: 1}, // 3: inner left arg
		{Kind: NodeScan, Out: 2},   // 4: inner right
		{Kind: Join},               // 5: inner join
		{Kind: NodeScan, Out: 3},   // 6: more outer right
		{Kind: Join},               // 7: outer join
	}
	p := New(ops, []int{0})
	assert.Equal(t, 2, p.SubqueryBegin(5), "inner join's subquery begins at the inner Begin")
	assert.Equal(t, 1, p.SubqueryBegin(7), "outer join's subquery begins at the outer Begin, skipping the inner join's range")
}

func TestWidthFromFilterAndProject(t *testing.T) {
	ops := []Operator{
		{Kind: NodeScan, Out: 0},
		{Kind: Filter, FilterClauses: []FilterClause{{Kind: IdentLabelClause, Ident: 0, Label: "Person"}}},
		{Kind: Project, ProjectClauses: []ProjectClause{{Target: 5}}},
	}
	p := New(ops, []int{5})
	assert.Equal(t, 6, p.Width)
}

func TestKindIsJoinLike(t *testing.T) {
	assert.True(t, Join.IsJoinLike())
	assert.True(t, SemiJoin.IsJoinLike())
	assert.True(t, UnionAll.IsJoinLike())
	assert.False(t, Filter.IsJoinLike())
	assert.False(t, Anti.IsJoinLike())
}

func TestNewCopiesSlices(t *testing.T) {
	ops := []Operator{{Kind: NodeScan, Out: 0}}
	results := []int{0}
	p := New(ops, results)
	ops[0].Out = 99
	results[0] = 99
	require.Len(t, p.Ops, 1)
	assert.Equal(t, 0, p.Ops[0].Out)
	assert.Equal(t, 0, p.Results[0])
}
