package expr

import (
	"testing"

	"github.com/fenwickgraph/graphdb/pkg/value"
	"github.com/stretchr/testify/assert"
)

func TestEvalLiteral(t *testing.T) {
	got := Eval(Lit(value.Int(5)), nil, nil)
	assert.True(t, got.Equal(value.Int(5)))
}

func TestEvalVariable(t *testing.T) {
	row := []value.Value{value.String("a"), value.Int(7)}
	got := Eval(Var(1), row, nil)
	assert.True(t, got.Equal(value.Int(7)))
}

func TestEvalParameter(t *testing.T) {
	params := map[string]value.Value{"limit": value.Int(10)}
	got := Eval(Param("limit"), nil, params)
	assert.True(t, got.Equal(value.Int(10)))

	got = Eval(Param("missing"), nil, params)
	assert.True(t, got.Equal(value.Null))
}

func TestEvalBinary(t *testing.T) {
	e := Bin(OpAdd, Lit(value.Int(2)), Lit(value.Int(3)))
	got := Eval(e, nil, nil)
	assert.True(t, got.Equal(value.Int(5)))

	e = Bin(OpEql, Var(0), Lit(value.Int(9)))
	row := []value.Value{value.Int(9)}
	got = Eval(e, row, nil)
	assert.True(t, got.Equal(value.Bool(true)))

	e = Bin(OpSub, Lit(value.Float(5)), Lit(value.Int(2)))
	got = Eval(e, nil, nil)
	assert.True(t, got.Equal(value.Float(3)))
}

func TestEvalNestedBinary(t *testing.T) {
	// (2 + 3) == 5
	e := Bin(OpEql, Bin(OpAdd, Lit(value.Int(2)), Lit(value.Int(3))), Lit(value.Int(5)))
	got := Eval(e, nil, nil)
	assert.True(t, got.Equal(value.Bool(true)))
}
