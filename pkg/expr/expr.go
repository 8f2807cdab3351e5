// Package expr evaluates the small expression language a query plan's
// Project, Filter, and mutation operators embed: literals, row
// variables, bound parameters, and binary arithmetic/comparison built on
// pkg/value's promotion rules.
package expr

import "github.com/fenwickgraph/graphdb/pkg/value"

// Kind tags which variant of Expr is populated, mirroring the shape of
// a tagged variant in a language with sum types.
type Kind int

const (
	KindLiteral Kind = iota
	KindVariable
	KindParameter
	KindBinary
)

// BinOp names a binary operator.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpEql
)

// Expr is one node of an expression tree, evaluated against a plan's
// current assignment row.
type Expr struct {
	Kind Kind

	// KindLiteral
	Literal value.Value

	// KindVariable: index into the assignment row.
	Variable int

	// KindParameter: name bound in the query's parameter map.
	Parameter string

	// KindBinary
	Op          BinOp
	Left, Right *Expr
}

// Lit builds a literal expression.
func Lit(v value.Value) *Expr { return &Expr{Kind: KindLiteral, Literal: v} }

// Var builds a row-variable reference.
func Var(i int) *Expr { return &Expr{Kind: KindVariable, Variable: i} }

// Param builds a reference to a named bound parameter.
func Param(name string) *Expr { return &Expr{Kind: KindParameter, Parameter: name} }

// Bin builds a binary expression.
func Bin(op BinOp, left, right *Expr) *Expr {
	return &Expr{Kind: KindBinary, Op: op, Left: left, Right: right}
}

// Eval evaluates e against row, resolving KindVariable by index and
// KindParameter by lookup in params. A nil or absent parameter evaluates
// to value.Null.
//
// Eval indexes row directly for KindVariable: an out-of-range index is a
// plan-construction bug, not a runtime condition to recover from, and is
// left to panic rather than threaded through as an error.
func Eval(e *Expr, row []value.Value, params map[string]value.Value) value.Value {
	switch e.Kind {
	case KindLiteral:
		return e.Literal
	case KindVariable:
		return row[e.Variable]
	case KindParameter:
		if v, ok := params[e.Parameter]; ok {
			return v
		}
		return value.Null
	case KindBinary:
		left := Eval(e.Left, row, params)
		right := Eval(e.Right, row, params)
		switch e.Op {
		case OpAdd:
			return value.Add(left, right)
		case OpSub:
			return value.Sub(left, right)
		case OpEql:
			return value.Eql(left, right)
		}
	}
	return value.Null
}
