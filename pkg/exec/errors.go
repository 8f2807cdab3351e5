package exec

import "errors"

// Errors crossing the executor boundary, per spec.md §6/§7.
var (
	// ErrWrongType is returned when a mutation operator or a Filter
	// ident_label clause is handed a row whose assignment carries the
	// wrong Value tag. Unlike a traversal type mismatch, this is a hard
	// error: it is surfaced, not silently skipped.
	ErrWrongType = errors.New("exec: wrong value type for operator")
	// ErrMalformedPlan is returned when a plan references an operator
	// combination the executor cannot make sense of, such as a
	// join-like operator with no matching Begin marker.
	ErrMalformedPlan = errors.New("exec: malformed plan")
	// ErrPullBudgetExceeded is returned when an executor's per-query pull
	// budget is exhausted, per spec.md §9's open question on
	// execution-cost accounting for unbounded path operators.
	ErrPullBudgetExceeded = errors.New("exec: pull budget exceeded")
)
