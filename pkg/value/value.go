// Package value implements the dynamically-tagged value type shared by
// the storage layer and the expression evaluator, along with its
// canonical binary encoding.
//
// Values are immutable once constructed. Equality is structural, with
// lossless numeric promotion between int64 and float64.
package value

import (
	"errors"
	"fmt"
	"math"

	"github.com/fenwickgraph/graphdb/pkg/ids"
)

// Tag identifies which variant a Value holds.
type Tag byte

// Tag values, matching the wire encoding in spec.md §3.
const (
	TagString  Tag = 1
	TagInt     Tag = 2
	TagFloat   Tag = 3
	TagNodeRef Tag = 4
	TagEdgeRef Tag = 5
	TagID      Tag = 6
	TagBool    Tag = 7
	TagNull    Tag = 8
)

// Common errors surfaced by the codec.
var (
	ErrInvalidValueTag = errors.New("value: invalid value tag")
	ErrCorruption      = errors.New("value: corrupted or truncated encoding")
)

// Value is a tagged union over the property-graph scalar types: string,
// int64, float64, node reference, edge reference, bare id, bool, and
// null.
//
// The zero Value carries tag 0, which is not one of the tags above: it
// is not Null (IsNull reports false) and Decode rejects its encoding.
// Use Null for the null variant.
type Value struct {
	tag Tag
	str string
	i   int64
	f   float64
	b   bool
	ref ids.ElementId
}

// Null is the canonical null value.
var Null = Value{tag: TagNull}

// String constructs a string-tagged Value.
func String(s string) Value { return Value{tag: TagString, str: s} }

// Int constructs an int64-tagged Value.
func Int(i int64) Value { return Value{tag: TagInt, i: i} }

// Float constructs a float64-tagged Value.
func Float(f float64) Value { return Value{tag: TagFloat, f: f} }

// Bool constructs a bool-tagged Value.
func Bool(b bool) Value { return Value{tag: TagBool, b: b} }

// NodeRef constructs a Value referencing an existing node.
func NodeRef(id ids.ElementId) Value { return Value{tag: TagNodeRef, ref: id} }

// EdgeRef constructs a Value referencing an existing edge.
func EdgeRef(id ids.ElementId) Value { return Value{tag: TagEdgeRef, ref: id} }

// ID constructs a bare id Value, not tied to any entity.
func ID(id ids.ElementId) Value { return Value{tag: TagID, ref: id} }

// Tag returns the variant tag of v.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v holds the null variant.
func (v Value) IsNull() bool { return v.tag == TagNull }

// AsString returns the string payload and whether v is string-tagged.
func (v Value) AsString() (string, bool) {
	if v.tag != TagString {
		return "", false
	}
	return v.str, true
}

// AsInt returns the int64 payload and whether v is int-tagged.
func (v Value) AsInt() (int64, bool) {
	if v.tag != TagInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the float64 payload and whether v is float-tagged.
func (v Value) AsFloat() (float64, bool) {
	if v.tag != TagFloat {
		return 0, false
	}
	return v.f, true
}

// AsBool returns the bool payload and whether v is bool-tagged.
func (v Value) AsBool() (bool, bool) {
	if v.tag != TagBool {
		return false, false
	}
	return v.b, true
}

// AsNodeRef returns the referenced node id and whether v is a node ref.
func (v Value) AsNodeRef() (ids.ElementId, bool) {
	if v.tag != TagNodeRef {
		return ids.ElementId{}, false
	}
	return v.ref, true
}

// AsEdgeRef returns the referenced edge id and whether v is an edge ref.
func (v Value) AsEdgeRef() (ids.ElementId, bool) {
	if v.tag != TagEdgeRef {
		return ids.ElementId{}, false
	}
	return v.ref, true
}

// AsID returns the bare id payload and whether v is id-tagged.
func (v Value) AsID() (ids.ElementId, bool) {
	if v.tag != TagID {
		return ids.ElementId{}, false
	}
	return v.ref, true
}

// Truthy implements spec.md §3's truthiness rule: false, numeric zero,
// NaN, empty string, and null are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.tag {
	case TagNull:
		return false
	case TagBool:
		return v.b
	case TagInt:
		return v.i != 0
	case TagFloat:
		return v.f != 0 && !math.IsNaN(v.f)
	case TagString:
		return v.str != ""
	default:
		// node_ref, edge_ref, id: a reference is always truthy.
		return true
	}
}

// Equal implements structural equality with numeric cross-promotion
// between int64 and float64. Distinct tags that are not both numeric are
// unequal; null equals only null.
func (v Value) Equal(other Value) bool {
	if v.tag == TagNull || other.tag == TagNull {
		return v.tag == TagNull && other.tag == TagNull
	}

	vNum, vIsNum := v.numeric()
	oNum, oIsNum := other.numeric()
	if vIsNum && oIsNum {
		return vNum == oNum
	}
	if v.tag != other.tag {
		return false
	}

	switch v.tag {
	case TagString:
		return v.str == other.str
	case TagBool:
		return v.b == other.b
	case TagNodeRef, TagEdgeRef, TagID:
		return v.ref == other.ref
	default:
		return false
	}
}

// numeric returns v's value widened to float64 and whether v is
// numeric (int or float).
func (v Value) numeric() (float64, bool) {
	switch v.tag {
	case TagInt:
		return float64(v.i), true
	case TagFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Add implements spec.md §4.2's add semantics: string+string
// concatenates, int+int stays int, any other numeric combination widens
// to float, and anything else yields null.
func Add(a, b Value) Value {
	if a.tag == TagString && b.tag == TagString {
		return String(a.str + b.str)
	}
	if a.tag == TagInt && b.tag == TagInt {
		return Int(a.i + b.i)
	}
	aNum, aIsNum := a.numeric()
	bNum, bIsNum := b.numeric()
	if aIsNum && bIsNum {
		return Float(aNum + bNum)
	}
	return Null
}

// Sub implements spec.md §4.2's sub semantics: numeric only, same
// widening rule as Add; anything else yields null.
func Sub(a, b Value) Value {
	if a.tag == TagInt && b.tag == TagInt {
		return Int(a.i - b.i)
	}
	aNum, aIsNum := a.numeric()
	bNum, bIsNum := b.numeric()
	if aIsNum && bIsNum {
		return Float(aNum - bNum)
	}
	return Null
}

// Eql implements spec.md §4.2's eql semantics as a Value-returning
// comparison, for use by the expression evaluator's `=` operator.
func Eql(a, b Value) Value {
	return Bool(a.Equal(b))
}

// String implements fmt.Stringer for debugging and log output. It is
// not the wire encoding; use Encode for that.
func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagString:
		return fmt.Sprintf("%q", v.str)
	case TagInt:
		return fmt.Sprintf("%d", v.i)
	case TagFloat:
		return fmt.Sprintf("%g", v.f)
	case TagBool:
		return fmt.Sprintf("%t", v.b)
	case TagNodeRef:
		return fmt.Sprintf("node(%s)", v.ref)
	case TagEdgeRef:
		return fmt.Sprintf("edge(%s)", v.ref)
	case TagID:
		return fmt.Sprintf("id(%s)", v.ref)
	default:
		return "<invalid value>"
	}
}
