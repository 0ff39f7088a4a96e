// Package interp implements the tree-walking expression interpreter (spec
// §4.4) and its builtin function library (spec §4.5).
package interp

import (
	"fmt"
	"time"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/units"
)

// Value is the tagged union described in spec §3: null, boolean, integer,
// decimal, string, timestamp, array, object, function, quantity — plus an
// Undefined variant for "no such name" (distinct from explicit null, per
// the ?? / @ref semantics in spec §4.4 and §4.10).
type Value interface {
	isValue()
}

type Null struct{}

func (Null) isValue() {}

// Undefined marks the absence of a binding: an unresolved identifier
// (§4.4 name resolution), a missing @ref path segment (§4.10), or a
// property never assigned. Undefined and Null are both "nullish" for `??`.
type Undefined struct{}

func (Undefined) isValue() {}

type Bool bool

func (Bool) isValue() {}

// Int is a plain integer, distinct from Decimal so canonicalization can
// tell "written as an integer" from "computed as a decimal".
type Int int64

func (Int) isValue() {}

type Dec struct{ D decimal.Decimal }

func (Dec) isValue() {}

type Str string

func (Str) isValue() {}

type Timestamp struct{ T time.Time }

func (Timestamp) isValue() {}

type Array []Value

func (Array) isValue() {}

// Object is a document mapping. Keys preserve insertion order (needed for
// deterministic default-subject seeding and predictable iteration); values
// that are themselves directive objects (carrying "@expr") are
// auto-memoized on first read (spec §4.4).
type Object struct {
	keys   []string
	vals   map[string]Value
	cache  map[string]Value
	cached map[string]bool
}

func (*Object) isValue() {}

// NewObject creates an empty ordered object.
func NewObject() *Object {
	return &Object{vals: map[string]Value{}}
}

// Set assigns key, appending it to the key order if new.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Raw returns the raw (non-memoized) value stored at key, without
// evaluating directives. ok is false if key is absent.
func (o *Object) Raw(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Object) Len() int { return len(o.keys) }

// Function is a callable value: either a builtin (Go func) or a closure
// (AST body + captured scope).
type Function struct {
	Name    string
	Arity   int  // -1 for variadic
	Builtin BuiltinFunc
	Params  []string
	Body    ast.Node
	Closure *Scope
}

func (*Function) isValue() {}

// BuiltinFunc is the signature every entry in the $-prefixed registry
// implements. `this` is the call's receiver (Undefined when the callee
// was not a member expression); builtins are free to ignore it.
type BuiltinFunc func(it *Interpreter, this Value, args []Value) (Value, error)

// Quantity is a magnitude with a unit, per spec §3/§4.2.
type Quantity struct{ Q units.Quantity }

func (Quantity) isValue() {}

// TypeName returns the spec's type name for $type()/$isX builtins.
func TypeName(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Undefined:
		return "undefined"
	case Bool:
		return "boolean"
	case Int, Dec:
		return "number"
	case Str:
		return "string"
	case Timestamp:
		return "timestamp"
	case Array:
		return "array"
	case *Object:
		return "object"
	case *Function:
		return "function"
	case Quantity:
		return "quantity"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// IsNullish reports whether v is Null or Undefined, the two values `??`
// coalesces past.
func IsNullish(v Value) bool {
	switch v.(type) {
	case Null, Undefined:
		return true
	case nil:
		return true
	}
	return false
}

// Truthy implements the interpreter's boolean coercion for `! not && ||`
// and `$if`/ternary conditions: nullish, false, zero, and empty string are
// falsy; everything else (including empty arrays/objects) is truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil, Null, Undefined:
		return false
	case Bool:
		return bool(t)
	case Int:
		return t != 0
	case Dec:
		return !t.D.IsZero()
	case Str:
		return t != ""
	default:
		return true
	}
}

// AsDecimal coerces numeric-ish values to Decimal for arithmetic. Returns
// ok=false for non-numeric values.
func AsDecimal(v Value) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case Int:
		return decimal.New(int64(t)), true
	case Dec:
		return t.D, true
	case Bool:
		if t {
			return decimal.New(1), true
		}
		return decimal.New(0), true
	default:
		return decimal.Decimal{}, false
	}
}

// IsNumeric reports whether v participates in numeric arithmetic (Int,
// Dec, or Quantity).
func IsNumeric(v Value) bool {
	switch v.(type) {
	case Int, Dec, Quantity:
		return true
	}
	return false
}
