package interp

import (
	"fmt"
	"time"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/units"
)

// Interpreter is a tree-walking evaluator (spec §4.4). It is stateless
// across documents: create one per evaluation.
type Interpreter struct {
	Units      *units.Registry
	Now        time.Time // backs $now/$today for reproducibility (spec §6)
	builtins   map[string]*Function
	aggregates map[string]*Function
}

// New creates an Interpreter bound to a unit registry and a fixed "now"
// (supplied by the host per spec §6, so $now() is reproducible).
func New(reg *units.Registry, now time.Time) *Interpreter {
	it := &Interpreter{Units: reg, Now: now}
	it.builtins = registerBuiltins()
	it.aggregates = registerAggregates()
	return it
}

// Eval walks n in scope and returns its value, or an *EvalError.
func (it *Interpreter) Eval(n ast.Node, scope *Scope) (Value, error) {
	switch node := n.(type) {
	case *ast.Literal:
		return it.evalLiteral(node)
	case *ast.Identifier:
		return it.evalIdentifier(node, scope)
	case *ast.Unary:
		return it.evalUnary(node, scope)
	case *ast.Binary:
		return it.evalBinary(node, scope)
	case *ast.Ternary:
		cond, err := it.Eval(node.Cond, scope)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return it.Eval(node.Then, scope)
		}
		return it.Eval(node.Else, scope)
	case *ast.Member:
		recv, err := it.Eval(node.X, scope)
		if err != nil {
			return nil, err
		}
		return it.GetProperty(recv, node.Name)
	case *ast.Index:
		return it.evalIndex(node, scope)
	case *ast.Call:
		return it.evalCall(node, scope)
	case *ast.Lambda:
		return &Function{Name: "<lambda>", Arity: len(node.Params), Params: node.Params, Body: node.Body, Closure: scope}, nil
	case *ast.ArrayLit:
		arr := make(Array, len(node.Elems))
		for i, e := range node.Elems {
			v, err := it.Eval(e, scope)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case *ast.ObjectLit:
		obj := NewObject()
		for i, k := range node.Keys {
			v, err := it.Eval(node.Vals[i], scope)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	default:
		return nil, evalErr("eval", fmt.Errorf("%w: unknown node type %T", ErrType, n))
	}
}

func (it *Interpreter) evalLiteral(l *ast.Literal) (Value, error) {
	switch l.Kind {
	case ast.LitNumber:
		d, err := decimal.Parse(l.Text)
		if err != nil {
			return nil, evalErr("literal", err)
		}
		if d.IsInteger() {
			if i, err := d.Int64(); err == nil {
				return Int(i), nil
			}
		}
		return Dec{D: d}, nil
	case ast.LitString:
		return Str(l.Text), nil
	case ast.LitBool:
		return Bool(l.Bool), nil
	case ast.LitNull:
		return Null{}, nil
	}
	return Null{}, nil
}

// evalIdentifier implements the name resolution order of spec §4.4:
// scope chain, then $this property, then aggregate builtins, then the
// $-prefixed builtin table, then Undefined.
func (it *Interpreter) evalIdentifier(id *ast.Identifier, scope *Scope) (Value, error) {
	if v, ok := scope.Lookup(id.Name); ok {
		return v, nil
	}
	if this, ok := scope.This(); ok {
		v, err := it.GetProperty(this, id.Name)
		if err == nil && !isMissingProperty(v) {
			return v, nil
		}
	}
	if fn, ok := it.aggregates[id.Name]; ok {
		return fn, nil
	}
	if fn, ok := it.builtins[id.Name]; ok {
		return fn, nil
	}
	return Undefined{}, nil
}

// isMissingProperty distinguishes "$this has no such property" (fall
// through to builtins) from a real Undefined value stored on $this.
// Since GetProperty already returns Undefined for missing keys, and there
// is no way to store an explicit Undefined in a document, treating
// Undefined as "missing" here is safe and matches the spec's intent.
func isMissingProperty(v Value) bool {
	_, ok := v.(Undefined)
	return ok
}

// GetProperty reads a named property off v, auto-memoizing directive
// values found on Objects (spec §4.4 "Auto-memoization").
func (it *Interpreter) GetProperty(v Value, name string) (Value, error) {
	switch t := v.(type) {
	case *Object:
		return it.getObjectProperty(t, name)
	case Array:
		return it.arrayProperty(t, name)
	case Str:
		return it.stringProperty(t, name)
	case Quantity:
		return it.quantityProperty(t, name)
	case Null, Undefined, nil:
		return Undefined{}, nil
	default:
		return Undefined{}, nil
	}
}

func (it *Interpreter) arrayProperty(a Array, name string) (Value, error) {
	if name == "length" {
		return Int(len(a)), nil
	}
	return Undefined{}, nil
}

func (it *Interpreter) stringProperty(s Str, name string) (Value, error) {
	if name == "length" {
		return Int(len([]rune(string(s)))), nil
	}
	return Undefined{}, nil
}

func (it *Interpreter) quantityProperty(q Quantity, name string) (Value, error) {
	switch name {
	case "magnitude":
		return Dec{D: q.Q.Magnitude}, nil
	case "unit":
		return Str(q.Q.Unit.Name), nil
	}
	return Undefined{}, nil
}

// getObjectProperty implements auto-memoization: a directive value
// (an Object carrying "@expr") is lazily evaluated with the containing
// object bound as $this, cached, and returned on every subsequent read.
func (it *Interpreter) getObjectProperty(o *Object, name string) (Value, error) {
	if v, ok := o.cache[name]; ok {
		return v, nil
	}
	raw, ok := o.Raw(name)
	if !ok {
		return Undefined{}, nil
	}
	if directive, exprSrc, ok := asExprDirective(raw); ok {
		node, err := parseCached(exprSrc)
		if err != nil {
			return nil, evalErr("property "+name, err)
		}
		scope := NewScope()
		scope.Bind("$this", o)
		val, err := it.Eval(node, scope)
		if err != nil {
			return nil, err
		}
		it.memoize(o, name, val)
		_ = directive
		return val, nil
	}
	return raw, nil
}

func (it *Interpreter) memoize(o *Object, name string, v Value) {
	if o.cache == nil {
		o.cache = map[string]Value{}
		o.cached = map[string]bool{}
	}
	o.cache[name] = v
	o.cached[name] = true
}

// asExprDirective reports whether v is an Object carrying a string
// "@expr" key, and returns that expression source.
func asExprDirective(v Value) (*Object, string, bool) {
	obj, ok := v.(*Object)
	if !ok {
		return nil, "", false
	}
	raw, ok := obj.Raw("@expr")
	if !ok {
		return nil, "", false
	}
	src, ok := raw.(Str)
	if !ok {
		return nil, "", false
	}
	return obj, string(src), true
}

func (it *Interpreter) evalIndex(n *ast.Index, scope *Scope) (Value, error) {
	x, err := it.Eval(n.X, scope)
	if err != nil {
		return nil, err
	}
	idx, err := it.Eval(n.Index, scope)
	if err != nil {
		return nil, err
	}
	switch t := x.(type) {
	case Array:
		i, ok := AsDecimal(idx)
		if !ok {
			return nil, evalErr("index", fmt.Errorf("%w: array index must be numeric", ErrType))
		}
		iv, _ := i.Int64()
		if iv < 0 {
			iv += int64(len(t))
		}
		if iv < 0 || iv >= int64(len(t)) {
			return Undefined{}, nil
		}
		return t[iv], nil
	case *Object:
		key, ok := idx.(Str)
		if !ok {
			return nil, evalErr("index", fmt.Errorf("%w: object index must be string", ErrType))
		}
		return it.GetProperty(t, string(key))
	case Str:
		i, ok := AsDecimal(idx)
		if !ok {
			return nil, evalErr("index", fmt.Errorf("%w: string index must be numeric", ErrType))
		}
		iv, _ := i.Int64()
		runes := []rune(string(t))
		if iv < 0 {
			iv += int64(len(runes))
		}
		if iv < 0 || iv >= int64(len(runes)) {
			return Undefined{}, nil
		}
		return Str(runes[iv]), nil
	default:
		return Undefined{}, nil
	}
}

// evalCall implements: callee must be callable; when the callee is a
// member expression, its receiver becomes `this` (spec §4.4).
func (it *Interpreter) evalCall(n *ast.Call, scope *Scope) (Value, error) {
	var callee Value
	var this Value = Undefined{}
	var err error

	if member, ok := n.Callee.(*ast.Member); ok {
		this, err = it.Eval(member.X, scope)
		if err != nil {
			return nil, err
		}
		callee, err = it.GetProperty(this, member.Name)
		if err != nil {
			return nil, err
		}
	} else {
		callee, err = it.Eval(n.Callee, scope)
		if err != nil {
			return nil, err
		}
	}

	fn, ok := callee.(*Function)
	if !ok {
		return nil, evalErr("call", fmt.Errorf("%w: %s", ErrNotCallable, describeCallee(n.Callee)))
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := it.Eval(a, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	return it.Apply(fn, this, args)
}

func describeCallee(n ast.Node) string {
	switch t := n.(type) {
	case *ast.Identifier:
		return t.Name
	case *ast.Member:
		return t.Name
	default:
		return "<expr>"
	}
}

// Apply invokes fn (builtin or closure) with the given receiver and
// arguments.
func (it *Interpreter) Apply(fn *Function, this Value, args []Value) (Value, error) {
	if fn.Builtin != nil {
		v, err := fn.Builtin(it, this, args)
		if err != nil {
			return nil, evalErr("$"+fn.Name, err)
		}
		return v, nil
	}

	callScope := fn.Closure.Child()
	callScope.Bind("$this", this)
	for i, p := range fn.Params {
		if i < len(args) {
			callScope.Bind(p, args[i])
		} else {
			callScope.Bind(p, Undefined{})
		}
	}
	return it.Eval(fn.Body, callScope)
}
