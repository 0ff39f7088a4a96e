package interp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/lang/parser"
	"github.com/roach88/ldc/internal/units"
)

func (it *Interpreter) evalUnary(n *ast.Unary, scope *Scope) (Value, error) {
	v, err := it.Eval(n.X, scope)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "!", "not":
		return Bool(!Truthy(v)), nil
	case "-":
		switch t := v.(type) {
		case Int:
			return Int(-t), nil
		case Dec:
			return Dec{D: decimal.Neg(t.D)}, nil
		case Quantity:
			q, err := units.Scale(decimal.New(-1), t.Q)
			if err != nil {
				return nil, evalErr("unary -", err)
			}
			return Quantity{Q: q}, nil
		default:
			return nil, evalErr("unary -", fmt.Errorf("%w: cannot negate %s", ErrType, TypeName(v)))
		}
	case "+":
		if !IsNumeric(v) {
			return nil, evalErr("unary +", fmt.Errorf("%w: %s is not numeric", ErrType, TypeName(v)))
		}
		return v, nil
	default:
		return nil, evalErr("unary", fmt.Errorf("%w: unknown operator %q", ErrType, n.Op))
	}
}

// evalBinary dispatches arithmetic, comparison, logical and
// nullish-coalescing operators (spec §4.4).
func (it *Interpreter) evalBinary(n *ast.Binary, scope *Scope) (Value, error) {
	switch n.Op {
	case "&&", "and":
		l, err := it.Eval(n.L, scope)
		if err != nil {
			return nil, err
		}
		if !Truthy(l) {
			return l, nil
		}
		return it.Eval(n.R, scope)
	case "||", "or":
		l, err := it.Eval(n.L, scope)
		if err != nil {
			return nil, err
		}
		if Truthy(l) {
			return l, nil
		}
		return it.Eval(n.R, scope)
	case "??":
		l, err := it.Eval(n.L, scope)
		if err != nil {
			return nil, err
		}
		if !IsNullish(l) {
			return l, nil
		}
		return it.Eval(n.R, scope)
	}

	l, err := it.Eval(n.L, scope)
	if err != nil {
		return nil, err
	}
	r, err := it.Eval(n.R, scope)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "+":
		return it.add(l, r)
	case "-":
		return it.sub(l, r)
	case "*":
		return it.mul(l, r)
	case "/":
		return it.div(l, r)
	case "%":
		return it.mod(l, r)
	case "**":
		return it.pow(l, r)
	case "==":
		return Bool(equalValue(l, r)), nil
	case "!=":
		return Bool(!equalValue(l, r)), nil
	case "<", "<=", ">", ">=":
		return it.compare(n.Op, l, r)
	default:
		return nil, evalErr("binary", fmt.Errorf("%w: unknown operator %q", ErrType, n.Op))
	}
}

// add implements string concatenation when either side is a string,
// quantity addition when both sides are quantities, and decimal addition
// otherwise (spec §4.2, §4.4).
func (it *Interpreter) add(l, r Value) (Value, error) {
	if ls, ok := l.(Str); ok {
		return Str(string(ls) + stringify(r)), nil
	}
	if rs, ok := r.(Str); ok {
		return Str(stringify(l) + string(rs)), nil
	}
	if lq, ok := l.(Quantity); ok {
		rq, ok := r.(Quantity)
		if !ok {
			return nil, evalErr("+", fmt.Errorf("%w: cannot add quantity and %s", ErrType, TypeName(r)))
		}
		q, err := units.Add(lq.Q, rq.Q)
		if err != nil {
			return nil, evalErr("+", err)
		}
		return Quantity{Q: q}, nil
	}
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr("+", fmt.Errorf("%w: cannot add %s and %s", ErrType, TypeName(l), TypeName(r)))
	}
	sum, err := decimal.Add(ld, rd)
	if err != nil {
		return nil, evalErr("+", err)
	}
	return wrapNumeric(sum), nil
}

func (it *Interpreter) sub(l, r Value) (Value, error) {
	if lq, ok := l.(Quantity); ok {
		rq, ok := r.(Quantity)
		if !ok {
			return nil, evalErr("-", fmt.Errorf("%w: cannot subtract %s from quantity", ErrType, TypeName(r)))
		}
		q, err := units.Sub(lq.Q, rq.Q)
		if err != nil {
			return nil, evalErr("-", err)
		}
		return Quantity{Q: q}, nil
	}
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr("-", fmt.Errorf("%w: cannot subtract %s and %s", ErrType, TypeName(l), TypeName(r)))
	}
	diff, err := decimal.Sub(ld, rd)
	if err != nil {
		return nil, evalErr("-", err)
	}
	return wrapNumeric(diff), nil
}

func (it *Interpreter) mul(l, r Value) (Value, error) {
	if lq, ok := l.(Quantity); ok {
		if rq, ok := r.(Quantity); ok {
			q, err := units.Mul(lq.Q, rq.Q)
			if err != nil {
				return nil, evalErr("*", err)
			}
			return Quantity{Q: q}, nil
		}
		rd, ok := AsDecimal(r)
		if !ok {
			return nil, evalErr("*", fmt.Errorf("%w: cannot multiply quantity by %s", ErrType, TypeName(r)))
		}
		q, err := units.Scale(rd, lq.Q)
		if err != nil {
			return nil, evalErr("*", err)
		}
		return Quantity{Q: q}, nil
	}
	if rq, ok := r.(Quantity); ok {
		ld, ok := AsDecimal(l)
		if !ok {
			return nil, evalErr("*", fmt.Errorf("%w: cannot multiply %s by quantity", ErrType, TypeName(l)))
		}
		q, err := units.Scale(ld, rq.Q)
		if err != nil {
			return nil, evalErr("*", err)
		}
		return Quantity{Q: q}, nil
	}
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr("*", fmt.Errorf("%w: cannot multiply %s and %s", ErrType, TypeName(l), TypeName(r)))
	}
	prod, err := decimal.Mul(ld, rd)
	if err != nil {
		return nil, evalErr("*", err)
	}
	return wrapNumeric(prod), nil
}

func (it *Interpreter) div(l, r Value) (Value, error) {
	if lq, ok := l.(Quantity); ok {
		if rq, ok := r.(Quantity); ok {
			q, err := units.Div(lq.Q, rq.Q)
			if err != nil {
				return nil, evalErr("/", err)
			}
			return Quantity{Q: q}, nil
		}
		rd, ok := AsDecimal(r)
		if !ok {
			return nil, evalErr("/", fmt.Errorf("%w: cannot divide quantity by %s", ErrType, TypeName(r)))
		}
		if rd.IsZero() {
			return nil, evalErr("/", ErrDivByZero)
		}
		q, err := units.Scale(decReciprocal(rd), lq.Q)
		if err != nil {
			return nil, evalErr("/", err)
		}
		return Quantity{Q: q}, nil
	}
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr("/", fmt.Errorf("%w: cannot divide %s and %s", ErrType, TypeName(l), TypeName(r)))
	}
	q, err := decimal.Div(ld, rd)
	if err != nil {
		return nil, evalErr("/", err)
	}
	return wrapNumeric(q), nil
}

func (it *Interpreter) mod(l, r Value) (Value, error) {
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr("%", fmt.Errorf("%w: cannot mod %s and %s", ErrType, TypeName(l), TypeName(r)))
	}
	if rd.IsZero() {
		return nil, evalErr("%", ErrDivByZero)
	}
	q, err := decimal.Div(ld, rd)
	if err != nil {
		return nil, evalErr("%", err)
	}
	trunc := decimal.Truncate(q, 0)
	prod, err := decimal.Mul(trunc, rd)
	if err != nil {
		return nil, evalErr("%", err)
	}
	rem, err := decimal.Sub(ld, prod)
	if err != nil {
		return nil, evalErr("%", err)
	}
	return wrapNumeric(rem), nil
}

func (it *Interpreter) pow(l, r Value) (Value, error) {
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr("**", fmt.Errorf("%w: cannot raise %s to %s", ErrType, TypeName(l), TypeName(r)))
	}
	q, err := decimal.Pow(ld, rd)
	if err != nil {
		return nil, evalErr("**", err)
	}
	return wrapNumeric(q), nil
}

func (it *Interpreter) compare(op string, l, r Value) (Value, error) {
	if ls, ok := l.(Str); ok {
		rs, ok := r.(Str)
		if !ok {
			return nil, evalErr(op, fmt.Errorf("%w: cannot compare string and %s", ErrType, TypeName(r)))
		}
		c := strings.Compare(string(ls), string(rs))
		return Bool(applyCmp(op, c)), nil
	}
	if lq, ok := l.(Quantity); ok {
		rq, ok := r.(Quantity)
		if !ok {
			return nil, evalErr(op, fmt.Errorf("%w: cannot compare quantity and %s", ErrType, TypeName(r)))
		}
		c, err := units.Cmp(lq.Q, rq.Q)
		if err != nil {
			return nil, evalErr(op, err)
		}
		return Bool(applyCmp(op, c)), nil
	}
	ld, lok := AsDecimal(l)
	rd, rok := AsDecimal(r)
	if !lok || !rok {
		return nil, evalErr(op, fmt.Errorf("%w: cannot compare %s and %s", ErrType, TypeName(l), TypeName(r)))
	}
	return Bool(applyCmp(op, decimal.Cmp(ld, rd))), nil
}

func applyCmp(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

// equalValue implements `==`/`!=` across the value union. Cross-type
// comparisons (other than the nullish pair) are always unequal.
func equalValue(l, r Value) bool {
	if IsNullish(l) && IsNullish(r) {
		return true
	}
	if IsNullish(l) != IsNullish(r) {
		return false
	}
	switch lt := l.(type) {
	case Bool:
		rt, ok := r.(Bool)
		return ok && lt == rt
	case Str:
		rt, ok := r.(Str)
		return ok && lt == rt
	case Int, Dec:
		rd, rok := AsDecimal(r)
		ld, lok := AsDecimal(l)
		return lok && rok && decimal.Cmp(ld, rd) == 0
	case Quantity:
		rt, ok := r.(Quantity)
		if !ok {
			return false
		}
		c, err := units.Cmp(lt.Q, rt.Q)
		return err == nil && c == 0
	default:
		return false
	}
}

// wrapNumeric narrows an arithmetic result back to Int when it is an
// exact integer, matching evalLiteral so "2 + 3" and "5" canonicalize
// identically.
func wrapNumeric(d decimal.Decimal) Value {
	if d.IsInteger() {
		if i, err := d.Int64(); err == nil {
			return Int(i)
		}
	}
	return Dec{D: d}
}

// decReciprocal returns 1/d for quantity scalar division.
func decReciprocal(d decimal.Decimal) decimal.Decimal {
	q, err := decimal.Div(decimal.New(1), d)
	if err != nil {
		return decimal.New(0)
	}
	return q
}

func stringify(v Value) string {
	switch t := v.(type) {
	case Str:
		return string(t)
	case Int:
		return fmt.Sprintf("%d", int64(t))
	case Dec:
		return t.D.String()
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Null, Undefined:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

var (
	exprCacheMu sync.Mutex
	exprCache   = map[string]ast.Node{}
)

// parseCached memoizes parses of directive expression source across the
// whole process, since the same @expr text is frequently re-parsed across
// sibling objects in a document.
func parseCached(src string) (ast.Node, error) {
	exprCacheMu.Lock()
	if n, ok := exprCache[src]; ok {
		exprCacheMu.Unlock()
		return n, nil
	}
	exprCacheMu.Unlock()

	n, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	exprCacheMu.Lock()
	exprCache[src] = n
	exprCacheMu.Unlock()
	return n, nil
}
