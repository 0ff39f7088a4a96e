package interp

import (
	"errors"
	"fmt"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/units"
)

// ErrDivByZero is re-exported for callers that want to errors.Is against
// decimal division without importing the decimal package directly.
var ErrDivByZero = decimal.ErrDivByZero

// ErrDimMismatch is re-exported analogously for unit dimension mismatches.
var ErrDimMismatch = units.ErrDimMismatch

// ErrNotCallable is returned when a Call's callee does not evaluate to a
// Function.
var ErrNotCallable = errors.New("value is not callable")

// ErrUndefined marks a name that resolved to nothing under §4.4's
// resolution order. It is not itself fatal (many contexts want the
// Undefined value back), but expressions that require a bound name surface
// it as an evaluation error.
var ErrUndefined = errors.New("undefined identifier")

// ErrArity is returned when a builtin or closure is called with the wrong
// number of arguments.
var ErrArity = errors.New("wrong number of arguments")

// ErrType is returned when an operator or builtin receives a value of the
// wrong runtime type.
var ErrType = errors.New("type error")

// EvalError wraps an evaluation failure with the AST context. The
// evaluator façade (C12) catches these and records diagnostic
// LDC_EXPR_ERR, continuing evaluation of the rest of the document (spec
// §4.4, §7).
type EvalError struct {
	Op  string
	Err error
}

func (e *EvalError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

func evalErr(op string, err error) error {
	return &EvalError{Op: op, Err: err}
}
