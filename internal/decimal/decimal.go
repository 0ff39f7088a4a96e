// Package decimal provides the exact base-10 numeric type used throughout
// the evaluator. It wraps cockroachdb/apd/v3 so arithmetic never touches
// float64 and rounding is deterministic (banker's rounding, half-to-even).
package decimal

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Precision is the working precision for all decimal arithmetic. 40 digits
// comfortably covers currency/quantity math without meaningful truncation.
const Precision = 40

// Decimal is an arbitrary-precision base-10 number.
type Decimal struct {
	v *apd.Decimal
}

// context returns a fresh apd.Context configured with banker's rounding.
// apd.Context is not safe for concurrent reuse across goroutines, so each
// operation gets its own.
func context() *apd.Context {
	return &apd.Context{
		Precision:   Precision,
		MaxExponent: apd.MaxExponent,
		MinExponent: apd.MinExponent,
		Rounding:    apd.RoundHalfEven,
	}
}

// Zero is the additive identity.
var Zero = New(0)

// New constructs a Decimal from an int64.
func New(n int64) Decimal {
	return Decimal{v: apd.New(n, 0)}
}

// Parse reads a decimal literal (e.g. "115000", "-0.15", "1.5e3") exactly,
// without any float64 round trip.
func Parse(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal: parse %q: %w", s, err)
	}
	return Decimal{v: d}, nil
}

// MustParse is Parse but panics on error. Intended for literals known
// at compile time (tests, builtin tables).
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) apd() *apd.Decimal {
	if d.v == nil {
		return apd.New(0, 0)
	}
	return d.v
}

// ErrDivByZero is returned by Div when the divisor is zero.
// Callers map this to the diagnostic code LDC_DIV_BY_ZERO / "div.by_zero".
var ErrDivByZero = fmt.Errorf("div.by_zero")

// Add returns a+b.
func Add(a, b Decimal) (Decimal, error) {
	var r apd.Decimal
	_, err := context().Add(&r, a.apd(), b.apd())
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{v: &r}, nil
}

// Sub returns a-b.
func Sub(a, b Decimal) (Decimal, error) {
	var r apd.Decimal
	_, err := context().Sub(&r, a.apd(), b.apd())
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{v: &r}, nil
}

// Mul returns a*b, with trailing zeros removed (100000 * 1.15 is 115000).
func Mul(a, b Decimal) (Decimal, error) {
	var r apd.Decimal
	_, err := context().Mul(&r, a.apd(), b.apd())
	if err != nil {
		return Decimal{}, err
	}
	r.Reduce(&r)
	return Decimal{v: &r}, nil
}

// Div returns a/b, with trailing zeros removed (100000 / 4 is 25000).
// Returns ErrDivByZero if b is zero.
func Div(a, b Decimal) (Decimal, error) {
	if b.IsZero() {
		return Decimal{}, ErrDivByZero
	}
	var r apd.Decimal
	_, err := context().Quo(&r, a.apd(), b.apd())
	if err != nil {
		return Decimal{}, err
	}
	r.Reduce(&r)
	return Decimal{v: &r}, nil
}

// Pow returns a**b. b must be representable as an integer exponent for
// non-integer bases; apd supports general power via Pow.
func Pow(a, b Decimal) (Decimal, error) {
	var r apd.Decimal
	_, err := context().Pow(&r, a.apd(), b.apd())
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal: pow: %w", err)
	}
	return Decimal{v: &r}, nil
}

// Neg returns -a.
func Neg(a Decimal) Decimal {
	var r apd.Decimal
	r.Neg(a.apd())
	return Decimal{v: &r}
}

// Cmp returns -1, 0, or 1 as a<b, a==b, a>b.
func Cmp(a, b Decimal) int {
	return a.apd().Cmp(b.apd())
}

// Equal reports whether a and b have the same numeric value (2.0 == 2).
func Equal(a, b Decimal) bool {
	return Cmp(a, b) == 0
}

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool {
	return d.apd().IsZero()
}

// Sign returns -1, 0, or 1.
func (d Decimal) Sign() int {
	return d.apd().Sign()
}

// Round rounds to dp decimal places using banker's rounding.
func Round(d Decimal, dp int32) Decimal {
	var r apd.Decimal
	ctx := context()
	ctx.Rounding = apd.RoundHalfEven
	_, _ = ctx.Quantize(&r, d.apd(), -dp)
	return Decimal{v: &r}
}

// Truncate truncates (toward zero) to dp decimal places without rounding.
// Used for currency quantity serialization (5dp truncation, see spec §6).
func Truncate(d Decimal, dp int32) Decimal {
	var r apd.Decimal
	ctx := context()
	ctx.Rounding = apd.RoundDown
	_, _ = ctx.Quantize(&r, d.apd(), -dp)
	return Decimal{v: &r}
}

// Floor returns the largest integer <= d.
func Floor(d Decimal) Decimal {
	var r apd.Decimal
	_, _ = context().Floor(&r, d.apd())
	return Decimal{v: &r}
}

// Ceil returns the smallest integer >= d.
func Ceil(d Decimal) Decimal {
	var r apd.Decimal
	_, _ = context().Ceil(&r, d.apd())
	return Decimal{v: &r}
}

// Abs returns |d|.
func Abs(d Decimal) Decimal {
	var r apd.Decimal
	r.Abs(d.apd())
	return Decimal{v: &r}
}

// Sqrt returns the square root of d.
func Sqrt(d Decimal) (Decimal, error) {
	var r apd.Decimal
	_, err := context().Sqrt(&r, d.apd())
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal: sqrt: %w", err)
	}
	return Decimal{v: &r}, nil
}

// Ln returns the natural logarithm of d.
func Ln(d Decimal) (Decimal, error) {
	var r apd.Decimal
	_, err := context().Ln(&r, d.apd())
	if err != nil {
		return Decimal{}, fmt.Errorf("decimal: ln: %w", err)
	}
	return Decimal{v: &r}, nil
}

// Int64 converts d to an int64, truncating any fractional part.
func (d Decimal) Int64() (int64, error) {
	i, err := d.apd().Int64()
	if err != nil {
		return 0, fmt.Errorf("decimal: not representable as int64: %w", err)
	}
	return i, nil
}

// Float64 converts d to a float64. Only used at the edges (e.g. handing a
// magnitude to golang.org/x/text/message for locale formatting) — never for
// arithmetic or canonicalization.
func (d Decimal) Float64() (float64, error) {
	f, err := d.apd().Float64()
	if err != nil {
		return 0, err
	}
	return f, nil
}

// IsInteger reports whether d has no fractional part.
func (d Decimal) IsInteger() bool {
	var r apd.Decimal
	_, _ = context().Floor(&r, d.apd())
	return r.Cmp(d.apd()) == 0
}

// String renders the exact decimal text (never exponential).
func (d Decimal) String() string {
	return d.apd().Text('f')
}

// CanonicalText renders the value for canonical JSON per spec §4.11:
// integers as-is, finite non-integers with up to 15 significant digits,
// never in exponential form.
func (d Decimal) CanonicalText() string {
	if d.IsInteger() {
		return d.apd().Text('f')
	}
	var rounded apd.Decimal
	ctx := context()
	ctx.Precision = 15
	_, _ = ctx.Round(&rounded, d.apd())
	return rounded.Text('f')
}
