// Package units implements the unit registry, dimension vectors, compound
// unit parsing, and quantity arithmetic described in spec §4.2.
package units

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/ldc/internal/decimal"
)

// Dim is a dimension vector: dimension name -> exponent. A Dim with no
// entries (or only zero-exponent entries) is dimensionless.
type Dim map[string]int

// Equal reports whether two dimension vectors are equivalent, ignoring
// zero-exponent entries.
func (d Dim) Equal(o Dim) bool {
	return len(d.normalized()) == len(o.normalized()) && d.contains(o)
}

func (d Dim) contains(o Dim) bool {
	dn := d.normalized()
	on := o.normalized()
	for k, v := range on {
		if dn[k] != v {
			return false
		}
	}
	return true
}

func (d Dim) normalized() Dim {
	out := Dim{}
	for k, v := range d {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// Add returns the component-wise sum of two dimension vectors with
// zero-exponent keys removed (invariant in spec §4.2).
func (d Dim) Add(o Dim) Dim {
	out := Dim{}
	for k, v := range d {
		out[k] += v
	}
	for k, v := range o {
		out[k] += v
	}
	return out.normalized()
}

// Sub returns d - o, zero-exponent keys removed.
func (d Dim) Sub(o Dim) Dim {
	neg := Dim{}
	for k, v := range o {
		neg[k] = -v
	}
	return d.Add(neg)
}

// Scale multiplies every exponent by n, zero-exponent keys removed.
func (d Dim) Scale(n int) Dim {
	out := Dim{}
	for k, v := range d {
		out[k] = v * n
	}
	return out.normalized()
}

// Unit is an atomic or compound unit: a name, a dimension vector, and a
// linear (or affine, for temperature) conversion to/from its dimension's
// base representation.
type Unit struct {
	Name      string
	Dim       Dim
	Synthetic bool // true for units produced by mul/div, not looked up by name

	factor         decimal.Decimal // linear scale to base; unused when affine
	affine         bool
	affineToBase   func(decimal.Decimal) decimal.Decimal
	affineFromBase func(decimal.Decimal) decimal.Decimal
}

// ToBase converts a magnitude expressed in u to the dimension's base unit.
func (u *Unit) ToBase(x decimal.Decimal) decimal.Decimal {
	if u.affine {
		return u.affineToBase(x)
	}
	r, err := decimal.Mul(x, u.factor)
	if err != nil {
		return x
	}
	return r
}

// FromBase converts a magnitude expressed in the base unit to u.
func (u *Unit) FromBase(x decimal.Decimal) decimal.Decimal {
	if u.affine {
		return u.affineFromBase(x)
	}
	r, err := decimal.Div(x, u.factor)
	if err != nil {
		return x
	}
	return r
}

type atomicDef struct {
	dimName string
	factor  decimal.Decimal // multiply to get base value, base factor == 1
	affine  bool
	toBase  func(decimal.Decimal) decimal.Decimal
	fromBase func(decimal.Decimal) decimal.Decimal
}

// Registry holds atomic unit definitions and resolves compound unit names.
type Registry struct {
	atomics map[string]atomicDef
}

// NewRegistry builds the built-in registry described in spec §4.5 (Convert)
// and §4.2: length, mass, time, volume, temperature, plus one atomic unit
// per registered currency code.
func NewRegistry() *Registry {
	r := &Registry{atomics: map[string]atomicDef{}}
	r.registerLinear("length", "m", "1")
	r.registerLinear("length", "km", "1000")
	r.registerLinear("length", "cm", "0.01")
	r.registerLinear("length", "mm", "0.001")
	r.registerLinear("length", "in", "0.0254")
	r.registerLinear("length", "ft", "0.3048")
	r.registerLinear("length", "mi", "1609.344")

	r.registerLinear("mass", "g", "1")
	r.registerLinear("mass", "kg", "1000")
	r.registerLinear("mass", "mg", "0.001")
	r.registerLinear("mass", "lb", "453.59237")
	r.registerLinear("mass", "oz", "28.349523125")

	r.registerLinear("time", "s", "1")
	r.registerLinear("time", "ms", "0.001")
	r.registerLinear("time", "min", "60")
	r.registerLinear("time", "h", "3600")
	r.registerLinear("time", "d", "86400")

	r.registerLinear("volume", "L", "1")
	r.registerLinear("volume", "mL", "0.001")
	r.registerLinear("volume", "gal", "3.785411784")
	r.registerLinear("volume", "qt", "0.946352946")
	r.registerLinear("volume", "pt", "0.473176473")
	r.registerLinear("volume", "cup", "0.2365882365")
	r.registerLinear("volume", "floz", "0.0295735295625")

	// Temperature is affine: base is Kelvin.
	r.atomics["K"] = atomicDef{
		dimName: "temperature", affine: true,
		toBase:   func(x decimal.Decimal) decimal.Decimal { return x },
		fromBase: func(x decimal.Decimal) decimal.Decimal { return x },
	}
	r.atomics["C"] = atomicDef{
		dimName: "temperature", affine: true,
		toBase: func(x decimal.Decimal) decimal.Decimal {
			v, _ := decimal.Add(x, decimal.MustParse("273.15"))
			return v
		},
		fromBase: func(x decimal.Decimal) decimal.Decimal {
			v, _ := decimal.Sub(x, decimal.MustParse("273.15"))
			return v
		},
	}
	r.atomics["F"] = atomicDef{
		dimName: "temperature", affine: true,
		toBase: func(x decimal.Decimal) decimal.Decimal {
			// K = (F - 32) * 5/9 + 273.15
			v, _ := decimal.Sub(x, decimal.MustParse("32"))
			v, _ = decimal.Mul(v, decimal.MustParse("5"))
			v, _ = decimal.Div(v, decimal.MustParse("9"))
			v, _ = decimal.Add(v, decimal.MustParse("273.15"))
			return v
		},
		fromBase: func(x decimal.Decimal) decimal.Decimal {
			v, _ := decimal.Sub(x, decimal.MustParse("273.15"))
			v, _ = decimal.Mul(v, decimal.MustParse("9"))
			v, _ = decimal.Div(v, decimal.MustParse("5"))
			v, _ = decimal.Add(v, decimal.MustParse("32"))
			return v
		},
	}
	return r
}

func (r *Registry) registerLinear(dimName, name, factor string) {
	r.atomics[name] = atomicDef{dimName: dimName, factor: decimal.MustParse(factor)}
}

// RegisterCurrency registers an ISO currency code as its own atomic
// dimension ("currency:<code>"), factor 1. Currencies are incompatible
// with one another unless a caller explicitly converts (spec §4.5 Convert
// does not cover currency; the Composer/interpreter handle mismatches
// as LDC_UNIT_MISMATCH).
func (r *Registry) RegisterCurrency(code string) {
	dim := "currency:" + code
	r.atomics[code] = atomicDef{dimName: dim, factor: decimal.New(1)}
}

// List returns all registered atomic unit names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.atomics))
	for k := range r.atomics {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get resolves a unit name, atomic or compound. Parsing failure returns
// (nil, false) per spec §4.2 — callers treat the string as opaque, not an
// error.
func (r *Registry) Get(name string) (*Unit, bool) {
	if name == "1" || name == "" {
		return &Unit{Name: "1", Dim: Dim{}}, true
	}
	if def, ok := r.atomics[name]; ok {
		return &Unit{
			Name:           name,
			Dim:            Dim{def.dimName: 1},
			factor:         def.factor,
			affine:         def.affine,
			affineToBase:   def.toBase,
			affineFromBase: def.fromBase,
		}, true
	}
	return r.parseCompound(name)
}

// parseCompound implements: term (('*'|'/') term)*, term := name('^' int)?
func (r *Registry) parseCompound(name string) (*Unit, bool) {
	toks, ok := tokenizeUnit(name)
	if !ok || len(toks) == 0 {
		return nil, false
	}

	dim := Dim{}
	factor := decimal.New(1)
	sign := 1 // sign applied by preceding operator; first term is implicitly '*'

	i := 0
	for i < len(toks) {
		tname, exp, next, ok := parseTerm(toks, i)
		if !ok {
			return nil, false
		}
		def, ok := r.atomics[tname]
		if !ok || def.affine {
			// Affine (temperature) units cannot participate in compounds.
			return nil, false
		}
		e := exp * sign
		dim = dim.Add(Dim{def.dimName: e})
		f, err := decimal.Pow(def.factor, decimal.New(int64(e)))
		if err != nil {
			return nil, false
		}
		factor, err = decimal.Mul(factor, f)
		if err != nil {
			return nil, false
		}

		i = next
		if i >= len(toks) {
			break
		}
		op := toks[i]
		if op != "*" && op != "/" {
			return nil, false
		}
		if op == "/" {
			sign = -1
		} else {
			sign = 1
		}
		i++
	}

	return &Unit{Name: name, Dim: dim.normalized(), factor: factor}, true
}

// tokenizeUnit splits a compound unit string into name/^/int/*//  tokens.
func tokenizeUnit(s string) ([]string, bool) {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '*' || c == '/' || c == '^':
			toks = append(toks, string(c))
			i++
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		case c == '-' || (c >= '0' && c <= '9'):
			j := i
			if s[j] == '-' {
				j++
			}
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			if j == i || (j == i+1 && s[i] == '-') {
				return nil, false
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			return nil, false
		}
	}
	return toks, true
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// parseTerm parses `name('^' int)?` starting at toks[i]; returns name,
// exponent (default 1), and index just past the term.
func parseTerm(toks []string, i int) (string, int, int, bool) {
	if i >= len(toks) {
		return "", 0, i, false
	}
	name := toks[i]
	if !isIdentByte(name[0]) {
		return "", 0, i, false
	}
	i++
	if i < len(toks) && toks[i] == "^" {
		i++
		if i >= len(toks) {
			return "", 0, i, false
		}
		n, err := strconv.Atoi(toks[i])
		if err != nil {
			return "", 0, i, false
		}
		return name, n, i + 1, true
	}
	return name, 1, i, true
}

// Quantity is a magnitude paired with a unit, participating in dimensional
// arithmetic per spec §4.2.
type Quantity struct {
	Magnitude decimal.Decimal
	Unit      *Unit
}

// ErrDimMismatch is returned when add/sub is attempted between quantities
// of differing dimension.
var ErrDimMismatch = fmt.Errorf("dimension mismatch")

// Add implements quantity addition: requires equal dim vectors; magnitudes
// convert to base and combine; the result keeps a's unit.
func Add(a, b Quantity) (Quantity, error) {
	if !a.Unit.Dim.Equal(b.Unit.Dim) {
		return Quantity{}, ErrDimMismatch
	}
	aBase := a.Unit.ToBase(a.Magnitude)
	bBase := b.Unit.ToBase(b.Magnitude)
	sumBase, err := decimal.Add(aBase, bBase)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: a.Unit.FromBase(sumBase), Unit: a.Unit}, nil
}

// Sub implements quantity subtraction, symmetric to Add.
func Sub(a, b Quantity) (Quantity, error) {
	if !a.Unit.Dim.Equal(b.Unit.Dim) {
		return Quantity{}, ErrDimMismatch
	}
	aBase := a.Unit.ToBase(a.Magnitude)
	bBase := b.Unit.ToBase(b.Magnitude)
	diffBase, err := decimal.Sub(aBase, bBase)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: a.Unit.FromBase(diffBase), Unit: a.Unit}, nil
}

// baseUnit builds a synthetic, already-in-base unit for a given dimension.
func baseUnit(dim Dim) *Unit {
	return &Unit{Name: SyntheticName(dim), Dim: dim, Synthetic: true, factor: decimal.New(1)}
}

// Mul implements quantity multiplication: dim vectors add; magnitudes
// convert to base and combine.
func Mul(a, b Quantity) (Quantity, error) {
	aBase := a.Unit.ToBase(a.Magnitude)
	bBase := b.Unit.ToBase(b.Magnitude)
	prod, err := decimal.Mul(aBase, bBase)
	if err != nil {
		return Quantity{}, err
	}
	dim := a.Unit.Dim.Add(b.Unit.Dim)
	return Quantity{Magnitude: prod, Unit: baseUnit(dim)}, nil
}

// Div implements quantity division: dim vectors subtract; magnitudes
// convert to base and combine.
func Div(a, b Quantity) (Quantity, error) {
	aBase := a.Unit.ToBase(a.Magnitude)
	bBase := b.Unit.ToBase(b.Magnitude)
	quo, err := decimal.Div(aBase, bBase)
	if err != nil {
		return Quantity{}, err
	}
	dim := a.Unit.Dim.Sub(b.Unit.Dim)
	return Quantity{Magnitude: quo, Unit: baseUnit(dim)}, nil
}

// Scale multiplies a quantity's magnitude by a plain scalar, preserving
// its unit (spec §4.2: "scalar × quantity scales magnitude, preserves
// unit").
func Scale(scalar decimal.Decimal, q Quantity) (Quantity, error) {
	m, err := decimal.Mul(scalar, q.Magnitude)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: m, Unit: q.Unit}, nil
}

// Cmp compares two quantities of equal dimension by converting both to
// base representation. Returns ErrDimMismatch if dimensions differ.
func Cmp(a, b Quantity) (int, error) {
	if !a.Unit.Dim.Equal(b.Unit.Dim) {
		return 0, ErrDimMismatch
	}
	return decimal.Cmp(a.Unit.ToBase(a.Magnitude), b.Unit.ToBase(b.Magnitude)), nil
}

// SyntheticName reconstructs a compound unit name from a dimension vector,
// used to label the unit of a mul/div result and in serialization when the
// destination unit is opaque (spec §6).
func SyntheticName(dim Dim) string {
	if len(dim) == 0 {
		return "1"
	}
	keys := make([]string, 0, len(dim))
	for k := range dim {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pos, neg []string
	for _, k := range keys {
		e := dim[k]
		if e == 0 {
			continue
		}
		term := k
		if e != 1 && e != -1 {
			term = fmt.Sprintf("%s^%d", k, abs(e))
		}
		if e > 0 {
			pos = append(pos, term)
		} else {
			neg = append(neg, term)
		}
	}
	if len(pos) == 0 {
		pos = []string{"1"}
	}
	out := strings.Join(pos, "*")
	for _, n := range neg {
		out += "/" + n
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
