package interp

import (
	"strings"

	"github.com/roach88/ldc/internal/decimal"
	"github.com/roach88/ldc/internal/units"
)

// CoerceQuantityLiterals rewrites every string leaf shaped like "<decimal>
// <unit>" (e.g. "100 USD") into a Quantity, recursively, using reg to
// resolve the unit name. A string that doesn't split into exactly two
// space-separated tokens, or whose second token isn't a known unit, is
// left as an opaque Str (spec §4.2: unit parsing failure is undefined,
// not an error).
func CoerceQuantityLiterals(v Value, reg *units.Registry) Value {
	switch t := v.(type) {
	case Str:
		if q, ok := parseQuantityLiteral(string(t), reg); ok {
			return q
		}
		return t
	case Array:
		out := make(Array, len(t))
		for i, e := range t {
			out[i] = CoerceQuantityLiterals(e, reg)
		}
		return out
	case *Object:
		out := NewObject()
		for _, k := range t.Keys() {
			raw, _ := t.Raw(k)
			out.Set(k, CoerceQuantityLiterals(raw, reg))
		}
		return out
	default:
		return v
	}
}

func parseQuantityLiteral(s string, reg *units.Registry) (Quantity, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Quantity{}, false
	}
	mag, err := decimal.Parse(fields[0])
	if err != nil {
		return Quantity{}, false
	}
	unit, ok := reg.Get(fields[1])
	if !ok {
		return Quantity{}, false
	}
	return Quantity{Q: units.Quantity{Magnitude: mag, Unit: unit}}, true
}
