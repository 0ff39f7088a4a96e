package eval

import (
	"fmt"

	"github.com/roach88/ldc/internal/canon"
	"github.com/roach88/ldc/internal/interp"
)

// ToCanonValue exposes toCanon to callers outside the package (the CLI's
// sign/verify commands need it to fold a freshly decoded document, not
// just a Result, into a canon.Value for SignablePayload.Document).
func ToCanonValue(v interp.Value) (canon.Value, error) {
	return toCanon(v)
}

// toCanon converts an interpreter Value into the plain-Go shape
// canon.Marshal accepts (map[string]any, []any, decimal.Decimal,
// time.Time, bool, string, int64, nil). Quantities have no canon.Value
// representation of their own, so they canonicalize as their serialized
// triple-object string (magnitude + unit, or currency-truncated form) —
// the same text a reader of the derived triples would see.
func toCanon(v interp.Value) (canon.Value, error) {
	switch t := v.(type) {
	case nil, interp.Null, interp.Undefined:
		return nil, nil
	case interp.Bool:
		return bool(t), nil
	case interp.Int:
		return int64(t), nil
	case interp.Dec:
		return t.D, nil
	case interp.Str:
		return string(t), nil
	case interp.Timestamp:
		return t.T, nil
	case interp.Quantity:
		s, _ := interp.Serialize(t)
		return s, nil
	case interp.Array:
		out := make([]canon.Value, len(t))
		for i, e := range t {
			cv, err := toCanon(e)
			if err != nil {
				return nil, fmt.Errorf("eval: canonicalize [%d]: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil
	case *interp.Object:
		out := make(map[string]canon.Value, t.Len())
		for _, k := range t.Keys() {
			raw, _ := t.Raw(k)
			cv, err := toCanon(raw)
			if err != nil {
				return nil, fmt.Errorf("eval: canonicalize %q: %w", k, err)
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("eval: value of type %T has no canonical form", v)
	}
}
