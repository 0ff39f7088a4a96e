package interp

import (
	"fmt"
	"strings"

	"github.com/roach88/ldc/internal/decimal"
)

// Serialize renders v as a triple object string per spec §6: numbers as
// decimal text, booleans as "true"/"false", strings verbatim, decimals
// via their canonical text, quantities with a single currency dimension
// truncated to 5dp with their currency code, other quantities as
// "<magnitude> <unit-name>". Arrays and objects never produce triples;
// ok is false for them (and for Null/Undefined, which are absent rather
// than emitted).
func Serialize(v Value) (string, bool) {
	switch t := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(t)), true
	case Dec:
		return t.D.CanonicalText(), true
	case Bool:
		if t {
			return "true", true
		}
		return "false", true
	case Str:
		return string(t), true
	case Timestamp:
		return t.T.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"), true
	case Quantity:
		return serializeQuantity(t), true
	default:
		return "", false
	}
}

// serializeQuantity implements the currency-truncation special case: a
// quantity whose dimension is exactly one currency exponent renders as
// "<5dp-truncated magnitude> <code>"; every other quantity renders as
// "<magnitude> <unit-name>".
func serializeQuantity(q Quantity) string {
	if code, ok := singleCurrencyCode(q); ok {
		truncated := decimal.Truncate(q.Q.Magnitude, 5)
		return truncated.CanonicalText() + " " + code
	}
	return q.Q.Magnitude.CanonicalText() + " " + q.Q.Unit.Name
}

func singleCurrencyCode(q Quantity) (string, bool) {
	dim := q.Q.Unit.Dim
	if len(dim) != 1 {
		return "", false
	}
	for k, exp := range dim {
		if exp != 1 || !strings.HasPrefix(k, "currency:") {
			return "", false
		}
		return strings.TrimPrefix(k, "currency:"), true
	}
	return "", false
}
