package interp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/ldc/internal/decimal"
)

// DecodeDocument parses raw JSON into an interpreter Value tree, routing
// every number through json.Number and then the decimal package so
// "100000" and "100000.0" both land on exact decimals instead of a
// float64 round trip (SPEC_FULL §5, ported from the teacher's
// json.Number discipline in internal/ir/value.go).
func DecodeDocument(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("interp: decode document: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		d, err := decimal.Parse(t.String())
		if err != nil {
			return nil, fmt.Errorf("interp: decode number %q: %w", t.String(), err)
		}
		if d.IsInteger() {
			if i, err := d.Int64(); err == nil {
				return Int(i), nil
			}
		}
		return Dec{D: d}, nil
	case []any:
		arr := make(Array, len(t))
		for i, e := range t {
			v, err := fromRaw(e)
			if err != nil {
				return nil, err
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		obj := NewObject()
		for _, k := range orderedKeys(t) {
			v, err := fromRaw(t[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("interp: decode document: unsupported type %T", raw)
	}
}

// orderedKeys returns m's keys sorted for determinism. encoding/json
// erases source key order for map[string]any, so any fixed order is as
// good as any other; the indexer relies on the document's *own*
// canonical-JSON re-sort for output determinism, not on this order.
func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
