// Package canon implements RFC 8785-flavored canonical JSON and the
// HMAC-SHA256 signable-payload format described in spec §4.11: sorted
// object keys, no insignificant whitespace, NFC-normalized strings, and
// exact decimal numbers rendered without exponential notation.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ldc/internal/decimal"
)

// Value is anything canon can serialize: the primitive JSON shapes plus
// the two domain extensions (Decimal, time.Time) that standard
// encoding/json cannot render deterministically.
type Value any

// Marshal produces canonical JSON bytes for v. Floats are rejected:
// every numeric value in the evaluator's output is either an int64 or a
// decimal.Decimal, so a float reaching here is a caller bug.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case int:
		fmt.Fprintf(buf, "%d", t)
		return nil
	case int64:
		fmt.Fprintf(buf, "%d", t)
		return nil
	case decimal.Decimal:
		buf.WriteString(t.CanonicalText())
		return nil
	case float64, float32:
		return fmt.Errorf("canon: floats are forbidden in canonical JSON: %v", t)
	case string:
		return encodeString(buf, t)
	case time.Time:
		return encodeString(buf, t.UTC().Format(time.RFC3339Nano))
	case []Value:
		return encodeArray(buf, t)
	case map[string]Value:
		return encodeObject(buf, t)
	default:
		return encodeReflective(buf, v)
	}
}

// encodeReflective handles []any and map[string]any produced by generic
// callers (e.g. json.Unmarshal output) without requiring every caller to
// convert to canon.Value first.
func encodeReflective(buf *bytes.Buffer, v Value) error {
	switch t := v.(type) {
	case []any:
		arr := make([]Value, len(t))
		for i, e := range t {
			arr[i] = e
		}
		return encodeArray(buf, arr)
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = e
		}
		return encodeObject(buf, obj)
	default:
		return fmt.Errorf("canon: unsupported type %T", v)
	}
}

func encodeArray(buf *bytes.Buffer, arr []Value) error {
	buf.WriteByte('[')
	for i, e := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, e); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]Value) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sortKeysUTF16(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := encode(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// sortKeysUTF16 sorts keys by UTF-16 code unit per RFC 8785, matching
// the ordering JavaScript's Object.keys produces for non-numeric keys.
func sortKeysUTF16(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		return less16(keys[i], keys[j])
	})
}

func less16(a, b string) bool {
	ua, ub := utf16Units(a), utf16Units(b)
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			return ua[i] < ub[i]
		}
	}
	return len(ua) < len(ub)
}

func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		} else {
			units = append(units, uint16(r))
		}
	}
	return units
}

// encodeString writes s as a canonical JSON string: NFC normalized, no
// HTML escaping, and with U+2028/U+2029 left unescaped (spec §4.11,
// ported from the teacher's canonical JSON encoder).
func encodeString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var inner bytes.Buffer
	enc := json.NewEncoder(&inner)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	out := inner.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	out = unescapeLineSeparators(out)
	buf.Write(out)
	return nil
}

// unescapeLineSeparators reverses json.Encoder's  /  escaping,
// which RFC 8785 forbids, while leaving a literal ` ` text sequence
// (an even run of preceding backslashes) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	var out []byte
	i := 0
	for i < len(data) {
		if i+6 <= len(data) && data[i] == '\\' && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := i - 1; j >= 0 && data[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if out == nil {
					out = make([]byte, 0, len(data))
					out = append(out, data[:i]...)
				}
				if data[i+5] == '8' {
					out = append(out, " "...)
				} else {
					out = append(out, " "...)
				}
				i += 6
				continue
			}
		}
		if out != nil {
			out = append(out, data[i])
		}
		i++
	}
	if out == nil {
		return data
	}
	return out
}
