package evidence

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// canonicalJSON serializes a value to the canonical form used for entry
// hashing: lexicographically sorted keys, "," and ":" separators with no
// whitespace, ASCII-only string escapes, and shortest round-trip float
// representation. The output is byte-identical for equal inputs regardless
// of map iteration order.
func canonicalJSON(v any) ([]byte, error) {
	var sb strings.Builder
	if err := writeCanonical(&sb, v); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

func writeCanonical(sb *strings.Builder, v any) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		writeCanonicalString(sb, val)
	case float64:
		s, err := canonicalFloat(val)
		if err != nil {
			return err
		}
		sb.WriteString(s)
	case float32:
		return writeCanonical(sb, float64(val))
	case int:
		sb.WriteString(strconv.Itoa(val))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(val, 10))
	case json.Number:
		sb.WriteString(val.String())
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonicalString(sb, k)
			sb.WriteByte(':')
			if err := writeCanonical(sb, val[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			if err := writeCanonical(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return writeCanonical(sb, items)
	default:
		// Uncommon types (structs, typed maps) go through a JSON round-trip
		// so the canonical writer only ever sees the shapes above.
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("canonical json: unsupported value %T: %w", val, err)
		}
		dec := json.NewDecoder(strings.NewReader(string(raw)))
		dec.UseNumber()
		var generic any
		if err := dec.Decode(&generic); err != nil {
			return fmt.Errorf("canonical json: %w", err)
		}
		return writeCanonical(sb, generic)
	}
	return nil
}

// writeCanonicalString escapes a string the way ubiquitous JSON producers
// with ASCII-only output do: `"` and `\` get backslash escapes, control
// characters get short escapes or \u00xx, and all non-ASCII runes become
// \uXXXX (surrogate pairs above the BMP).
func writeCanonicalString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\t':
			sb.WriteString(`\t`)
		case '\n':
			sb.WriteString(`\n`)
		case '\f':
			sb.WriteString(`\f`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r >= 0x20 && r <= 0x7e {
				sb.WriteRune(r)
			} else if r <= 0xffff {
				fmt.Fprintf(sb, `\u%04x`, r)
			} else {
				// Surrogate pair.
				r -= 0x10000
				fmt.Fprintf(sb, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			}
		}
	}
	sb.WriteByte('"')
}

// canonicalFloat renders a float using the shortest decimal digits that
// round-trip, switching to exponent notation below 1e-4 and at or above
// 1e16. Integral values keep a trailing ".0" so 3.0 and 3 hash differently.
func canonicalFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("canonical json: non-finite float %v", f)
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0", nil
		}
		return "0.0", nil
	}

	// Shortest round-trip digits in exponent form, e.g. "1.7245e+09".
	sci := strconv.FormatFloat(f, 'e', -1, 64)

	neg := false
	if sci[0] == '-' {
		neg = true
		sci = sci[1:]
	}
	eIdx := strings.IndexByte(sci, 'e')
	mantissa := sci[:eIdx]
	exp, err := strconv.Atoi(sci[eIdx+1:])
	if err != nil {
		return "", fmt.Errorf("canonical json: parse exponent of %q: %w", sci, err)
	}
	digits := strings.Replace(mantissa, ".", "", 1)

	var out string
	switch {
	case exp < -4 || exp >= 16:
		m := digits[:1]
		if len(digits) > 1 {
			m += "." + digits[1:]
		}
		out = fmt.Sprintf("%se%+03d", m, exp)
	case exp >= 0:
		if exp+1 >= len(digits) {
			out = digits + strings.Repeat("0", exp+1-len(digits)) + ".0"
		} else {
			out = digits[:exp+1] + "." + digits[exp+1:]
		}
	default:
		out = "0." + strings.Repeat("0", -exp-1) + digits
	}
	if neg {
		out = "-" + out
	}
	return out, nil
}
