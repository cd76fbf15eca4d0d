package core

// values.go converts between external values and stored field values.
//
// Stored values are restricted to string, float64 and nil. Values coming
// from JSON bodies or Go callers are normalized once on the way in so the
// view pipeline and CSV adapter only ever see those three types.

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeValue converts v to a stored value.
// Integers and json.Number become float64, booleans become "true"/"false".
func NormalizeValue(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return normalizeNewlines(x), nil
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return f, nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// NewFields normalizes every value in m. The "id" key is dropped since
// identifiers are always generated.
func NewFields(m map[string]any) (Fields, error) {
	out := make(Fields, len(m))
	for k, v := range m {
		if k == "id" {
			continue
		}
		nv, err := NormalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeNewlines converts CRLF and lone CR line breaks to LF. Stored
// text never contains CR, so a CSV round trip returns it unchanged.
func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	return newlineReplacer.Replace(s)
}

// storedFields returns a copy of f with line breaks in text normalized.
func storedFields(f Fields) Fields {
	out := f.Clone()
	for k, v := range out {
		if s, ok := v.(string); ok {
			out[k] = normalizeNewlines(s)
		}
	}
	return out
}

// FormatValue returns the text form of a stored value. Nil reads as "".
func FormatValue(v Value) string {
	s, _ := primitiveString(v)
	return s
}

// primitiveString stringifies a primitive value.
// ok is false for nil and for anything that is not a string or number.
func primitiveString(v Value) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return formatNumber(x), true
	case nil:
		return "", false
	default:
		nv, err := NormalizeValue(v)
		if err != nil || nv == nil {
			return "", false
		}
		return primitiveString(nv)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return formatExponent(f)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatExponent writes f in shortest exponent form with an unpadded,
// signed exponent: 1e+21, 1.5e-7.
func formatExponent(f float64) string {
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// parseNumber parses s the way a form field is read as a number:
// surrounding whitespace is ignored and a blank string reads as 0.
// ok is false unless the result is finite.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
