package value

import (
	"math"
	"strconv"
	"strings"
)

// Encode converts v to JSON text.
//
// Null entries inside maps and lists are omitted, map keys keep insertion
// order, strings only have backslash and double quote escaped, and
// timestamps are written as bare epoch milliseconds. A top-level Null, a
// nil Value or a non-finite Float fails with *UnsupportedValueTypeError.
func Encode(v Value) (string, error) {
	buf, err := AppendJSON(make([]byte, 0, 64), v)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// AppendJSON appends the JSON encoding of v to buf and returns the
// extended buffer. On error buf is returned unchanged.
func AppendJSON(buf []byte, v Value) ([]byte, error) {
	out, err := appendValue(buf, v)
	if err != nil {
		return buf, err
	}
	return out, nil
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return appendString(buf, string(val)), nil
	case Int:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case Float:
		return appendFloat(buf, float64(val))
	case Bool:
		return strconv.AppendBool(buf, bool(val)), nil
	case Timestamp:
		return strconv.AppendInt(buf, int64(val), 10), nil
	case *Map:
		return appendMap(buf, val)
	case List:
		return appendList(buf, val)
	default:
		// Null is only meaningful inside a container, where it is skipped.
		return buf, &UnsupportedValueTypeError{Kind: Kind(v)}
	}
}

// appendString quotes s, escaping only backslash and double quote.
func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	if !strings.ContainsAny(s, `\"`) {
		// nothing to escape, fast path
		buf = append(buf, s...)
		return append(buf, '"')
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' {
			buf = append(buf, '\\')
		}
		buf = append(buf, c)
	}
	return append(buf, '"')
}

// appendFloat writes the shortest decimal that round-trips f. Integral
// values keep a ".0" suffix so they decode back as Float.
func appendFloat(buf []byte, f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return buf, &UnsupportedValueTypeError{Kind: "float(" + strconv.FormatFloat(f, 'g', -1, 64) + ")"}
	}

	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}

	start := len(buf)
	buf = strconv.AppendFloat(buf, f, format, -1, 64)
	if format == 'e' {
		// 1e-07 -> 1e-7, matching encoding/json
		n := len(buf)
		if n-start >= 4 && buf[n-4] == 'e' && buf[n-3] == '-' && buf[n-2] == '0' {
			buf[n-2] = buf[n-1]
			buf = buf[:n-1]
		}
		return buf, nil
	}
	for _, c := range buf[start:] {
		if c == '.' {
			return buf, nil
		}
	}
	return append(buf, '.', '0'), nil
}

func appendMap(buf []byte, m *Map) ([]byte, error) {
	buf = append(buf, '{')
	first := true
	for k, v := range m.All() {
		if IsNull(v) {
			// we don't write null values
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = appendString(buf, k)
		buf = append(buf, ':')
		var err error
		if buf, err = appendValue(buf, v); err != nil {
			return buf, err
		}
	}
	return append(buf, '}'), nil
}

func appendList(buf []byte, l List) ([]byte, error) {
	buf = append(buf, '[')
	first := true
	for _, v := range l {
		if IsNull(v) {
			continue
		}
		if !first {
			buf = append(buf, ',')
		}
		first = false
		var err error
		if buf, err = appendValue(buf, v); err != nil {
			return buf, err
		}
	}
	return append(buf, ']'), nil
}
