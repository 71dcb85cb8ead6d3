package value

import (
	"iter"
	"slices"
	"time"
)

// Value is a sealed interface over the storable value kinds.
// Only Null, String, Int, Float, Bool, Timestamp, *Map and List implement it.
type Value interface {
	isValue() // Sealed - only these types implement it
}

// Null marks an absent value. Null entries are never written to JSON.
type Null struct{}

func (Null) isValue() {}

// String is a string value.
type String string

func (String) isValue() {}

// Int is a 64-bit integer value.
type Int int64

func (Int) isValue() {}

// Float is a 64-bit floating point value.
type Float float64

func (Float) isValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) isValue() {}

// Timestamp is a point in time stored as milliseconds since the Unix epoch.
type Timestamp int64

func (Timestamp) isValue() {}

// TimestampOf converts t to a Timestamp, truncating to milliseconds.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the UTC time for ts.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts)).UTC()
}

// List is an ordered sequence of values.
type List []Value

func (List) isValue() {}

// Strings builds a List of String values.
func Strings(ss ...string) List {
	l := make(List, len(ss))
	for i, s := range ss {
		l[i] = String(s)
	}
	return l
}

// Map is an ordered string-keyed map. Keys are unique and iterate in
// insertion order; replacing a key keeps its original position.
//
// The zero Map is empty and ready to use.
type Map struct {
	keys []string
	vals map[string]Value
}

func (*Map) isValue() {}

// Pair is a key/value entry used for Map construction.
type Pair struct {
	Key   string
	Value Value
}

// P is a shorthand for Pair.
// Example: NewMap(P("title", String("Report")), P("size", Int(3)))
func P(key string, v Value) Pair {
	return Pair{Key: key, Value: v}
}

// NewMap creates a Map from pairs in order. A repeated key keeps its first
// position and takes the last value.
func NewMap(pairs ...Pair) *Map {
	m := &Map{
		keys: make([]string, 0, len(pairs)),
		vals: make(map[string]Value, len(pairs)),
	}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Set stores v under key.
func (m *Map) Set(key string, v Value) {
	if m.vals == nil {
		m.vals = make(map[string]Value)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Delete removes key. Missing keys are ignored.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Len returns the number of entries, Null entries included.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates entries in insertion order.
func (m *Map) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// GetString returns the string stored under key, if it is a String.
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// IsNull reports whether v is Null or a nil Value.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Kind returns a short name for the kind of v.
func Kind(v Value) string {
	switch v.(type) {
	case nil:
		return "<nil>"
	case Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Timestamp:
		return "timestamp"
	case *Map:
		return "map"
	case List:
		return "list"
	default:
		return "unknown"
	}
}
