package docstore

import (
	"encoding/json"
	"math"
	"time"
)

// Fields is a document body. Values are strings, bools, numbers, Timestamps,
// slices and nested maps.
type Fields map[string]any

func (f Fields) String(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

func (f Fields) Float(key string) (float64, bool) {
	return toFloat(f[key])
}

// FloatPtr returns nil when key is absent, null or not numeric.
func (f Fields) FloatPtr(key string) *float64 {
	v, ok := toFloat(f[key])
	if !ok {
		return nil
	}
	return &v
}

// Int accepts any numeric value with no fractional part.
func (f Fields) Int(key string) (int, bool) {
	v, ok := toFloat(f[key])
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

func (f Fields) Strings(key string) ([]string, bool) {
	switch v := f[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, it := range v {
			s, ok := it.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func (f Fields) Timestamp(key string) Timestamp {
	switch v := f[key].(type) {
	case Timestamp:
		return v
	case time.Time:
		return At(v)
	case serverTimestamp:
		return PendingTimestamp()
	default:
		return Timestamp{}
	}
}

// Clone copies f deeply enough that the caller can mutate the result
// without touching the original.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// Digest keeps the scalar top-level values of f. Change notifications carry
// digests, which is all filter matching needs.
func Digest(f Fields) Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		switch v.(type) {
		case string, bool, float64, float32, int, int32, int64, json.Number:
			out[k] = v
		}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Fields:
		return t.Clone()
	case map[string]any:
		return Fields(t).Clone()
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = cloneValue(it)
		}
		return out
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Equal compares two field values, treating numbers of different Go types as equal
// when they hold the same value.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	case Timestamp:
		bv, ok := b.(Timestamp)
		return ok && CompareTimestamps(av, bv) == 0
	default:
		return false
	}
}
