package docstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampKey marks an encoded Timestamp: {"__ts": "<RFC 3339, UTC, fixed width>"}.
// The fixed width keeps lexical and chronological order the same.
const TimestampKey = "__ts"

const timestampLayout = "2006-01-02T15:04:05.000000000Z"

var ErrUnresolvedTimestamp = errors.New("server timestamp must be resolved before encoding")

// EncodeFields renders f as JSON for persistence or transport.
func EncodeFields(f Fields) ([]byte, error) {
	v, err := encodeValue(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// DecodeFields parses JSON produced by EncodeFields. Numbers decode as json.Number.
func DecodeFields(raw []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	out, _ := decodeValue(m).(Fields)
	if out == nil {
		out = Fields{}
	}
	return out, nil
}

func encodeTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func encodeValue(v any) (any, error) {
	switch t := v.(type) {
	case Timestamp:
		at, ok := t.Time()
		if !ok {
			return nil, nil
		}
		return map[string]any{TimestampKey: encodeTimestamp(at)}, nil
	case time.Time:
		return map[string]any{TimestampKey: encodeTimestamp(t)}, nil
	case serverTimestamp:
		return nil, ErrUnresolvedTimestamp
	case Fields:
		return encodeMap(t)
	case map[string]any:
		return encodeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			ev, err := encodeValue(it)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return v, nil
	}
}

func encodeMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

func decodeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if s, ok := t[TimestampKey].(string); ok {
				if at, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return At(at)
				}
			}
		}
		out := make(Fields, len(t))
		for k, it := range t {
			out[k] = decodeValue(it)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, it := range t {
			out[i] = decodeValue(it)
		}
		return out
	default:
		return v
	}
}
