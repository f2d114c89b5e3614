package docstore

import (
	"encoding/json"
	"time"
)

type timestampState uint8

const (
	stateAbsent timestampState = iota
	stateResolved
	statePending
)

// Timestamp is a store-assigned instant. A write carrying ServerTimestamp is seen
// locally as pending until the store resolves it.
type Timestamp struct {
	at    time.Time
	state timestampState
}

func At(t time.Time) Timestamp {
	return Timestamp{at: t.UTC(), state: stateResolved}
}

func PendingTimestamp() Timestamp {
	return Timestamp{state: statePending}
}

// Time returns the resolved instant; ok is false for pending and absent timestamps.
func (t Timestamp) Time() (time.Time, bool) {
	return t.at, t.state == stateResolved
}

func (t Timestamp) IsPending() bool  { return t.state == statePending }
func (t Timestamp) IsAbsent() bool   { return t.state == stateAbsent }
func (t Timestamp) IsResolved() bool { return t.state == stateResolved }

// CompareTimestamps orders absent before resolved before pending, and resolved
// timestamps by instant. A pending write is the newest thing a client knows about.
func CompareTimestamps(a, b Timestamp) int {
	if a.state != b.state {
		if a.state < b.state {
			return -1
		}
		return 1
	}
	if a.state != stateResolved {
		return 0
	}
	return a.at.Compare(b.at)
}

// MarshalJSON renders a resolved timestamp as RFC 3339 and anything else as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.state != stateResolved {
		return []byte("null"), nil
	}
	return json.Marshal(t.at.Format(time.RFC3339Nano))
}

type serverTimestamp struct{}

// ServerTimestamp is a write-only field value asking the store to stamp the
// field with its own clock.
var ServerTimestamp any = serverTimestamp{}

func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// ResolveServerTimestamps returns a copy of f with every ServerTimestamp
// replaced by ts.
func ResolveServerTimestamps(f Fields, ts Timestamp) Fields {
	out := f.Clone()
	for k, v := range out {
		if IsServerTimestamp(v) {
			out[k] = ts
		}
	}
	return out
}

// HasServerTimestamps reports whether any top-level value of f is ServerTimestamp.
func HasServerTimestamps(f Fields) bool {
	for _, v := range f {
		if IsServerTimestamp(v) {
			return true
		}
	}
	return false
}
