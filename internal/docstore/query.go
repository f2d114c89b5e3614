package docstore

import (
	"fmt"
	"sort"
	"strings"
)

type Filter struct {
	Field string
	Value any
}

type Order struct {
	Field string
	Desc  bool
}

// Query selects the documents of one collection whose fields equal every filter.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    *Order
}

func Collection(name string) Query {
	return Query{Collection: name}
}

func (q Query) Where(field string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Value: value})
	return q
}

func (q Query) Ordered(field string, desc bool) Query {
	q.OrderBy = &Order{Field: field, Desc: desc}
	return q
}

func (q Query) Unordered() Query {
	q.OrderBy = nil
	return q
}

func (q Query) Validate() error {
	if strings.TrimSpace(q.Collection) == "" {
		return fmt.Errorf("%w: empty collection", ErrInvalidQuery)
	}
	for _, f := range q.Filters {
		if strings.TrimSpace(f.Field) == "" {
			return fmt.Errorf("%w: empty filter field", ErrInvalidQuery)
		}
	}
	if q.OrderBy != nil && strings.TrimSpace(q.OrderBy.Field) == "" {
		return fmt.Errorf("%w: empty order field", ErrInvalidQuery)
	}
	return nil
}

// Matches reports whether f satisfies every filter. A nil document never matches.
func (q Query) Matches(f Fields) bool {
	if f == nil {
		return false
	}
	for _, flt := range q.Filters {
		v, ok := f[flt.Field]
		if !ok || !Equal(v, flt.Value) {
			return false
		}
	}
	return true
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString(q.Collection)
	for _, f := range q.Filters {
		fmt.Fprintf(&b, " %s==%v", f.Field, f.Value)
	}
	if q.OrderBy != nil {
		dir := "asc"
		if q.OrderBy.Desc {
			dir = "desc"
		}
		fmt.Fprintf(&b, " order by %s %s", q.OrderBy.Field, dir)
	}
	return b.String()
}

// CompareValues orders timestamps, numbers and strings. Missing values sort first.
func CompareValues(a, b any) int {
	if ta, ok := asTimestamp(a); ok {
		tb, _ := asTimestamp(b)
		return CompareTimestamps(ta, tb)
	}
	if _, ok := asTimestamp(b); ok {
		return -CompareValues(b, a)
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 1
		}
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	switch {
	case aok && bok:
		return strings.Compare(sa, sb)
	case aok:
		return 1
	case bok:
		return -1
	}
	return 0
}

func asTimestamp(v any) (Timestamp, bool) {
	switch v.(type) {
	case Timestamp, serverTimestamp:
		return Fields{"v": v}.Timestamp("v"), true
	}
	return Timestamp{}, false
}

// SortDocuments orders docs in place by o, keeping the relative order of ties.
func SortDocuments(docs []Document, o Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := CompareValues(docs[i].Fields[o.Field], docs[j].Fields[o.Field])
		if o.Desc {
			return c > 0
		}
		return c < 0
	})
}
