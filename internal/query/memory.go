package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// MemoryCollection is a CollectionQuery over records held in memory, in
// their slice order. Builder methods return copies, so a base collection can
// be shared between requests.
type MemoryCollection struct {
	records []Record
	filters []Filter
	sort    []SortKey
	proj    Projection
	skip    int
	limit   int
}

// NewMemoryCollection wraps records. The slice is not copied and must not be
// modified while queries are running.
func NewMemoryCollection(records []Record) *MemoryCollection {
	return &MemoryCollection{records: records}
}

func (m *MemoryCollection) clone() *MemoryCollection {
	c := *m
	c.filters = append([]Filter(nil), m.filters...)
	c.sort = append([]SortKey(nil), m.sort...)
	return &c
}

func (m *MemoryCollection) Where(f Filter) CollectionQuery {
	c := m.clone()
	c.filters = append(c.filters, f)
	return c
}

func (m *MemoryCollection) OrderBy(k SortKey) CollectionQuery {
	c := m.clone()
	c.sort = append(c.sort, k)
	return c
}

func (m *MemoryCollection) Select(p Projection) CollectionQuery {
	c := m.clone()
	c.proj = p
	return c
}

func (m *MemoryCollection) Skip(n int) CollectionQuery {
	c := m.clone()
	c.skip = n
	return c
}

func (m *MemoryCollection) Limit(n int) CollectionQuery {
	c := m.clone()
	c.limit = n
	return c
}

func (m *MemoryCollection) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		if m.matches(r) {
			matched = append(matched, r)
		}
	}

	if len(m.sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, k := range m.sort {
				c := compareValues(matched[i][k.Field], matched[j][k.Field])
				if c == 0 {
					continue
				}
				if k.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if m.skip >= len(matched) {
		return []Record{}, nil
	}
	matched = matched[m.skip:]
	if m.limit > 0 && len(matched) > m.limit {
		matched = matched[:m.limit]
	}

	out := make([]Record, 0, len(matched))
	for _, r := range matched {
		out = append(out, m.proj.apply(r, nil))
	}
	return out, nil
}

func (m *MemoryCollection) matches(r Record) bool {
	for _, f := range m.filters {
		v, ok := r[f.Field]
		if !ok || v == nil {
			return false
		}
		c := compareValues(v, f.Value)
		switch f.Op {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpGt:
			if c <= 0 {
				return false
			}
		case OpGte:
			if c < 0 {
				return false
			}
		case OpLt:
			if c >= 0 {
				return false
			}
		case OpLte:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders two values numerically when both read as numbers,
// chronologically when both are times, and as strings otherwise. nil sorts
// first.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := asNumber(a); ok {
		if fb, ok := asNumber(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	sa, sb := asString(a), asString(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}
