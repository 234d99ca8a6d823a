// Package query turns client-supplied query-string parameters into a bounded
// collection query and runs it against a CollectionQuery.
package query

// Operator is a comparison applied by a Filter.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

var operators = map[string]Operator{
	"eq":  OpEq,
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Filter is one (field, operator, value) clause. Filters in a Spec are AND-ed.
type Filter struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value string   `json:"value"`
}

// SortKey orders results by Field. The first key in a Spec is the primary one.
type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// Projection selects fields. With Exclude unset only Fields are returned,
// otherwise every field except Fields is returned.
type Projection struct {
	Fields  []string `json:"fields"`
	Exclude bool     `json:"exclude"`
}

// Spec is the validated form of a list request. It is built by Parse and must
// be treated as read-only afterwards.
type Spec struct {
	Filters    []Filter   `json:"filters"`
	Sort       []SortKey  `json:"sort"`
	Projection Projection `json:"projection"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`

	// Excluded fields are never returned, whatever the projection says.
	Excluded []string `json:"-"`
}

// Skip is the number of matching records before the requested page.
func (s Spec) Skip() int {
	if s.Page < 1 {
		return 0
	}
	return (s.Page - 1) * s.PageSize
}

// Record is one row of a collection keyed by its public field names.
type Record map[string]any

// ID returns the record's "id" value, or nil when it was projected away.
func (r Record) ID() any {
	return r["id"]
}

func (s Spec) normalized() Spec {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	return s
}

// apply returns a copy of rec restricted by p, without any excluded field.
func (p Projection) apply(rec Record, excluded []string) Record {
	out := make(Record, len(rec))
	if len(p.Fields) == 0 || p.Exclude {
		for k, v := range rec {
			out[k] = v
		}
		for _, f := range p.Fields {
			delete(out, f)
		}
	} else {
		for _, f := range p.Fields {
			if v, ok := rec[f]; ok {
				out[f] = v
			}
		}
	}
	for _, f := range excluded {
		delete(out, f)
	}
	return out
}
