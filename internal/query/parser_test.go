package query

import (
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hashOnly = Options{ExcludedFields: []string{"passwordHash"}}

func TestParse_DirectivesExample(t *testing.T) {
	spec, err := Parse(map[string]string{
		"sort":   "-name,age",
		"fields": "name,age",
		"page":   "2",
		"limit":  "10",
	}, Options{})
	require.NoError(t, err)

	assert.Empty(t, spec.Filters)
	assert.Equal(t, []SortKey{{Field: "name", Desc: true}, {Field: "age"}}, spec.Sort)
	assert.Equal(t, Projection{Fields: []string{"name", "age"}}, spec.Projection)
	assert.Equal(t, 2, spec.Page)
	assert.Equal(t, 10, spec.PageSize)
	assert.Equal(t, 10, spec.Skip())
}

func TestParse_Defaults(t *testing.T) {
	spec, err := Parse(nil, hashOnly)
	require.NoError(t, err)

	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, DefaultPageSize, spec.PageSize)
	assert.Equal(t, 0, spec.Skip())
	assert.Equal(t, Projection{Fields: []string{"passwordHash"}, Exclude: true}, spec.Projection)
	assert.Equal(t, []string{"passwordHash"}, spec.Excluded)
}

func TestParse_ReservedKeysNeverBecomeFilters(t *testing.T) {
	raw := map[string]string{
		"sort":        "name",
		"fields":      "name",
		"page":        "1",
		"limit":       "5",
		"page[gte]":   "2",
		"limit[lt]":   "3",
		"name":        "Ann",
		"hospital":    "General",
		"sort[eq]":    "x",
		"fields[gte]": "y",
	}
	spec, err := Parse(raw, Options{})
	require.NoError(t, err)

	require.Len(t, spec.Filters, 2)
	for _, f := range spec.Filters {
		_, isReserved := reserved[f.Field]
		assert.False(t, isReserved, "filter on reserved key %q", f.Field)
	}
	// lexical key order
	assert.Equal(t, "hospital", spec.Filters[0].Field)
	assert.Equal(t, "name", spec.Filters[1].Field)
}

func TestParse_FilterOperators(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  Filter
	}{
		{"plain equality", "gender", "female", Filter{Field: "gender", Op: OpEq, Value: "female"}},
		{"key suffix gte", "age[gte]", "30", Filter{Field: "age", Op: OpGte, Value: "30"}},
		{"key suffix lt", "age[lt]", "65", Filter{Field: "age", Op: OpLt, Value: "65"}},
		{"key suffix upper case", "age[GT]", "1", Filter{Field: "age", Op: OpGt, Value: "1"}},
		{"value prefix lte", "age", "[lte]40", Filter{Field: "age", Op: OpLte, Value: "40"}},
		{"value prefix eq", "name", "[eq]Bob", Filter{Field: "name", Op: OpEq, Value: "Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Parse(map[string]string{tt.key: tt.value}, Options{})
			require.NoError(t, err)
			require.Len(t, spec.Filters, 1)
			assert.Equal(t, tt.want, spec.Filters[0])
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]string
		want error
	}{
		{"unknown key operator", map[string]string{"age[regex]": "1"}, ErrInvalidOperator},
		{"unknown value operator", map[string]string{"age": "[ne]1"}, ErrInvalidOperator},
		{"empty operator", map[string]string{"age[]": "1"}, ErrInvalidOperator},
		{"mixed projection", map[string]string{"fields": "name,-email"}, ErrInvalidProjection},
		{"bad filter field", map[string]string{"na-me": "x"}, ErrInvalidField},
		{"bad sort field", map[string]string{"sort": "name;drop"}, ErrInvalidField},
		{"bad projection field", map[string]string{"fields": "name,e mail"}, ErrInvalidField},
		{"filter on hidden field", map[string]string{"passwordHash": "x"}, ErrForbiddenField},
		{"operator on hidden field", map[string]string{"passwordHash[gt]": "a"}, ErrForbiddenField},
		{"sort on hidden field", map[string]string{"sort": "-passwordHash"}, ErrForbiddenField},
		{"page overflow", map[string]string{"page": "99999999999999999999999"}, ErrInvalidPagination},
		{"skip overflow", map[string]string{"page": strconv.Itoa(int(^uint(0) >> 2)), "limit": "1000"}, ErrInvalidPagination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, hashOnly)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
		})
	}
}

func TestParse_PaginationIsTolerant(t *testing.T) {
	tests := []struct {
		page, limit       string
		wantPage, wantLim int
	}{
		{"", "", 1, DefaultPageSize},
		{"abc", "xyz", 1, DefaultPageSize},
		{"0", "0", 1, DefaultPageSize},
		{"-4", "-10", 1, DefaultPageSize},
		{"3", "25", 3, 25},
		{" 2 ", " 7 ", 2, 7},
		{"1", "999999", 1, MaxPageSize},
		{"1", "99999999999999999999999", 1, MaxPageSize},
		{"1", "-99999999999999999999999", 1, DefaultPageSize},
		{"-99999999999999999999999", "5", 1, 5},
		{"2.5", "1e3", 1, DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.page+"/"+tt.limit, func(t *testing.T) {
			spec, err := Parse(map[string]string{"page": tt.page, "limit": tt.limit}, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, spec.Page)
			assert.Equal(t, tt.wantLim, spec.PageSize)
		})
	}
}

func TestParse_ConfiguredLimits(t *testing.T) {
	opts := Options{DefaultPageSize: 20, MaxPageSize: 50}

	spec, err := Parse(map[string]string{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 20, spec.PageSize)

	spec, err = Parse(map[string]string{"limit": "51"}, opts)
	require.NoError(t, err)
	assert.Equal(t, 50, spec.PageSize)

	// a default above the ceiling is pulled down to it
	spec, err = Parse(nil, Options{DefaultPageSize: 500, MaxPageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, spec.PageSize)
}

func TestParse_SortDropsBlanksAndDuplicates(t *testing.T) {
	spec, err := Parse(map[string]string{"sort": " name, ,-,-age,name,-name "}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{Field: "name"}, {Field: "age", Desc: true}}, spec.Sort)
}

func TestParse_ProjectionStripsHiddenFields(t *testing.T) {
	spec, err := Parse(map[string]string{"fields": "name,passwordHash"}, hashOnly)
	require.NoError(t, err)
	assert.Equal(t, Projection{Fields: []string{"name"}}, spec.Projection)

	spec, err = Parse(map[string]string{"fields": "passwordHash"}, hashOnly)
	require.NoError(t, err)
	assert.Equal(t, Projection{Fields: []string{"id"}}, spec.Projection)

	spec, err = Parse(map[string]string{"fields": "-email,-passwordHash"}, hashOnly)
	require.NoError(t, err)
	assert.Equal(t, Projection{Fields: []string{"passwordHash", "email"}, Exclude: true}, spec.Projection)
}

func TestValues_FirstValueWins(t *testing.T) {
	v, err := url.ParseQuery("sort=name&sort=age&age%5Bgte%5D=30&empty=")
	require.NoError(t, err)

	got := Values(v)
	assert.Equal(t, "name", got["sort"])
	assert.Equal(t, "30", got["age[gte]"])
	assert.Equal(t, "", got["empty"])
}
