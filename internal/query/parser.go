package query

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Options configures Parse for one collection.
type Options struct {
	ExcludedFields  []string
	DefaultPageSize int
	MaxPageSize     int
}

func (o Options) limits() (def, ceiling int) {
	def, ceiling = o.DefaultPageSize, o.MaxPageSize
	if ceiling < 1 {
		ceiling = MaxPageSize
	}
	if def < 1 {
		def = DefaultPageSize
	}
	if def > ceiling {
		def = ceiling
	}
	return def, ceiling
}

type directive string

const (
	dirSort   directive = "sort"
	dirFields directive = "fields"
	dirPage   directive = "page"
	dirLimit  directive = "limit"
)

var reserved = map[string]directive{
	"sort":   dirSort,
	"fields": dirFields,
	"page":   dirPage,
	"limit":  dirLimit,
}

// param is a query parameter after classification: exactly one of
// directive or filter is meaningful.
type param struct {
	directive directive
	filter    *rawFilter
	ignore    bool
}

type rawFilter struct {
	field string
	op    string
	hasOp bool
	value string
}

var (
	bracketKey   = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]*)\]$`)
	bracketValue = regexp.MustCompile(`^\[([^\[\]]*)\](.*)$`)
	identifier   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func classify(key, value string) param {
	if d, ok := reserved[key]; ok {
		return param{directive: d}
	}
	f := &rawFilter{field: key, value: value}
	if m := bracketKey.FindStringSubmatch(key); m != nil {
		f.field, f.op, f.hasOp = m[1], m[2], true
	} else if m := bracketValue.FindStringSubmatch(value); m != nil {
		f.op, f.value, f.hasOp = m[1], m[2], true
	}
	// "page[gte]=2" and friends name a directive, never a field.
	if _, ok := reserved[f.field]; ok {
		return param{ignore: true}
	}
	return param{filter: f}
}

// Values flattens a query string, keeping the first value of repeated keys.
func Values(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

// Parse builds a Spec from raw query parameters.
func Parse(raw map[string]string, opts Options) (Spec, error) {
	defSize, maxSize := opts.limits()
	excluded := toSet(opts.ExcludedFields)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	spec := Spec{
		Page:     1,
		PageSize: defSize,
		Excluded: append([]string(nil), opts.ExcludedFields...),
	}
	var pageRaw, limitRaw string
	var fieldsRaw, sortRaw string

	for _, k := range keys {
		p := classify(k, raw[k])
		switch {
		case p.ignore:
			continue
		case p.filter != nil:
			f, err := buildFilter(k, p.filter, excluded)
			if err != nil {
				return Spec{}, err
			}
			spec.Filters = append(spec.Filters, f)
		default:
			switch p.directive {
			case dirSort:
				sortRaw = raw[k]
			case dirFields:
				fieldsRaw = raw[k]
			case dirPage:
				pageRaw = raw[k]
			case dirLimit:
				limitRaw = raw[k]
			}
		}
	}

	sortKeys, err := parseSort(sortRaw, excluded)
	if err != nil {
		return Spec{}, err
	}
	spec.Sort = sortKeys

	proj, err := parseFields(fieldsRaw, opts.ExcludedFields)
	if err != nil {
		return Spec{}, err
	}
	spec.Projection = proj

	page, err := parsePage(pageRaw)
	if err != nil {
		return Spec{}, err
	}
	spec.Page = page
	spec.PageSize = parseLimit(limitRaw, defSize, maxSize)

	if spec.Page-1 > math.MaxInt/spec.PageSize {
		return Spec{}, parseErr(InvalidPagination, "page", "skip overflows")
	}
	return spec, nil
}

func buildFilter(key string, rf *rawFilter, excluded map[string]bool) (Filter, error) {
	if !identifier.MatchString(rf.field) {
		return Filter{}, parseErr(InvalidField, key, "invalid field name")
	}
	if excluded[rf.field] {
		return Filter{}, parseErr(ForbiddenField, key, "field cannot be filtered")
	}
	op := OpEq
	if rf.hasOp {
		o, ok := operators[strings.ToLower(rf.op)]
		if !ok {
			return Filter{}, parseErr(InvalidOperator, key, "unknown operator "+strconv.Quote(rf.op))
		}
		op = o
	}
	return Filter{Field: rf.field, Op: op, Value: rf.value}, nil
}

func parseSort(raw string, excluded map[string]bool) ([]SortKey, error) {
	var out []SortKey
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimSpace(strings.TrimPrefix(part, "-"))
		if field == "" || seen[field] {
			continue
		}
		if !identifier.MatchString(field) {
			return nil, parseErr(InvalidField, "sort", "invalid field name "+strconv.Quote(field))
		}
		if excluded[field] {
			return nil, parseErr(ForbiddenField, "sort", "field cannot be sorted")
		}
		seen[field] = true
		out = append(out, SortKey{Field: field, Desc: desc})
	}
	return out, nil
}

func parseFields(raw string, excluded []string) (Projection, error) {
	var include, exclude []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		neg := strings.HasPrefix(part, "-")
		field := strings.TrimSpace(strings.TrimPrefix(part, "-"))
		if field == "" || seen[field] {
			continue
		}
		if !identifier.MatchString(field) {
			return Projection{}, parseErr(InvalidField, "fields", "invalid field name "+strconv.Quote(field))
		}
		seen[field] = true
		if neg {
			exclude = append(exclude, field)
		} else {
			include = append(include, field)
		}
	}
	if len(include) > 0 && len(exclude) > 0 {
		return Projection{}, parseErr(InvalidProjection, "fields", "cannot mix included and excluded fields")
	}

	hidden := toSet(excluded)
	if len(include) > 0 {
		var fields []string
		for _, f := range include {
			if !hidden[f] {
				fields = append(fields, f)
			}
		}
		if len(fields) == 0 {
			// Only hidden fields were asked for.
			fields = []string{"id"}
		}
		return Projection{Fields: fields}, nil
	}

	fields := append([]string(nil), excluded...)
	for _, f := range exclude {
		if !hidden[f] {
			fields = append(fields, f)
		}
	}
	return Projection{Fields: fields, Exclude: true}, nil
}

func parsePage(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return 0, parseErr(InvalidPagination, "page", "page out of range")
		}
		return 1, nil
	}
	if n < 1 {
		return 1, nil
	}
	return n, nil
}

func parseLimit(raw string, def, ceiling int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
			return ceiling
		}
		return def
	}
	switch {
	case n < 1:
		return def
	case n > ceiling:
		return ceiling
	}
	return n
}

func toSet(fields []string) map[string]bool {
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
