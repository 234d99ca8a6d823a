package query

import "context"

// CollectionQuery is a lazily built query over one collection. Builder
// methods return the query to chain on; nothing touches the store until
// Fetch. Implementations break ties left by OrderBy in storage order.
type CollectionQuery interface {
	Where(f Filter) CollectionQuery
	OrderBy(k SortKey) CollectionQuery
	Select(p Projection) CollectionQuery
	Skip(n int) CollectionQuery
	Limit(n int) CollectionQuery
	Fetch(ctx context.Context) ([]Record, error)
}

// Execute runs spec against source. Filters are AND-ed; there is no way to
// express OR. Errors from the source are returned as is.
func Execute(ctx context.Context, spec Spec, source CollectionQuery) ([]Record, error) {
	spec = spec.normalized()

	q := source
	for _, f := range spec.Filters {
		q = q.Where(f)
	}
	for _, k := range spec.Sort {
		q = q.OrderBy(k)
	}
	q = q.Select(spec.Projection).Skip(spec.Skip()).Limit(spec.PageSize)

	rows, err := q.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) > spec.PageSize {
		rows = rows[:spec.PageSize]
	}

	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, spec.Projection.apply(r, spec.Excluded))
	}
	return out, nil
}
