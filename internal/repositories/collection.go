package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"medrec/internal/domain"
	"medrec/internal/query"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt
	KindBool
	KindTime
	KindDate
)

// Column maps a public field onto a SQL expression.
type Column struct {
	Expr string
	Kind ColumnKind
}

// Table describes one queryable collection. Only fields listed in Columns can
// be selected, filtered or sorted on; everything else is rejected before any
// SQL is built.
type Table struct {
	Resource string
	From     string
	// Key breaks ties left by the requested sort, giving storage order.
	Key     string
	Fields  []string
	Columns map[string]Column
}

var sqlOps = map[query.Operator]string{
	query.OpEq:  "=",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// Collection is the MySQL query.CollectionQuery. Builder methods return
// copies; the statement is built and run by Fetch.
type Collection struct {
	db      queryer
	table   *Table
	filters []query.Filter
	sort    []query.SortKey
	proj    query.Projection
	skip    int
	limit   int
}

func NewCollection(db queryer, t *Table) *Collection {
	return &Collection{db: db, table: t}
}

func (c *Collection) clone() *Collection {
	n := *c
	n.filters = append([]query.Filter(nil), c.filters...)
	n.sort = append([]query.SortKey(nil), c.sort...)
	return &n
}

func (c *Collection) Where(f query.Filter) query.CollectionQuery {
	n := c.clone()
	n.filters = append(n.filters, f)
	return n
}

func (c *Collection) OrderBy(k query.SortKey) query.CollectionQuery {
	n := c.clone()
	n.sort = append(n.sort, k)
	return n
}

func (c *Collection) Select(p query.Projection) query.CollectionQuery {
	n := c.clone()
	n.proj = p
	return n
}

func (c *Collection) Skip(v int) query.CollectionQuery {
	n := c.clone()
	n.skip = v
	return n
}

func (c *Collection) Limit(v int) query.CollectionQuery {
	n := c.clone()
	n.limit = v
	return n
}

func (c *Collection) Fetch(ctx context.Context) ([]query.Record, error) {
	stmt, args, err := c.build()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.Resource, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.Resource, err)
	}

	out := []query.Record{}
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table.Resource, err)
		}
		rec := make(query.Record, len(names))
		for i, name := range names {
			rec[name] = c.table.Columns[name].decode(vals[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table.Resource, err)
	}
	return out, nil
}

func (c *Collection) build() (string, []any, error) {
	var (
		where []string
		args  []any
	)
	for _, f := range c.filters {
		col, err := c.column(f.Field)
		if err != nil {
			return "", nil, err
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return "", nil, domain.ValidationError{Field: f.Field, Msg: "unsupported operator " + string(f.Op)}
		}
		arg, err := col.arg(f.Value)
		if err != nil {
			return "", nil, domain.ValidationError{Field: f.Field, Msg: err.Error(), Err: err}
		}
		where = append(where, col.Expr+" "+op+" ?")
		args = append(args, arg)
	}

	order := make([]string, 0, len(c.sort)+1)
	for _, k := range c.sort {
		col, err := c.column(k.Field)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		order = append(order, col.Expr+" "+dir)
	}
	order = append(order, c.table.Key+" ASC")

	fields := c.selected()
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, c.table.Columns[f].Expr+" AS `"+f+"`")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(c.table.From)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(order, ", "))
	if c.limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, c.limit)
		if c.skip > 0 {
			b.WriteString(" OFFSET ?")
			args = append(args, c.skip)
		}
	} else if c.skip > 0 {
		// MySQL has no OFFSET without LIMIT.
		b.WriteString(" LIMIT 18446744073709551615 OFFSET ?")
		args = append(args, c.skip)
	}
	return b.String(), args, nil
}

func (c *Collection) column(field string) (Column, error) {
	col, ok := c.table.Columns[field]
	if !ok {
		return Column{}, domain.ValidationError{Field: field, Msg: "unknown field"}
	}
	return col, nil
}

// selected lists the fields to read. Unknown fields in an include projection
// are skipped; an empty result falls back to "id".
func (c *Collection) selected() []string {
	if c.proj.Exclude || len(c.proj.Fields) == 0 {
		drop := make(map[string]bool, len(c.proj.Fields))
		for _, f := range c.proj.Fields {
			drop[f] = true
		}
		out := make([]string, 0, len(c.table.Fields))
		for _, f := range c.table.Fields {
			if !drop[f] {
				out = append(out, f)
			}
		}
		if len(out) > 0 {
			return out
		}
		return []string{"id"}
	}

	out := make([]string, 0, len(c.proj.Fields))
	for _, f := range c.proj.Fields {
		if _, ok := c.table.Columns[f]; ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{"id"}
	}
	return out
}

func (col Column) arg(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch col.Kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", raw)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case KindTime:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%q is not a date or time", raw)
	case KindDate:
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a YYYY-MM-DD date", raw)
		}
		return t.Format("2006-01-02"), nil
	}
	return raw, nil
}

func (col Column) decode(v any) any {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil
	}
	switch col.Kind {
	case KindInt:
		if s, ok := v.(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
	case KindBool:
		switch b := v.(type) {
		case int64:
			return b != 0
		case string:
			return b == "1" || strings.EqualFold(b, "true")
		}
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02")
		}
	case KindTime:
		if s, ok := v.(string); ok {
			if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
				return t
			}
		}
	}
	return v
}
