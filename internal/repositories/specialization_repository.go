package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medrec/internal/query"
)

var specializationTable = Table{
	Resource: "specialization",
	From:     "specializations sp",
	Key:      "sp.id",
	Fields:   []string{"id", "name", "description"},
	Columns: map[string]Column{
		"id":          {Expr: "sp.id", Kind: KindInt},
		"name":        {Expr: "sp.name"},
		"description": {Expr: "sp.description"},
	},
}

type SpecializationRepository struct {
	DB *sql.DB
}

func (r SpecializationRepository) Collection() query.CollectionQuery {
	return NewCollection(r.DB, &specializationTable)
}

func (r SpecializationRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM specializations WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup specialization %d: %w", id, err)
	}
	return true, nil
}
