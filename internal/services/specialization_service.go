package services

import (
	"context"

	"medrec/internal/query"
)

type SpecializationService struct {
	Specializations Collection
	Query           query.Options
}

func (s SpecializationService) List(ctx context.Context, raw map[string]string) ([]query.Record, error) {
	return list(ctx, raw, s.Query, s.Specializations)
}
