package page

import (
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/pagesight/pagesight/internal/domain"
	"github.com/pagesight/pagesight/internal/domain/filter"
)

// metadataColumn maps the filter target to the jsonb column it tests.
func metadataColumn(on filter.Target) string {
	if on == filter.OnCollection {
		return "c.metadata"
	}
	return "d.metadata"
}

// compileFilter turns a validated filter into a SQL predicate and its
// arguments. Key-existence lookups use the jsonb_exists* functions rather
// than the ?/?&/?| operators so the placeholder syntax stays unambiguous.
func compileFilter(f filter.Filter) (string, []any, error) {
	col := metadataColumn(f.On())

	switch f.Lookup() {
	case filter.KeyLookup:
		val, err := json.Marshal(f.Value())
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		return col + " -> ? = ?::jsonb", []any{f.Key(), string(val)}, nil

	case filter.Contains:
		obj, err := json.Marshal(map[string]any{f.Key(): f.Value()})
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		return col + " @> ?::jsonb", []any{string(obj)}, nil

	case filter.ContainedBy:
		obj, err := json.Marshal(map[string]any{f.Key(): f.Value()})
		if err != nil {
			return "", nil, fmt.Errorf("encode filter value: %w", err)
		}
		return col + " <@ ?::jsonb", []any{string(obj)}, nil

	case filter.HasKey:
		return "jsonb_exists(" + col + ", ?)", []any{f.Key()}, nil

	case filter.HasKeys:
		return "jsonb_exists_all(" + col + ", ?)", []any{pgdialect.Array(f.Keys())}, nil

	case filter.HasAnyKeys:
		return "jsonb_exists_any(" + col + ", ?)", []any{pgdialect.Array(f.Keys())}, nil

	default:
		return "", nil, fmt.Errorf("unknown lookup %q: %w", f.Lookup(), domain.ErrValidation)
	}
}
